package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// SourceRoot holds one subdirectory per dialect, relative to the repo root.
const SourceRoot = "pkg/migrate/migrations"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

var skeletons = map[string]string{
	"postgres": "-- +goose Up\n-- +goose StatementBegin\n-- %[1]s (postgres)\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\n-- undo %[1]s\n-- +goose StatementEnd\n",
	"sqlite":   "-- +goose Up\n-- +goose StatementBegin\n-- %[1]s (sqlite: TEXT ids, DATETIME timestamps)\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\n-- undo %[1]s\n-- +goose StatementEnd\n",
}

func slug(name string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// CreatePair writes one skeleton per dialect under root, sharing a single version,
// and returns the created paths. Nothing is written if any target already exists.
func CreatePair(root, name string, now time.Time) ([]string, error) {
	if root == "" {
		return nil, errors.New("root is required")
	}
	s := slug(name)
	if s == "" {
		return nil, fmt.Errorf("name %q has no usable characters", name)
	}
	filename := now.UTC().Format("20060102150405") + "_" + s + ".sql"

	paths := make([]string, 0, len(skeletons))
	for _, dialect := range []string{"postgres", "sqlite"} {
		p := filepath.Join(root, dialect, filename)
		if _, err := os.Stat(p); err == nil {
			return nil, fmt.Errorf("migration already exists: %s", p)
		}
		paths = append(paths, p)
	}

	for i, dialect := range []string{"postgres", "sqlite"} {
		if err := os.MkdirAll(filepath.Dir(paths[i]), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir for %s: %w", dialect, err)
		}
		body := fmt.Sprintf(skeletons[dialect], s)
		if err := os.WriteFile(paths[i], []byte(body), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", paths[i], err)
		}
	}
	return paths, nil
}
