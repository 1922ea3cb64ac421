package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"
)

var migrationNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateTree checks both dialect directories under root and that they carry
// the same versions.
func ValidateTree(root string) error {
	return validateTree(os.DirFS(root))
}

// ValidateEmbedded runs the same checks against the migrations compiled into the binary.
func ValidateEmbedded() error {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return err
	}
	return validateTree(sub)
}

func validateTree(fsys fs.FS) error {
	pg, err := validateDir(fsys, "postgres")
	if err != nil {
		return err
	}
	lite, err := validateDir(fsys, "sqlite")
	if err != nil {
		return err
	}
	for _, v := range pg {
		if !slices.Contains(lite, v) {
			return fmt.Errorf("version %s exists for postgres but not sqlite", v)
		}
	}
	for _, v := range lite {
		if !slices.Contains(pg, v) {
			return fmt.Errorf("version %s exists for sqlite but not postgres", v)
		}
	}
	return nil
}

// validateDir returns the sorted versions found in dir.
func validateDir(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var versions []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := migrationNameRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("%s/%s: expected YYYYMMDDHHMMSS_name.sql", dir, name)
		}
		if slices.Contains(versions, m[1]) {
			return nil, fmt.Errorf("%s: duplicate version %s", dir, m[1])
		}
		versions = append(versions, m[1])

		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if err := checkSections(string(raw)); err != nil {
			return nil, fmt.Errorf("%s/%s: %w", dir, name, err)
		}
	}
	slices.Sort(versions)
	return versions, nil
}

func checkSections(body string) error {
	up := strings.Index(body, "-- +goose Up")
	down := strings.Index(body, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("missing -- +goose Up")
	case down < 0:
		return fmt.Errorf("missing -- +goose Down")
	case down < up:
		return fmt.Errorf("goose Down precedes goose Up")
	}
	if b, e := strings.Count(body, "-- +goose StatementBegin"), strings.Count(body, "-- +goose StatementEnd"); b != e {
		return fmt.Errorf("%d StatementBegin vs %d StatementEnd", b, e)
	}
	return nil
}
