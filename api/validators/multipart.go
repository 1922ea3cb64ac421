package validators

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
)

// FormOverheadBytes covers the text fields that travel next to the upload.
const FormOverheadBytes = 1 << 20

// UploadedFile is a fully read multipart file part.
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ParseMultipartForm caps the request body at maxFileBytes plus form overhead and parses it.
func ParseMultipartForm(w http.ResponseWriter, r *http.Request, maxFileBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFileBytes+FormOverheadBytes)
	if err := r.ParseMultipartForm(maxFileBytes + FormOverheadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "Payment proof must be at most %d MB.", maxFileBytes>>20).
				WithDetails(map[string]any{"limit_bytes": maxFileBytes})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormFile reads one file part. A missing part returns nil without error so the
// caller can report it with the rest of the required fields. Reading stops one
// byte past maxBytes so oversize uploads stay detectable without buffering them.
func FormFile(r *http.Request, field string, maxBytes int64) (*UploadedFile, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file upload").WithDetails(map[string]any{"field": field})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read file upload").WithDetails(map[string]any{"field": field})
	}
	return &UploadedFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// FormString returns a trimmed form value capped at maxLen bytes.
func FormString(r *http.Request, field string, maxLen int) string {
	return SanitizeString(r.FormValue(field), maxLen)
}

// FormInt parses an optional integer field; blank means zero.
func FormInt(r *http.Request, field string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a whole number", field).WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

// FormBool accepts the checkbox encodings browsers and the booking form send.
func FormBool(r *http.Request, field string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(field))) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}
