package uploads

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
)

// MaxUploadBytes bounds the size of an uploaded workbook.
const MaxUploadBytes = 32 << 20

// ErrNoFile is returned when a request carries no "file" part.
var ErrNoFile = errors.New("no file uploaded")

// ReadMultipart extracts the "file" part of a multipart upload. The returned
// filename has any client-side directory stripped.
func ReadMultipart(r *http.Request) (string, []byte, error) {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNoFile, err)
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, ErrNoFile
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return "", nil, errors.New("file too large")
	}
	return filepath.Base(header.Filename), data, nil
}
