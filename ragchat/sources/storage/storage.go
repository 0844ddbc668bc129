// Package storage holds uploaded documents on local disk or in an object store.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
)

const (
	BackendLocal = "local"
	BackendMinIO = "minio"

	// MaxDocumentBytes caps a single upload.
	MaxDocumentBytes = 1 << 20
)

var allowedTypes = map[string]struct{}{
	"text/plain": {},
	"text/csv":   {},
}

var typesByExt = map[string]string{
	".txt": "text/plain",
	".csv": "text/csv",
}

var ErrNotFound = errors.New("document not found")

// Reference points at a stored document. Sessions keep this, never the bytes.
type Reference struct {
	Backend     string `json:"backend"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// DocumentStore is implemented by LocalStore and MinIOStore.
type DocumentStore interface {
	Backend() string
	Put(ctx context.Context, name string, content []byte, contentType string) (Reference, error)
	// Open streams the document; the caller closes it.
	Open(ctx context.Context, ref Reference) (io.ReadCloser, error)
}

// CleanName reduces an uploaded filename to its base name.
func CleanName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// ContentType normalises a declared content type, falling back to the
// filename extension when the client sent nothing useful.
func ContentType(declared, filename string) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType == "" || mediaType == "application/octet-stream" {
		return typesByExt[strings.ToLower(filepath.Ext(filename))]
	}
	return mediaType
}

// Allowed reports whether contentType may be stored.
func Allowed(contentType string) bool {
	_, ok := allowedTypes[contentType]
	return ok
}
