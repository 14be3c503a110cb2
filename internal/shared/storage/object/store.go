// Package object stores uploaded pitch decks, extracted text and rendered reports.
package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/zii786/pitchframe/internal/shared/util"
)

// Provider names recorded on documents.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
	ProviderMinio = "minio"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

// Object describes a stored upload.
type Object struct {
	Key      string
	Size     int64
	MimeType string
}

// Store is implemented by the local, S3 and MinIO backends.
type Store interface {
	// Save stores an upload under a generated, user-scoped key.
	Save(ctx context.Context, userID, fileName string, r io.Reader) (Object, error)
	// Put writes r at an exact key, replacing any existing object.
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Provider() string
}

// NewKey returns "<sha256(user)>/<uuid>_<sanitized name>".
func NewKey(userID, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(util.HashUserKey(userID), uuid.NewString()+"_"+name), nil
}

// CleanKey rejects absolute and escaping keys and normalizes the rest.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// Sniff reads up to 512 bytes to detect the MIME type and returns a reader
// that replays them before the rest of r.
func Sniff(r io.Reader) (string, io.Reader, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("sniff: %w", err)
	}
	buf = buf[:n]
	return http.DetectContentType(buf), io.MultiReader(bytes.NewReader(buf), r), nil
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}

// PutBytes is a convenience wrapper over Store.Put.
func PutBytes(ctx context.Context, s Store, key, contentType string, data []byte) error {
	_, err := s.Put(ctx, key, contentType, bytes.NewReader(data))
	return err
}

// ReadAll opens key and reads it fully.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
