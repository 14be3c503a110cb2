// Package extract turns uploaded pitch decks into plain text for scoring.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/zii786/pitchframe/internal/shared/storage/object"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

// Supported MIME types.
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MimeText = "text/plain"
	mimeZip  = "application/zip"
)

// ExtractedSuffix is appended to a document key to cache its text.
const ExtractedSuffix = ".extracted.txt"

var (
	ErrUnsupported = errors.New("unsupported document type")
	ErrNoText      = errors.New("document contains no extractable text")
)

// Supported reports whether the MIME type (after normalization) can be extracted.
func Supported(mimeType, fileName string) bool {
	switch NormalizeMimeType(mimeType, fileName, nil) {
	case MimePDF, MimeDOCX, MimePPTX, MimeText:
		return true
	}
	return false
}

// FromStore returns the text of a stored document, reusing the cached
// "<key>.extracted.txt" when present and writing it otherwise.
func FromStore(ctx context.Context, store object.Store, key, mimeType, fileName string) (string, error) {
	cacheKey := key + ExtractedSuffix
	if cached, err := object.ReadAll(ctx, store, cacheKey); err == nil && len(cached) > 0 {
		return string(cached), nil
	}

	raw, err := object.ReadAll(ctx, store, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	text, err := FromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return "", fmt.Errorf("extract %s (%s): %w", key, mimeType, err)
	}
	if err := object.PutBytes(ctx, store, cacheKey, "text/plain; charset=utf-8", []byte(text)); err != nil {
		telemetry.Warn("extract.cache_write_failed", map[string]any{"key": cacheKey, "error": err.Error()})
	}
	return text, nil
}

// FromBytes extracts text from an in-memory document.
func FromBytes(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var (
		text string
		err  error
	)
	switch mt := NormalizeMimeType(mimeType, fileName, data); mt {
	case MimePDF:
		text, err = extractPDF(data)
	case MimeDOCX:
		text, err = extractDOCX(data)
	case MimePPTX:
		text, err = extractPPTX(data)
	case MimeText:
		text, err = extractPlain(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mt)
	}
	if err != nil {
		return "", err
	}
	text = cleanText(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// NormalizeMimeType strips parameters and resolves generic types
// (application/zip, application/octet-stream) from the zip contents or the
// file extension.
func NormalizeMimeType(mimeType, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case mimeZip, "application/octet-stream", "":
	default:
		return clean
	}
	if mt := ooxmlTypeFromZip(data); mt != "" {
		return mt
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".pptx":
		return MimePPTX
	case ".txt", ".md":
		return MimeText
	}
	if clean == "" {
		return "application/octet-stream"
	}
	return clean
}

func extractPlain(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupported)
	}
	return string(data), nil
}

// cleanText drops NULs and invalid UTF-8, normalizes line endings and
// collapses runs of blank lines.
func cleanText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
