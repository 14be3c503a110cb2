package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zii786/pitchframe/internal/extract"
	"github.com/zii786/pitchframe/internal/shared/storage/object"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

type Service struct {
	Store object.Store
	Repo  Repo
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Upload stores a pitch deck and records it. Only PDF, DOCX, PPTX and plain
// text are accepted; the sniffed type wins over the file extension unless the
// sniffer could only say "zip" or "octet-stream".
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (Document, error) {
	fileName = strings.TrimSpace(fileName)
	if userID == "" || fileName == "" {
		return Document{}, ErrInvalidInput
	}

	sniffed, body, err := object.Sniff(r)
	if err != nil {
		return Document{}, err
	}
	mimeType := extract.NormalizeMimeType(sniffed, fileName, nil)
	if !extract.Supported(mimeType, fileName) {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
	}

	obj, err := s.Store.Save(ctx, userID, fileName, body)
	if err != nil {
		return Document{}, fmt.Errorf("store upload: %w", err)
	}

	doc := Document{
		ID:              uuid.NewString(),
		UserID:          userID,
		FileName:        fileName,
		MimeType:        mimeType,
		SizeBytes:       obj.Size,
		StorageProvider: s.Store.Provider(),
		StorageKey:      obj.Key,
		CreatedAt:       s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("record document: %w", err)
	}
	telemetry.Info("document.uploaded", map[string]any{
		"document_id": doc.ID,
		"user_id":     userID,
		"mime_type":   mimeType,
		"size_bytes":  doc.SizeBytes,
	})
	return doc, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Document, error) {
	return s.Repo.Get(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Text returns the document's extracted text, extracting and caching it on
// first use.
func (s *Service) Text(ctx context.Context, doc Document) (string, error) {
	text, err := extract.FromStore(ctx, s.Store, doc.StorageKey, doc.MimeType, doc.FileName)
	if err != nil {
		return "", err
	}
	if doc.ExtractedTextKey == "" {
		if err := s.Repo.MarkExtracted(ctx, doc.ID, doc.StorageKey+extract.ExtractedSuffix, s.now()); err != nil {
			telemetry.Warn("document.mark_extracted_failed", map[string]any{"document_id": doc.ID, "error": err.Error()})
		}
	}
	return text, nil
}
