package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, file_name, mime_type, size_bytes, storage_provider, storage_key, extracted_text_key, extracted_at, created_at`

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO documents (id, user_id, file_name, mime_type, size_bytes, storage_provider, storage_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.UserID, doc.FileName, doc.MimeType, doc.SizeBytes, doc.StorageProvider, doc.StorageKey, doc.CreatedAt)
	return err
}

func (r *PGRepo) Get(ctx context.Context, userID, id string) (Document, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1 AND user_id = $2`, id, userID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents
WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *PGRepo) MarkExtracted(ctx context.Context, id, key string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
UPDATE documents SET extracted_text_key = $1, extracted_at = $2
WHERE id = $3 AND extracted_text_key IS NULL`, key, at, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (Document, error) {
	var (
		doc          Document
		extractedKey sql.NullString
		extractedAt  sql.NullTime
	)
	if err := s.Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.MimeType, &doc.SizeBytes,
		&doc.StorageProvider, &doc.StorageKey, &extractedKey, &extractedAt, &doc.CreatedAt); err != nil {
		return Document{}, err
	}
	doc.ExtractedTextKey = extractedKey.String
	if extractedAt.Valid {
		t := extractedAt.Time
		doc.ExtractedAt = &t
	}
	return doc, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

var _ Repo = (*PGRepo)(nil)
