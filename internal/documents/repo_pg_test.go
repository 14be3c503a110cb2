package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	doc := Document{
		ID: "doc-1", UserID: "user-1", FileName: "deck.pdf", MimeType: "application/pdf",
		SizeBytes: 42, StorageProvider: "local", StorageKey: "abc/deck.pdf", CreatedAt: time.Now().UTC(),
	}
	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.UserID, doc.FileName, doc.MimeType, doc.SizeBytes, doc.StorageProvider, doc.StorageKey, doc.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	cols := []string{"id", "user_id", "file_name", "mime_type", "size_bytes", "storage_provider", "storage_key", "extracted_text_key", "extracted_at", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1 AND user_id = \\$2").
		WithArgs("doc-1", "user-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("doc-1", "user-1", "deck.pdf", "application/pdf", int64(42), "s3", "k", nil, nil, created))
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("missing", "user-1").
		WillReturnRows(sqlmock.NewRows(cols))

	doc, err := repo.Get(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.StorageProvider != "s3" || doc.ExtractedAt != nil || !doc.CreatedAt.Equal(created) {
		t.Fatalf("unexpected doc %+v", doc)
	}
	if _, err := repo.Get(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkExtractedOnlyOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE documents SET extracted_text_key = \\$1, extracted_at = \\$2\\s+WHERE id = \\$3 AND extracted_text_key IS NULL").
		WithArgs("k.extracted.txt", at, "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := (&PGRepo{DB: db}).MarkExtracted(context.Background(), "doc-1", "k.extracted.txt", at); err != nil {
		t.Fatalf("MarkExtracted: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_ = repo.Create(ctx, Document{ID: id, UserID: "u", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	_ = repo.Create(ctx, Document{ID: "other", UserID: "v", CreatedAt: base})

	docs, err := repo.ListByUser(ctx, "u", 2, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "c" || docs[1].ID != "b" {
		t.Fatalf("unexpected order %+v", docs)
	}
	docs, _ = repo.ListByUser(ctx, "u", 2, 2)
	if len(docs) != 1 || docs[0].ID != "a" {
		t.Fatalf("unexpected second page %+v", docs)
	}
}
