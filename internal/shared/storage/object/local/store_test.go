package local

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zii786/pitchframe/internal/shared/storage/object"
)

func TestSaveAndOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	obj, err := store.Save(ctx, "guest:abc", "deck.txt", strings.NewReader("We solve a real problem."))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.Size != int64(len("We solve a real problem.")) {
		t.Fatalf("unexpected size %d", obj.Size)
	}
	if !strings.HasPrefix(obj.MimeType, "text/plain") {
		t.Fatalf("unexpected mime %q", obj.MimeType)
	}
	if !strings.HasSuffix(obj.Key, "_deck.txt") {
		t.Fatalf("unexpected key %q", obj.Key)
	}

	data, err := object.ReadAll(ctx, store, obj.Key)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "We solve a real problem." {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestPutOverwrites(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if err := object.PutBytes(ctx, store, "reports/a.html", "text/html", []byte("one")); err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	if err := object.PutBytes(ctx, store, "reports/a.html", "text/html", []byte("two")); err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	data, err := object.ReadAll(ctx, store, "reports/a.html")
	if err != nil || string(data) != "two" {
		t.Fatalf("expected overwrite, got %q %v", data, err)
	}
}

func TestOpenErrors(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, err := store.Open(ctx, "missing/file"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, key := range []string{"../escape", "/abs/path", ""} {
		if _, err := store.Open(ctx, key); !errors.Is(err, object.ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}
