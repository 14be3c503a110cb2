package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zii786/pitchframe/internal/shared/storage/object"
	"github.com/zii786/pitchframe/internal/shared/storage/object/local"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const docxBody = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Our team has deep expertise.</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Revenue </w:t></w:r><w:r><w:t>grows.</w:t></w:r></w:p>
</w:body></w:document>`

func slideXML(lines ...string) string {
	var b strings.Builder
	b.WriteString(`<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree>`)
	for _, l := range lines {
		b.WriteString(`<p:sp><p:txBody><a:p><a:r><a:t>` + l + `</a:t></a:r></a:p></p:txBody></p:sp>`)
	}
	b.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func TestFromBytesDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": docxBody})

	got, err := FromBytes(context.Background(), data, MimeDOCX, "deck.docx")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != "Our team has deep expertise.\nRevenue grows." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFromBytesPPTXOrdersSlidesNumerically(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/presentation.xml":            `<p:presentation xmlns:p="x"/>`,
		"ppt/slides/slide10.xml":          slideXML("Ask: 2 million"),
		"ppt/slides/slide2.xml":           slideXML("The problem", "Our solution"),
		"ppt/slides/slide1.xml":           slideXML("PitchCo"),
		"ppt/notesSlides/notesSlide1.xml": slideXML("speaker notes"),
	})

	got, err := FromBytes(context.Background(), data, "application/zip", "deck.pptx")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	want := "PitchCo\n\nThe problem\nOur solution\n\nAsk: 2 million"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFromBytesZipWithoutOfficePartIsUnsupported(t *testing.T) {
	data := buildZip(t, map[string]string{"notes.txt": "hello"})

	_, err := FromBytes(context.Background(), data, "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestFromBytesPlainText(t *testing.T) {
	got, err := FromBytes(context.Background(), []byte("\xef\xbb\xbfLine one\r\n\r\n\r\nLine two  \n"), "text/plain; charset=utf-8", "a.txt")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != "Line one\n\nLine two" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFromBytesEmptyTextFails(t *testing.T) {
	if _, err := FromBytes(context.Background(), []byte("   \n "), MimeText, "a.txt"); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestFromBytesBadPDF(t *testing.T) {
	if _, err := FromBytes(context.Background(), []byte("%PDF-1.4 garbage"), MimePDF, "a.pdf"); err == nil {
		t.Fatalf("expected error for malformed pdf")
	}
}

func TestNormalizeMimeTypeFallsBackToExtension(t *testing.T) {
	tests := map[string]string{
		"deck.pdf":  MimePDF,
		"deck.PPTX": MimePPTX,
		"deck.docx": MimeDOCX,
		"notes.txt": MimeText,
	}
	for name, want := range tests {
		if got := NormalizeMimeType("application/octet-stream", name, nil); got != want {
			t.Fatalf("NormalizeMimeType(%q) = %q, want %q", name, got, want)
		}
	}
	if !Supported("application/pdf", "x") || Supported("image/png", "x.png") {
		t.Fatalf("unexpected Supported result")
	}
}

func TestFromStoreCachesExtractedText(t *testing.T) {
	store := local.New(t.TempDir())
	ctx := context.Background()

	obj, err := store.Save(ctx, "user-1", "pitch.txt", strings.NewReader("We have a unique patent."))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := FromStore(ctx, store, obj.Key, obj.MimeType, "pitch.txt")
	if err != nil || got != "We have a unique patent." {
		t.Fatalf("FromStore = %q, %v", got, err)
	}

	cached, err := object.ReadAll(ctx, store, obj.Key+ExtractedSuffix)
	if err != nil || string(cached) != got {
		t.Fatalf("expected cached copy, got %q %v", cached, err)
	}

	if err := object.PutBytes(ctx, store, obj.Key+ExtractedSuffix, "text/plain", []byte("cached text")); err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	again, err := FromStore(ctx, store, obj.Key, obj.MimeType, "pitch.txt")
	if err != nil || again != "cached text" {
		t.Fatalf("expected cached text to be reused, got %q %v", again, err)
	}
}
