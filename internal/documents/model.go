package documents

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid document")
	ErrUnsupported  = errors.New("unsupported document type")
)

// Document is an uploaded pitch deck.
type Document struct {
	ID               string
	UserID           string
	FileName         string
	MimeType         string
	SizeBytes        int64
	StorageProvider  string
	StorageKey       string
	ExtractedTextKey string
	ExtractedAt      *time.Time
	CreatedAt        time.Time
}

// Response is the JSON shape returned by the API.
type Response struct {
	DocumentID  string     `json:"documentId"`
	FileName    string     `json:"fileName"`
	MimeType    string     `json:"mimeType"`
	SizeBytes   int64      `json:"sizeBytes"`
	UploadedAt  time.Time  `json:"uploadedAt"`
	ExtractedAt *time.Time `json:"extractedAt,omitempty"`
}

func (d Document) Response() Response {
	return Response{
		DocumentID:  d.ID,
		FileName:    d.FileName,
		MimeType:    d.MimeType,
		SizeBytes:   d.SizeBytes,
		UploadedAt:  d.CreatedAt,
		ExtractedAt: d.ExtractedAt,
	}
}
