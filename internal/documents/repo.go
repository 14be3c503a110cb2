package documents

import (
	"context"
	"time"
)

// Repo persists document metadata. Lookups are scoped to the owner.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	Get(ctx context.Context, userID, id string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	// MarkExtracted records the extracted text key the first time only.
	MarkExtracted(ctx context.Context, id, key string, at time.Time) error
}
