package pitches

import (
	"context"
	"time"

	"github.com/zii786/pitchframe/internal/scoring"
)

// Repo persists pitches and their analyses. Status changes are
// compare-and-swap: they apply only while the stored status equals from.
type Repo interface {
	Create(ctx context.Context, p Pitch) error
	Get(ctx context.Context, id string) (Pitch, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Pitch, error)
	Transition(ctx context.Context, id string, from, to Status, upd Update) error
	// Complete stores the analysis and moves the pitch from processing to
	// completed as one unit.
	Complete(ctx context.Context, id string, a scoring.Analysis, at time.Time) error
	GetAnalysis(ctx context.Context, id string) (scoring.Analysis, error)
	LatestAnalysis(ctx context.Context, pitchID string) (scoring.Analysis, error)
}
