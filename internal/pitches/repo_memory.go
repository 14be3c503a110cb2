package pitches

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zii786/pitchframe/internal/scoring"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	pitches  map[string]Pitch
	analyses map[string]scoring.Analysis
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		pitches:  make(map[string]Pitch),
		analyses: make(map[string]scoring.Analysis),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, p Pitch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pitches[p.ID] = p
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Pitch, error) {
	if err := ctx.Err(); err != nil {
		return Pitch{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pitches[id]
	if !ok {
		return Pitch{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Pitch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Pitch
	for _, p := range r.pitches {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []Pitch{}, nil
	}
	out = out[max(offset, 0):]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) Transition(ctx context.Context, id string, from, to Status, upd Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !from.CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pitches[id]
	if !ok {
		return ErrNotFound
	}
	if p.Status != from {
		return ErrInvalidTransition
	}
	applyTransition(&p, to, upd)
	r.pitches[id] = p
	return nil
}

func (r *MemoryRepo) Complete(ctx context.Context, id string, a scoring.Analysis, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pitches[id]
	if !ok {
		return ErrNotFound
	}
	if p.Status != StatusProcessing {
		return ErrInvalidTransition
	}
	applyTransition(&p, StatusCompleted, Update{At: at})
	p.AnalysisID = a.ID
	p.Strategy = string(a.Strategy)
	r.pitches[id] = p
	r.analyses[a.ID] = a
	return nil
}

func (r *MemoryRepo) GetAnalysis(ctx context.Context, id string) (scoring.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return scoring.Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyses[id]
	if !ok {
		return scoring.Analysis{}, ErrAnalysisNotFound
	}
	return a, nil
}

func (r *MemoryRepo) LatestAnalysis(ctx context.Context, pitchID string) (scoring.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return scoring.Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		latest scoring.Analysis
		found  bool
	)
	for _, a := range r.analyses {
		if a.PitchID == pitchID && (!found || a.Timestamp.After(latest.Timestamp)) {
			latest, found = a, true
		}
	}
	if !found {
		return scoring.Analysis{}, ErrAnalysisNotFound
	}
	return latest, nil
}

// applyTransition mirrors the timestamp rules of the Postgres update.
func applyTransition(p *Pitch, to Status, upd Update) {
	at := upd.At
	p.Status = to
	p.UpdatedAt = at
	switch to {
	case StatusProcessing:
		p.StartedAt = &at
	case StatusCompleted, StatusError:
		p.CompletedAt = &at
	}
	if upd.ErrorCode != "" {
		p.ErrorCode = upd.ErrorCode
	}
	if upd.ErrorMessage != "" {
		p.ErrorMessage = upd.ErrorMessage
	}
}

var _ Repo = (*MemoryRepo)(nil)
