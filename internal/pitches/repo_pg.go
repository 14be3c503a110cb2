package pitches

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zii786/pitchframe/internal/scoring"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const pitchColumns = `id, user_id, title, source, text, document_id, status, error_code, error_message,
analysis_id, strategy, created_at, updated_at, started_at, completed_at`

func (r *PGRepo) Create(ctx context.Context, p Pitch) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO pitch_decks (id, user_id, title, source, text, document_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.Title, string(p.Source), p.Text, nullString(p.DocumentID), string(p.Status), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PGRepo) Get(ctx context.Context, id string) (Pitch, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+pitchColumns+` FROM pitch_decks WHERE id = $1`, id)
	p, err := scanPitch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Pitch{}, ErrNotFound
	}
	return p, err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Pitch, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+pitchColumns+` FROM pitch_decks
WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Pitch{}
	for rows.Next() {
		p, err := scanPitch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Transition updates the status only while it still equals from.
func (r *PGRepo) Transition(ctx context.Context, id string, from, to Status, upd Update) error {
	if !from.CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	const query = `
UPDATE pitch_decks
SET status = $1::text,
    updated_at = $2,
    started_at = CASE WHEN $1::text = 'processing' THEN $2 ELSE started_at END,
    completed_at = CASE WHEN $1::text IN ('completed', 'error') THEN $2 ELSE completed_at END,
    error_code = COALESCE(NULLIF($3::text, ''), error_code),
    error_message = COALESCE(NULLIF($4::text, ''), error_message)
WHERE id = $5 AND status = $6`

	res, err := r.DB.ExecContext(ctx, query, string(to), upd.At, upd.ErrorCode, upd.ErrorMessage, id, string(from))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missOrConflict(ctx, r.DB, id)
	}
	return nil
}

func (r *PGRepo) Complete(ctx context.Context, id string, a scoring.Analysis, at time.Time) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE pitch_decks
SET status = 'completed', analysis_id = $1, strategy = $2, updated_at = $3, completed_at = $3
WHERE id = $4 AND status = 'processing'`, a.ID, string(a.Strategy), at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missOrConflict(ctx, tx, id)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO analysis_results (id, pitch_id, user_id, strategy, overall_score, fallback_reason, result, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)`,
		a.ID, id, a.UserID, string(a.Strategy), a.OverallScore, nullString(a.FallbackReason), payload, a.Timestamp); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepo) GetAnalysis(ctx context.Context, id string) (scoring.Analysis, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT result FROM analysis_results WHERE id = $1`, id)
	return scanAnalysis(row)
}

func (r *PGRepo) LatestAnalysis(ctx context.Context, pitchID string) (scoring.Analysis, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT result FROM analysis_results
WHERE pitch_id = $1 ORDER BY created_at DESC LIMIT 1`, pitchID)
	return scanAnalysis(row)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// missOrConflict explains a CAS update that touched no rows.
func (r *PGRepo) missOrConflict(ctx context.Context, q queryer, id string) error {
	var status string
	err := q.QueryRowContext(ctx, `SELECT status FROM pitch_decks WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: pitch is %s", ErrInvalidTransition, status)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPitch(s scanner) (Pitch, error) {
	var (
		p                                   Pitch
		source, status                      string
		documentID, errorCode, errorMessage sql.NullString
		analysisID, strategy                sql.NullString
		startedAt, completedAt              sql.NullTime
	)
	if err := s.Scan(&p.ID, &p.UserID, &p.Title, &source, &p.Text, &documentID, &status, &errorCode, &errorMessage,
		&analysisID, &strategy, &p.CreatedAt, &p.UpdatedAt, &startedAt, &completedAt); err != nil {
		return Pitch{}, err
	}
	p.Source = Source(source)
	p.Status = Status(status)
	p.DocumentID = documentID.String
	p.ErrorCode = errorCode.String
	p.ErrorMessage = errorMessage.String
	p.AnalysisID = analysisID.String
	p.Strategy = strategy.String
	if startedAt.Valid {
		t := startedAt.Time
		p.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return p, nil
}

func scanAnalysis(row *sql.Row) (scoring.Analysis, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scoring.Analysis{}, ErrAnalysisNotFound
		}
		return scoring.Analysis{}, err
	}
	var a scoring.Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return scoring.Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
