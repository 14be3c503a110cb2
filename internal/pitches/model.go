package pitches

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("pitch not found")
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrInvalidInput     = errors.New("invalid pitch submission")
	ErrNotCompleted     = errors.New("pitch analysis not completed")
	ErrNotTerminal      = errors.New("pitch is still being processed")
	ErrEnqueue          = errors.New("pitch could not be queued")
)

// Source says where a pitch's text comes from.
type Source string

const (
	SourceText     Source = "text"
	SourceDocument Source = "document"
)

// Pitch is one submission of pitch content for analysis.
type Pitch struct {
	ID           string
	UserID       string
	Title        string
	Source       Source
	Text         string
	DocumentID   string
	Status       Status
	ErrorCode    string
	ErrorMessage string
	AnalysisID   string
	Strategy     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// Update carries the fields written alongside a status transition.
type Update struct {
	At           time.Time
	ErrorCode    string
	ErrorMessage string
}

type Response struct {
	PitchID      string     `json:"pitchId"`
	Title        string     `json:"title"`
	Source       Source     `json:"source"`
	DocumentID   string     `json:"documentId,omitempty"`
	Status       Status     `json:"status"`
	ErrorCode    string     `json:"errorCode,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	AnalysisID   string     `json:"analysisId,omitempty"`
	Strategy     string     `json:"strategy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

func (p Pitch) Response() Response {
	return Response{
		PitchID:      p.ID,
		Title:        p.Title,
		Source:       p.Source,
		DocumentID:   p.DocumentID,
		Status:       p.Status,
		ErrorCode:    p.ErrorCode,
		ErrorMessage: p.ErrorMessage,
		AnalysisID:   p.AnalysisID,
		Strategy:     p.Strategy,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		StartedAt:    p.StartedAt,
		CompletedAt:  p.CompletedAt,
	}
}
