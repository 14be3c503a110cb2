// Package pitches owns pitch submissions: intake, status tracking, the
// processing pipeline that turns a pending pitch into a stored Analysis, and
// report retrieval.
package pitches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/zii786/pitchframe/internal/documents"
	"github.com/zii786/pitchframe/internal/events"
	"github.com/zii786/pitchframe/internal/queue"
	"github.com/zii786/pitchframe/internal/report"
	"github.com/zii786/pitchframe/internal/scoring"
	"github.com/zii786/pitchframe/internal/shared/metrics"
	"github.com/zii786/pitchframe/internal/shared/storage/object"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

const (
	defaultTitle  = "Untitled pitch"
	maxTitleChars = 200
	// MaxTextBytes bounds directly submitted pitch text.
	MaxTextBytes = 200 << 10
)

// Analyzer runs the scoring pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, text string, cfg scoring.ScoringConfig) (scoring.Analysis, error)
}

type Service struct {
	Repo      Repo
	Documents *documents.Service
	Engine    Analyzer
	Scoring   scoring.ScoringConfig

	// Queue hands pitches to the worker. Without one, pitches are processed
	// in-process in a goroutine.
	Queue queue.Sender

	// Inline makes queue-less processing finish before Submit returns.
	Inline bool

	Events  events.Publisher
	Reports object.Store
	Now     func() time.Time
	NewID   func() string

	inflight sync.WaitGroup
}

type SubmitInput struct {
	UserID     string
	Title      string
	Text       string
	DocumentID string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) events() events.Publisher {
	if s.Events == nil {
		return events.Nop{}
	}
	return s.Events
}

// Submit records a pending pitch and dispatches it for processing.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Pitch, error) {
	if in.UserID == "" {
		return Pitch{}, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	in.DocumentID = strings.TrimSpace(in.DocumentID)
	switch {
	case in.DocumentID != "" && strings.TrimSpace(in.Text) != "":
		return Pitch{}, fmt.Errorf("%w: provide either text or documentId", ErrInvalidInput)
	case in.DocumentID == "" && strings.TrimSpace(in.Text) == "":
		return Pitch{}, &scoring.EmptyInputError{}
	case len(in.Text) > MaxTextBytes:
		return Pitch{}, fmt.Errorf("%w: text exceeds %d bytes", ErrInvalidInput, MaxTextBytes)
	}

	now := s.now()
	p := Pitch{
		ID:        s.newID(),
		UserID:    in.UserID,
		Title:     cleanTitle(in.Title),
		Source:    SourceText,
		Text:      in.Text,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.DocumentID != "" {
		if s.Documents == nil {
			return Pitch{}, fmt.Errorf("%w: document uploads are not enabled", ErrInvalidInput)
		}
		if _, err := s.Documents.Get(ctx, in.UserID, in.DocumentID); err != nil {
			return Pitch{}, err
		}
		p.Source = SourceDocument
		p.DocumentID = in.DocumentID
	}
	return s.create(ctx, p)
}

// Reanalyze submits a new pitch with the same source as a finished one.
// Stored analyses are never recomputed in place.
func (s *Service) Reanalyze(ctx context.Context, userID, pitchID string) (Pitch, error) {
	prev, err := s.Get(ctx, userID, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if !prev.Status.Terminal() {
		return Pitch{}, ErrNotTerminal
	}
	now := s.now()
	return s.create(ctx, Pitch{
		ID:         s.newID(),
		UserID:     prev.UserID,
		Title:      prev.Title,
		Source:     prev.Source,
		Text:       prev.Text,
		DocumentID: prev.DocumentID,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (s *Service) create(ctx context.Context, p Pitch) (Pitch, error) {
	if err := s.Repo.Create(ctx, p); err != nil {
		return Pitch{}, fmt.Errorf("record pitch: %w", err)
	}
	telemetry.Info("pitch.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"user_id":           p.UserID,
		"pitch_id":          p.ID,
		"document_id":       p.DocumentID,
		"source":            string(p.Source),
		"status":            string(StatusPending),
		"status_transition": "none->pending",
	})
	s.publish(ctx, p, "", StatusPending, nil)

	if err := s.dispatch(ctx, p); err != nil {
		s.fail(ctx, p, StatusPending, fmt.Errorf("%w: %w", ErrEnqueue, err), nil)
		return Pitch{}, fmt.Errorf("%w: %w", ErrEnqueue, err)
	}
	return p, nil
}

func (s *Service) dispatch(ctx context.Context, p Pitch) error {
	if s.Queue != nil {
		return s.Queue.Send(ctx, queue.NewMessage(p.ID, RequestIDFromContext(ctx), s.now()))
	}
	if s.Inline {
		if err := s.ProcessPitch(detached(ctx), p.ID); err != nil {
			telemetry.Error("pitch.process_failed", map[string]any{"pitch_id": p.ID, "error": err.Error()})
		}
		return nil
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.ProcessPitch(detached(ctx), p.ID); err != nil {
			telemetry.Error("pitch.process_failed", map[string]any{"pitch_id": p.ID, "error": err.Error()})
		}
	}()
	return nil
}

// Wait blocks until in-process pitch processing started by Submit finishes.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// ProcessPitch runs the pipeline for one pending pitch. Pitches that are not
// pending are skipped, so redelivered jobs are harmless. Pipeline failures are
// recorded on the pitch; the returned error is non-nil only when the pitch
// could not be loaded or its failure could not be recorded.
func (s *Service) ProcessPitch(ctx context.Context, pitchID string) (err error) {
	p, err := s.Repo.Get(ctx, pitchID)
	if err != nil {
		return fmt.Errorf("load pitch %s: %w", pitchID, err)
	}
	if p.Status != StatusPending {
		telemetry.Info("pitch.skip", map[string]any{
			"request_id": RequestIDFromContext(ctx),
			"pitch_id":   p.ID,
			"status":     string(p.Status),
		})
		return nil
	}

	startedAt := s.now()
	if err := s.Repo.Transition(ctx, p.ID, StatusPending, StatusProcessing, Update{At: startedAt}); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil
		}
		return fmt.Errorf("mark processing: %w", err)
	}
	metrics.IncAnalysisStarted()
	s.logTransition(ctx, p, StatusPending, StatusProcessing, nil)
	s.publish(ctx, p, StatusPending, StatusProcessing, nil)

	defer func() {
		if r := recover(); r != nil {
			err = s.fail(ctx, p, StatusProcessing, fmt.Errorf("panic: %v", r), &startedAt)
		}
	}()

	text, err := s.pitchText(ctx, p)
	if err != nil {
		return s.fail(ctx, p, StatusProcessing, err, &startedAt)
	}
	a, err := s.Engine.Analyze(ctx, text, s.Scoring)
	if err != nil {
		return s.fail(ctx, p, StatusProcessing, err, &startedAt)
	}
	a.PitchID = p.ID
	a.UserID = p.UserID

	completedAt := s.now()
	// A scored pitch is saved even if the caller gave up meanwhile.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := s.Repo.Complete(saveCtx, p.ID, a, completedAt); err != nil {
		return s.fail(ctx, p, StatusProcessing, fmt.Errorf("%w: save analysis: %w", errStorage, err), &startedAt)
	}
	metrics.IncAnalysisCompleted(string(a.Strategy), a.OverallScore)
	metrics.ObserveAnalysisDurationMs(durationMs(startedAt, completedAt))
	s.logTransition(ctx, p, StatusProcessing, StatusCompleted, map[string]any{
		"analysis_id":     a.ID,
		"strategy":        string(a.Strategy),
		"overall_score":   a.OverallScore,
		"fallback_reason": a.FallbackReason,
		"duration_ms":     durationMs(startedAt, completedAt),
	})
	s.publish(saveCtx, p, StatusProcessing, StatusCompleted, &a)

	s.storeReport(saveCtx, a)
	return nil
}

const saveTimeout = 30 * time.Second

// fail moves the pitch to StatusError with a classified code.
func (s *Service) fail(ctx context.Context, p Pitch, from Status, cause error, startedAt *time.Time) error {
	code := classifyFailure(cause)
	msg := sanitizeError(cause)
	at := s.now()
	// The pitch must be marked even when the request context is gone.
	if err := s.Repo.Transition(context.WithoutCancel(ctx), p.ID, from, StatusError, Update{
		At:           at,
		ErrorCode:    code,
		ErrorMessage: msg,
	}); err != nil {
		telemetry.Error("pitch.fail_update_failed", map[string]any{
			"pitch_id": p.ID,
			"error":    err.Error(),
			"cause":    msg,
		})
		return fmt.Errorf("record failure for pitch %s: %w", p.ID, err)
	}

	metrics.IncAnalysisFailed(code)
	fields := map[string]any{"error_code": code, "error": msg}
	if startedAt != nil {
		fields["duration_ms"] = durationMs(*startedAt, at)
		metrics.ObserveAnalysisDurationMs(durationMs(*startedAt, at))
	}
	s.logTransition(ctx, p, from, StatusError, fields)
	p.ErrorCode = code
	s.publish(ctx, p, from, StatusError, nil)
	return nil
}

func (s *Service) pitchText(ctx context.Context, p Pitch) (string, error) {
	if p.Source != SourceDocument {
		return p.Text, nil
	}
	if s.Documents == nil {
		return "", fmt.Errorf("%w: no document service configured", errStorage)
	}
	doc, err := s.Documents.Get(ctx, p.UserID, p.DocumentID)
	if err != nil {
		return "", fmt.Errorf("%w: load document %s: %w", errStorage, p.DocumentID, err)
	}
	text, err := s.Documents.Text(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errExtraction, err)
	}
	return text, nil
}

// storeReport keeps a rendered copy of the report next to the documents.
// Failures are logged only; reports can always be re-rendered.
func (s *Service) storeReport(ctx context.Context, a scoring.Analysis) {
	if s.Reports == nil {
		return
	}
	html, err := report.Render(a)
	if err != nil {
		telemetry.Warn("report.render_failed", map[string]any{"analysis_id": a.ID, "error": err.Error()})
		return
	}
	if err := object.PutBytes(ctx, s.Reports, reportKey(a.ID), report.ContentTypeHTML, html); err != nil {
		telemetry.Warn("report.store_failed", map[string]any{"analysis_id": a.ID, "error": err.Error()})
	}
}

func reportKey(analysisID string) string {
	return "reports/" + analysisID + ".html"
}

func (s *Service) logTransition(ctx context.Context, p Pitch, from, to Status, extra map[string]any) {
	fields := map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"user_id":           p.UserID,
		"pitch_id":          p.ID,
		"document_id":       p.DocumentID,
		"status":            string(to),
		"status_transition": transitionLabel(from, to),
	}
	for k, v := range extra {
		fields[k] = v
	}
	if to == StatusError {
		telemetry.Warn("pitch.status", fields)
		return
	}
	telemetry.Info("pitch.status", fields)
}

func (s *Service) publish(ctx context.Context, p Pitch, from, to Status, a *scoring.Analysis) {
	ev := events.StatusChanged{
		PitchID:    p.ID,
		UserID:     p.UserID,
		From:       string(from),
		To:         string(to),
		ErrorCode:  p.ErrorCode,
		RequestID:  RequestIDFromContext(ctx),
		OccurredAt: s.now(),
	}
	if a != nil {
		ev.AnalysisID = a.ID
		ev.OverallScore = a.OverallScore
		ev.Strategy = string(a.Strategy)
	}
	if err := s.events().PublishStatus(context.WithoutCancel(ctx), ev); err != nil {
		telemetry.Warn("pitch.event_failed", map[string]any{"pitch_id": p.ID, "to": string(to), "error": err.Error()})
	}
}

// AnalyzeText scores text synchronously without recording a pitch.
func (s *Service) AnalyzeText(ctx context.Context, userID, text string) (scoring.Analysis, error) {
	started := s.now()
	a, err := s.Engine.Analyze(ctx, text, s.Scoring)
	if err != nil {
		return scoring.Analysis{}, err
	}
	a.UserID = userID
	metrics.IncAnalysisCompleted(string(a.Strategy), a.OverallScore)
	telemetry.Info("analysis.adhoc", map[string]any{
		"request_id":    RequestIDFromContext(ctx),
		"user_id":       userID,
		"analysis_id":   a.ID,
		"strategy":      string(a.Strategy),
		"overall_score": a.OverallScore,
		"duration_ms":   durationMs(started, s.now()),
	})
	return a, nil
}

// Get returns the user's pitch. Other users' pitches are reported as missing.
func (s *Service) Get(ctx context.Context, userID, pitchID string) (Pitch, error) {
	p, err := s.Repo.Get(ctx, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if p.UserID != userID {
		return Pitch{}, ErrNotFound
	}
	return p, nil
}

// List returns the user's pitches, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Pitch, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) GetAnalysis(ctx context.Context, userID, analysisID string) (scoring.Analysis, error) {
	a, err := s.Repo.GetAnalysis(ctx, analysisID)
	if err != nil {
		return scoring.Analysis{}, err
	}
	if a.UserID != userID {
		return scoring.Analysis{}, ErrAnalysisNotFound
	}
	return a, nil
}

// LatestAnalysis returns the analysis of a completed pitch.
func (s *Service) LatestAnalysis(ctx context.Context, userID, pitchID string) (scoring.Analysis, Pitch, error) {
	p, err := s.Get(ctx, userID, pitchID)
	if err != nil {
		return scoring.Analysis{}, Pitch{}, err
	}
	if p.Status != StatusCompleted {
		return scoring.Analysis{}, p, ErrNotCompleted
	}
	a, err := s.Repo.LatestAnalysis(ctx, p.ID)
	return a, p, err
}

// Report renders an analysis as HTML or plain text. HTML comes from the
// stored copy when one exists.
func (s *Service) Report(ctx context.Context, userID, analysisID string, format report.Format) ([]byte, error) {
	a, err := s.GetAnalysis(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}
	if format == report.FormatHTML && s.Reports != nil {
		if html, err := object.ReadAll(ctx, s.Reports, reportKey(a.ID)); err == nil && len(html) > 0 {
			return html, nil
		}
	}
	return report.RenderFormat(a, format)
}

func cleanTitle(raw string) string {
	title := strings.Join(strings.Fields(raw), " ")
	if title == "" {
		return defaultTitle
	}
	if utf8.RuneCountInString(title) > maxTitleChars {
		title = string([]rune(title)[:maxTitleChars])
	}
	return title
}

func durationMs(start, end time.Time) float64 {
	return float64(end.Sub(start).Microseconds()) / 1000.0
}
