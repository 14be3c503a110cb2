package pitches

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zii786/pitchframe/internal/documents"
	"github.com/zii786/pitchframe/internal/engine"
	"github.com/zii786/pitchframe/internal/report"
	"github.com/zii786/pitchframe/internal/scoring"
	"github.com/zii786/pitchframe/internal/shared/server/middleware"
	"github.com/zii786/pitchframe/internal/shared/server/respond"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	Svc  *Service
	poll *pollLimiter
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, poll: newPollLimiter(pollWindow, nil)}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.POST("/pitches", h.submit)
	rg.GET("/pitches", h.list)
	rg.GET("/pitches/:id", h.get)
	rg.POST("/pitches/:id/reanalyze", h.reanalyze)
	rg.GET("/pitches/:id/analysis", h.pitchAnalysis)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.GET("/analyses/:id/report", h.report)
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type submitRequest struct {
	Title      string `json:"title" binding:"max=200"`
	Text       string `json:"text"`
	DocumentID string `json:"documentId" binding:"omitempty,max=64"`
}

type submitResponse struct {
	PitchID string `json:"pitchId"`
	Status  Status `json:"status"`
}

func requestContext(c *gin.Context) context.Context {
	return WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

func (h *Handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidRequest, "invalid JSON body", nil)
		return
	}
	a, err := h.Svc.AnalyzeText(requestContext(c), middleware.UserIDFromContext(c), req.Text)
	if err != nil {
		writeServiceError(c, err, "analysis failed")
		return
	}
	c.Set(middleware.AnalysisIDKey, a.ID)
	respond.OK(c, a)
}

func (h *Handler) submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, respond.CodeTooLarge, "request body exceeds 1MB", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidRequest, "invalid request body", err.Error())
		return
	}

	p, err := h.Svc.Submit(requestContext(c), SubmitInput{
		UserID:     middleware.UserIDFromContext(c),
		Title:      req.Title,
		Text:       req.Text,
		DocumentID: req.DocumentID,
	})
	if err != nil {
		writeServiceError(c, err, "failed to submit pitch")
		return
	}
	c.Set(middleware.PitchIDKey, p.ID)
	c.Set(middleware.DocumentIDKey, p.DocumentID)
	c.Set(middleware.StatusTransitionKey, "none->pending")
	respond.Accepted(c, submitResponse{PitchID: p.ID, Status: p.Status})
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := documents.PageParams(c, 20, 50)
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to list pitches", nil)
		return
	}
	out := make([]Response, 0, len(items))
	for _, p := range items {
		out = append(out, p.Response())
	}
	respond.OK(c, gin.H{"items": out, "limit": limit, "offset": offset})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	userID := middleware.UserIDFromContext(c)
	c.Set(middleware.PitchIDKey, id)
	if !h.poll.Allow(userID, id) {
		retry := h.poll.RetryAfterSeconds()
		c.Header("Retry-After", strconv.Itoa(retry))
		respond.Error(c, http.StatusTooManyRequests, respond.CodeRateLimited, "polling too frequently", gin.H{"retryAfterSeconds": retry})
		return
	}
	p, err := h.Svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		writeServiceError(c, err, "failed to fetch pitch")
		return
	}
	c.Set(middleware.AnalysisIDKey, p.AnalysisID)
	respond.OK(c, p.Response())
}

func (h *Handler) reanalyze(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.PitchIDKey, id)
	p, err := h.Svc.Reanalyze(requestContext(c), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeServiceError(c, err, "failed to reanalyze pitch")
		return
	}
	c.Set(middleware.StatusTransitionKey, "none->pending")
	respond.Accepted(c, submitResponse{PitchID: p.ID, Status: p.Status})
}

func (h *Handler) pitchAnalysis(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.PitchIDKey, id)
	a, p, err := h.Svc.LatestAnalysis(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if errors.Is(err, ErrNotCompleted) {
		respond.Error(c, http.StatusConflict, respond.CodeConflict, "analysis is not available yet", gin.H{
			"status":    p.Status,
			"errorCode": p.ErrorCode,
		})
		return
	}
	if err != nil {
		writeServiceError(c, err, "failed to fetch analysis")
		return
	}
	c.Set(middleware.AnalysisIDKey, a.ID)
	respond.OK(c, a)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.AnalysisIDKey, id)
	a, err := h.Svc.GetAnalysis(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeServiceError(c, err, "failed to fetch analysis")
		return
	}
	c.Set(middleware.PitchIDKey, a.PitchID)
	respond.OK(c, a)
}

func (h *Handler) report(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.AnalysisIDKey, id)
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidRequest, err.Error(), nil)
		return
	}
	body, err := h.Svc.Report(c.Request.Context(), middleware.UserIDFromContext(c), id, format)
	if err != nil {
		writeServiceError(c, err, "failed to render report")
		return
	}
	if download, _ := strconv.ParseBool(c.Query("download")); download {
		c.Header("Content-Disposition", `attachment; filename="pitch-analysis-`+id+format.Extension()+`"`)
	}
	c.Data(http.StatusOK, format.ContentType(), body)
}

func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case scoring.IsEmptyInput(err):
		respond.Error(c, http.StatusBadRequest, respond.CodeEmptyInput, err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidRequest, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "pitch not found", nil)
	case errors.Is(err, ErrAnalysisNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "analysis not found", nil)
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found", nil)
	case errors.Is(err, ErrNotTerminal):
		respond.Error(c, http.StatusConflict, respond.CodeConflict, err.Error(), nil)
	case errors.Is(err, ErrEnqueue):
		respond.Error(c, http.StatusServiceUnavailable, respond.CodeUnavailable, "pitch could not be queued, try again", nil)
	case report.IsRenderError(err):
		respond.Error(c, http.StatusInternalServerError, respond.CodeRenderError, err.Error(), nil)
	case errors.Is(err, engine.ErrInvalidConfig):
		respond.Error(c, http.StatusServiceUnavailable, respond.CodeUnavailable, "scoring is misconfigured", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, fallback, nil)
	}
}
