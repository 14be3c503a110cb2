package documents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zii786/pitchframe/internal/shared/server/middleware"
	"github.com/zii786/pitchframe/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, respond.CodeTooLarge, "file exceeds 10MB", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidRequest, "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidRequest, "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), middleware.UserIDFromContext(c), fileHeader.Filename, file)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupported):
		respond.Error(c, http.StatusUnsupportedMediaType, respond.CodeUnsupported, "upload a PDF, DOCX, PPTX or TXT file", nil)
		return
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidRequest, err.Error(), nil)
		return
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to store document", nil)
		return
	}

	c.Set(middleware.DocumentIDKey, doc.ID)
	respond.Created(c, doc.Response())
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.DocumentIDKey, id)
	doc, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to fetch document", nil)
		return
	}
	respond.OK(c, doc.Response())
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := PageParams(c, 20, 50)
	docs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to list documents", nil)
		return
	}
	out := make([]Response, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Response())
	}
	respond.OK(c, gin.H{"items": out, "limit": limit, "offset": offset})
}

// PageParams reads ?limit= and ?offset=, clamping limit to [1,max].
func PageParams(c *gin.Context, def, max int) (limit, offset int) {
	limit = def
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, max)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
