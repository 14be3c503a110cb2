package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zii786/pitchframe/internal/shared/server/middleware"
	"github.com/zii786/pitchframe/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me/profile", h.profile)
}

// profile returns the stored account of a signed-in user.
func (h *Handler) profile(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "login required", nil)
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "user not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to load user", nil)
		return
	}
	respond.OK(c, u)
}
