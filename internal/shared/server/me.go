package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zii786/pitchframe/internal/shared/server/middleware"
	"github.com/zii786/pitchframe/internal/shared/server/respond"
)

func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "missing or invalid token", nil)
		return
	}

	out := gin.H{"userId": userID, "isGuest": middleware.IsGuest(c)}
	for key, value := range map[string]string{
		"email":   middleware.UserEmailFromContext(c),
		"name":    middleware.UserNameFromContext(c),
		"picture": middleware.UserPictureFromContext(c),
	} {
		if value != "" {
			out[key] = value
		}
	}
	respond.OK(c, out)
}
