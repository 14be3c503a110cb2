package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zii786/pitchframe/internal/shared/auth"
	"github.com/zii786/pitchframe/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"
	isGuestKey     = "isGuest"

	guestPrefix = "guest:"
)

// Auth resolves the caller from a bearer JWT or an X-Guest-Id header.
// Requests without either are rejected, except the Google OAuth endpoints.
func Auth(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/v1/auth/google/") {
			c.Next()
			return
		}

		if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
			claims, ok := bearerClaims(header)
			if !ok {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, claims.Subject)
			setIfNotEmpty(c, userEmailKey, claims.Email)
			setIfNotEmpty(c, userNameKey, claims.Name)
			setIfNotEmpty(c, userPictureKey, claims.Picture)
			c.Set(isGuestKey, false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		c.Set(userIDKey, guestPrefix+guestID)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

func bearerClaims(header string) (auth.Claims, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return auth.Claims{}, false
	}
	claims, err := auth.VerifyJWT(token)
	if err != nil {
		return auth.Claims{}, false
	}
	return claims, true
}

func setIfNotEmpty(c *gin.Context, key, value string) {
	if value != "" {
		c.Set(key, value)
	}
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

// UserIDFromContext returns the caller ID set by Auth, "guest:<id>" for guests.
func UserIDFromContext(c *gin.Context) string { return contextString(c, userIDKey) }

// UserEmailFromContext returns the JWT email claim, if any.
func UserEmailFromContext(c *gin.Context) string { return contextString(c, userEmailKey) }

func UserNameFromContext(c *gin.Context) string { return contextString(c, userNameKey) }

func UserPictureFromContext(c *gin.Context) string { return contextString(c, userPictureKey) }

// IsGuest reports whether the caller authenticated with X-Guest-Id.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return false
	}
	v, ok := c.Get(isGuestKey)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
