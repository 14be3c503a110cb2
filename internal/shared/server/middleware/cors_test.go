package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.POST("/api/v1/analyze", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/api/v1/analyze", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	return r
}

func TestCORS(t *testing.T) {
	cases := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"preflight short-circuits", []string{"http://localhost:5173"}, http.MethodOptions, "http://localhost:5173", http.StatusNoContent, "http://localhost:5173"},
		{"allowed post", []string{" http://localhost:5173 "}, http.MethodPost, "http://localhost:5173", http.StatusOK, "http://localhost:5173"},
		{"unknown origin gets no headers", []string{"http://localhost:5173"}, http.MethodPost, "http://evil.test", http.StatusOK, ""},
		{"wildcard echoes origin", []string{"*"}, http.MethodPost, "http://any.test", http.StatusOK, "http://any.test"},
		{"no origin header", []string{"*"}, http.MethodPost, "", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/v1/analyze", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			resp := httptest.NewRecorder()
			corsRouter(tc.allowed...).ServeHTTP(resp, req)

			if resp.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.Code, tc.wantStatus)
			}
			h := resp.Header()
			if got := h.Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("Allow-Origin = %q, want %q", got, tc.wantOrigin)
			}
			if tc.wantOrigin == "" {
				return
			}
			if h.Get("Access-Control-Allow-Headers") != corsAllowHeaders || h.Get("Access-Control-Max-Age") != corsMaxAge {
				t.Fatalf("missing preflight headers: %v", h)
			}
		})
	}
}
