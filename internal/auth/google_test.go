package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	sharedauth "github.com/zii786/pitchframe/internal/shared/auth"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
	"github.com/zii786/pitchframe/internal/users"
)

func newRouter(s *GoogleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	s.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestStartRequiresConfiguration(t *testing.T) {
	restore := telemetry.SetOutput(&bytes.Buffer{})
	defer restore()

	resp := get(newRouter(NewGoogleService("", "", "", "")), "/api/v1/auth/google/start")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestStartRedirectsWithState(t *testing.T) {
	s := NewGoogleService("client", "secret", "http://localhost/cb", "http://ui/login")
	resp := get(newRouter(s), "/api/v1/auth/google/start")
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.Code)
	}
	loc, err := url.Parse(resp.Header().Get("Location"))
	if err != nil || loc.Host != "accounts.google.com" {
		t.Fatalf("unexpected redirect %q", resp.Header().Get("Location"))
	}
	state := loc.Query().Get("state")
	if !s.states.consume(state) {
		t.Fatalf("state %q was not recorded", state)
	}
}

func TestCallbackIssuesToken(t *testing.T) {
	restore := telemetry.SetOutput(&bytes.Buffer{})
	defer restore()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer at" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"id":"123","email":"founder@example.com","name":"Founder"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer google.Close()

	s := NewGoogleService("client", "secret", "http://localhost/cb", "http://ui/login?next=%2F")
	s.oauthConfig.Endpoint.TokenURL = google.URL + "/token"
	s.userInfoURL = google.URL + "/userinfo"
	s.states.put("st", time.Minute)
	accounts := users.NewService(users.NewMemoryRepo())
	s.Users = accounts

	resp := get(newRouter(s), "/api/v1/auth/google/callback?state=st&code=abc")
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d %s", resp.Code, resp.Body.String())
	}
	loc, _ := url.Parse(resp.Header().Get("Location"))
	if loc.Host != "ui" || loc.Query().Get("next") != "/" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	claims, err := sharedauth.VerifyJWT(loc.Query().Get("token"))
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Subject != "google:123" || claims.Email != "founder@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if u, err := accounts.Get(context.Background(), "google:123"); err != nil || u.Name != "Founder" || u.LoginCount != 1 {
		t.Fatalf("login not recorded: %+v %v", u, err)
	}

	// States are single use.
	resp = get(newRouter(s), "/api/v1/auth/google/callback?state=st&code=abc")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected replayed state to fail, got %d", resp.Code)
	}
}

func TestStateStoreExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newStateStore(func() time.Time { return now })
	s.put("a", time.Minute)
	s.put("b", time.Minute)

	now = now.Add(2 * time.Minute)
	if s.consume("a") {
		t.Fatalf("expired state must be rejected")
	}
	s.put("c", time.Minute)
	if _, ok := s.items["b"]; ok {
		t.Fatalf("expired states should be swept on put")
	}
	if !s.consume("c") || s.consume("c") {
		t.Fatalf("fresh state should be accepted exactly once")
	}
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("https://app.example.com/auth?x=1", "tok")
	if err != nil || !strings.Contains(got, "token=tok") || !strings.Contains(got, "x=1") {
		t.Fatalf("appendToken = %q, %v", got, err)
	}
	if _, err := appendToken("", "tok"); err == nil {
		t.Fatalf("expected error for empty redirect")
	}
}
