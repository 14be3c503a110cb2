// Package auth implements Google sign-in. A successful login is exchanged
// for a PitchFrame JWT and handed back to the UI as a query parameter.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "github.com/zii786/pitchframe/internal/shared/auth"
	"github.com/zii786/pitchframe/internal/shared/server/respond"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
	"github.com/zii786/pitchframe/internal/users"
)

const (
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultStateTTL    = 5 * time.Minute
)

var googleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// LoginRecorder persists the profile of a user who just signed in.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, u users.User) (users.User, error)
}

type GoogleService struct {
	// Users is optional; a failed write is logged and the login proceeds.
	Users LoginRecorder

	oauthConfig *oauth2.Config
	uiRedirect  string
	userInfoURL string
	stateTTL    time.Duration
	states      *stateStore
}

func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string) *GoogleService {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       googleScopes,
		Endpoint:     google.Endpoint,
	}
	return &GoogleService{
		oauthConfig: cfg,
		uiRedirect:  uiRedirect,
		userInfoURL: defaultUserInfoURL,
		stateTTL:    defaultStateTTL,
		states:      newStateStore(time.Now),
	}
}

// Configured reports whether every OAuth setting needed for a round trip is present.
func (s *GoogleService) Configured() bool {
	for _, v := range []string{s.oauthConfig.ClientID, s.oauthConfig.ClientSecret, s.oauthConfig.RedirectURL, s.uiRedirect} {
		if v == "" {
			return false
		}
	}
	return true
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/auth/google")
	g.GET("/start", s.start)
	g.GET("/callback", s.callback)
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.Configured() {
		respond.Error(c, http.StatusServiceUnavailable, respond.CodeUnavailable, "Google sign-in is not configured", nil)
		return
	}
	state := uuid.NewString()
	s.states.put(state, s.stateTTL)
	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// loginError carries the HTTP response for a failed callback step.
type loginError struct {
	status  int
	code    string
	message string
}

func (e *loginError) Error() string { return e.message }

func (s *GoogleService) callback(c *gin.Context) {
	target, err := s.completeLogin(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		var le *loginError
		if !errors.As(err, &le) {
			le = &loginError{http.StatusInternalServerError, respond.CodeInternal, "login failed"}
		}
		respond.Error(c, le.status, le.code, le.message, nil)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// completeLogin validates the state, exchanges the code and returns the UI
// URL carrying a signed session token.
func (s *GoogleService) completeLogin(ctx context.Context, state, code string) (string, error) {
	switch {
	case state == "" || code == "":
		return "", &loginError{http.StatusBadRequest, respond.CodeInvalidRequest, "missing state or code"}
	case !s.states.consume(state):
		return "", &loginError{http.StatusBadRequest, respond.CodeInvalidRequest, "invalid or expired state"}
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		telemetry.Warn("auth.google.exchange_failed", map[string]any{"error": err.Error()})
		return "", &loginError{http.StatusBadRequest, respond.CodeInvalidRequest, "failed to exchange code"}
	}
	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		telemetry.Warn("auth.google.userinfo_failed", map[string]any{"error": err.Error()})
		return "", &loginError{http.StatusBadGateway, respond.CodeUnavailable, "failed to fetch user profile"}
	}

	userID := "google:" + profile.Sub
	s.recordLogin(ctx, users.User{ID: userID, Email: profile.Email, Name: profile.Name, PictureURL: profile.Picture})

	signed, err := sharedauth.SignJWT(sharedauth.Claims{
		Email:            profile.Email,
		Name:             profile.Name,
		Picture:          profile.Picture,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	})
	if err != nil {
		return "", &loginError{http.StatusInternalServerError, respond.CodeInternal, "failed to issue token"}
	}
	target, err := appendToken(s.uiRedirect, signed)
	if err != nil {
		return "", &loginError{http.StatusInternalServerError, respond.CodeInternal, "failed to redirect"}
	}
	telemetry.Info("auth.google.login", map[string]any{"user_id": userID})
	return target, nil
}

func (s *GoogleService) recordLogin(ctx context.Context, u users.User) {
	if s.Users == nil {
		return
	}
	if _, err := s.Users.RecordLogin(ctx, u); err != nil {
		telemetry.Warn("auth.google.record_login_failed", map[string]any{"user_id": u.ID, "error": err.Error()})
	}
}

type googleProfile struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *GoogleService) fetchProfile(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	var p googleProfile
	resp, err := s.oauthConfig.Client(ctx, token).Get(s.userInfoURL)
	if err != nil {
		return p, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return p, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return p, err
	}
	// v2 userinfo answers with "id", OpenID Connect with "sub".
	if p.Sub == "" {
		p.Sub = p.ID
	}
	if p.Sub == "" {
		return p, errors.New("userinfo has no subject")
	}
	return p, nil
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
