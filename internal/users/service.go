package users

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// RecordLogin stores the identity returned by an OAuth provider.
func (s *Service) RecordLogin(ctx context.Context, u User) (User, error) {
	u.ID = strings.TrimSpace(u.ID)
	u.Email = strings.TrimSpace(u.Email)
	if u.ID == "" || u.Email == "" {
		return User{}, fmt.Errorf("%w: id and email are required", ErrInvalidInput)
	}
	if strings.HasPrefix(u.ID, "guest:") {
		return User{}, fmt.Errorf("%w: guests are not stored", ErrInvalidInput)
	}
	return s.Repo.RecordLogin(ctx, u, s.now())
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.Get(ctx, id)
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
