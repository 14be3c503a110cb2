package users

import (
	"context"
	"time"
)

type Repo interface {
	// RecordLogin inserts u or refreshes its profile fields, stamping the
	// login time and bumping the login count. It returns the stored row.
	RecordLogin(ctx context.Context, u User, at time.Time) (User, error)
	Get(ctx context.Context, id string) (User, error)
}
