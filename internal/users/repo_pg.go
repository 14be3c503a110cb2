package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, name, picture_url, created_at, last_login_at, login_count`

func (r *PGRepo) RecordLogin(ctx context.Context, u User, at time.Time) (User, error) {
	const query = `
INSERT INTO users (id, email, name, picture_url, created_at, last_login_at, login_count)
VALUES ($1, $2, $3, $4, $5, $5, 1)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  name = COALESCE(EXCLUDED.name, users.name),
  picture_url = COALESCE(EXCLUDED.picture_url, users.picture_url),
  last_login_at = EXCLUDED.last_login_at,
  login_count = users.login_count + 1
RETURNING ` + userColumns
	row := r.DB.QueryRowContext(ctx, query, u.ID, u.Email, nullString(u.Name), nullString(u.PictureURL), at)
	return scanUser(row)
}

func (r *PGRepo) Get(ctx context.Context, id string) (User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func scanUser(row *sql.Row) (User, error) {
	var (
		u             User
		name, picture sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &name, &picture, &u.CreatedAt, &u.LastLoginAt, &u.LoginCount); err != nil {
		return User{}, err
	}
	u.Name = name.String
	u.PictureURL = picture.String
	return u, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
