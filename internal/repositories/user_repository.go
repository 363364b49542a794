package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bee-social/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

const usernameConstraint = "users_username_key"

// UserRepository is the local mirror of identity-provider profiles.
type UserRepository interface {
	Upsert(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, display_name, avatar_url, email, synced_at`

// Upsert inserts or refreshes a mirrored user and stamps synced_at.
func (r *UserRepo) Upsert(ctx context.Context, u models.User) (models.User, error) {
	var out models.User
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (id, username, display_name, avatar_url, email, synced_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (id) DO UPDATE SET
            username = EXCLUDED.username,
            display_name = EXCLUDED.display_name,
            avatar_url = EXCLUDED.avatar_url,
            email = EXCLUDED.email,
            synced_at = NOW()
        RETURNING `+userColumns, u.ID, u.Username, u.DisplayName, u.AvatarURL, u.Email).StructScan(&out)
	if isUniqueViolation(err, usernameConstraint) {
		return models.User{}, ErrUsernameTaken
	}
	if err != nil {
		return models.User{}, fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return out, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByIDs returns the mirrored users among ids. Missing ids are skipped.
func (r *UserRepo) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	return users, err
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE LOWER(username)=LOWER($1)`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

// Search matches a username prefix or a display-name substring, both
// case-insensitive. An empty query lists users by username.
func (r *UserRepo) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	term := escapeLike(strings.TrimSpace(query))
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users
        WHERE username ILIKE $1 OR display_name ILIKE $2
        ORDER BY username ASC LIMIT $3`, term+"%", "%"+term+"%", limit)
	return users, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
