package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"moviehub/internal/apperr"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// CreateUser fails with Conflict when the username or email is taken.
func (r *Repo) CreateUser(ctx context.Context, u User) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return apperr.Conflict("username or email already exists")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

const userCols = `id, username, email, password_hash, role, created_at`

func (r *Repo) getOne(ctx context.Context, where string, arg any) (*User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE `+where, arg)

	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `LOWER(email) = ?`, strings.TrimSpace(strings.ToLower(email)))
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, `username = ?`, strings.TrimSpace(username))
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *Repo) SetRole(ctx context.Context, id, role string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// UpdatePassword replaces the hash and revokes every refresh token of the user.
func (r *Repo) UpdatePassword(ctx context.Context, id string, passwordHash string) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update password: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("user not found")
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update password: %w", err)
	}
	return nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// SaveRefreshToken stores a digest of raw under jti. The token itself is never
// written to disk.
func (r *Repo) SaveRefreshToken(ctx context.Context, jti, userID, raw string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
		VALUES (?, ?, ?, ?)
	`, jti, userID, hashToken(raw), expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// RefreshTokenValid reports whether raw is the live token stored under jti for userID.
func (r *Repo) RefreshTokenValid(ctx context.Context, jti, userID, raw string) (bool, error) {
	var (
		hash string
		exp  int64
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT token_hash, expires_at FROM refresh_tokens WHERE id = ? AND user_id = ?
	`, jti, userID).Scan(&hash, &exp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup refresh token: %w", err)
	}
	return hash == hashToken(raw) && time.Now().Unix() < exp, nil
}

func (r *Repo) DeleteRefreshToken(ctx context.Context, jti, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = ? AND user_id = ?`, jti, userID)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// PurgeExpired removes refresh tokens that expired before now.
func (r *Repo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens rows: %w", err)
	}
	return n, nil
}
