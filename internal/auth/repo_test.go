package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/internal/apperr"
	"moviehub/internal/testdb"
)

func TestCreateUserConflict(t *testing.T) {
	repo := NewRepo(testdb.Open(t))
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, User{ID: "u1", Username: "neo", Email: "neo@example.com", PasswordHash: "x"}))
	err := repo.CreateUser(ctx, User{ID: "u2", Username: "neo", Email: "other@example.com", PasswordHash: "x"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	u, err := repo.GetByEmail(ctx, " NEO@example.com ")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, RoleUser, u.Role)

	u, err = repo.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	repo := NewRepo(testdb.Open(t))
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, User{ID: "u1", Username: "neo", Email: "neo@example.com", PasswordHash: "x"}))

	require.NoError(t, repo.SaveRefreshToken(ctx, "jti-1", "u1", "raw-token", time.Now().Add(time.Hour)))

	ok, err := repo.RefreshTokenValid(ctx, "jti-1", "u1", "raw-token")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.RefreshTokenValid(ctx, "jti-1", "u1", "tampered")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.RefreshTokenValid(ctx, "jti-1", "u2", "raw-token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.DeleteRefreshToken(ctx, "jti-1", "u1"))
	ok, err = repo.RefreshTokenValid(ctx, "jti-1", "u1", "raw-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdatePasswordRevokesRefreshTokens(t *testing.T) {
	repo := NewRepo(testdb.Open(t))
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, User{ID: "u1", Username: "neo", Email: "neo@example.com", PasswordHash: "old"}))
	require.NoError(t, repo.SaveRefreshToken(ctx, "jti-1", "u1", "raw", time.Now().Add(time.Hour)))

	require.NoError(t, repo.UpdatePassword(ctx, "u1", "new"))

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", u.PasswordHash)
	ok, err := repo.RefreshTokenValid(ctx, "jti-1", "u1", "raw")
	require.NoError(t, err)
	assert.False(t, ok)

	err = repo.UpdatePassword(ctx, "missing", "x")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPurgeExpired(t *testing.T) {
	repo := NewRepo(testdb.Open(t))
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, User{ID: "u1", Username: "neo", Email: "neo@example.com", PasswordHash: "x"}))

	now := time.Now()
	require.NoError(t, repo.SaveRefreshToken(ctx, "old", "u1", "a", now.Add(-time.Hour)))
	require.NoError(t, repo.SaveRefreshToken(ctx, "live", "u1", "b", now.Add(time.Hour)))

	n, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ok, err := repo.RefreshTokenValid(ctx, "live", "u1", "b")
	require.NoError(t, err)
	assert.True(t, ok)
}
