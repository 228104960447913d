package banned

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/internal/apperr"
	"moviehub/internal/testdb"
	"moviehub/pkg/models"
)

func TestAddTwiceConflictsAndKeepsOneEntry(t *testing.T) {
	repo := NewRepo(testdb.Open(t))
	ctx := context.Background()

	first, err := repo.Add(ctx, 42, models.KindMovie, "spam")
	require.NoError(t, err)
	assert.Equal(t, int64(42), first.TMDBID)
	assert.Equal(t, "spam", first.Reason)

	_, err = repo.Add(ctx, 42, models.KindMovie, "again")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	items, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSuppressionIsScopedByKind(t *testing.T) {
	repo := NewRepo(testdb.Open(t))
	ctx := context.Background()

	_, err := repo.Add(ctx, 42, models.KindMovie, "")
	require.NoError(t, err)
	// same numeric id under the other kind is a distinct entry
	_, err = repo.Add(ctx, 7, models.KindTV, "")
	require.NoError(t, err)

	movies, err := repo.IDs(ctx, models.KindMovie)
	require.NoError(t, err)
	assert.Contains(t, movies, int64(42))
	assert.NotContains(t, movies, int64(7))

	tv, err := repo.IDs(ctx, models.KindTV)
	require.NoError(t, err)
	assert.NotContains(t, tv, int64(42))

	all, err := repo.Set(ctx, "")
	require.NoError(t, err)
	assert.True(t, all.Has(models.KindMovie, 42))
	assert.True(t, all.Has(models.KindTV, 7))
	assert.False(t, all.Has(models.KindTV, 42))

	banned, err := repo.IsBanned(ctx, models.KindTV, 42)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestRemove(t *testing.T) {
	repo := NewRepo(testdb.Open(t))
	ctx := context.Background()

	err := repo.Remove(ctx, 9, models.KindMovie)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = repo.Add(ctx, 9, models.KindMovie, "")
	require.NoError(t, err)
	require.NoError(t, repo.Remove(ctx, 9, models.KindMovie))

	ids, err := repo.IDs(ctx, models.KindMovie)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAddRejectsCuratedIDs(t *testing.T) {
	repo := NewRepo(testdb.Open(t))
	_, err := repo.Add(context.Background(), -1, models.KindMovie, "")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}
