// Package banned is the admin-managed suppression list of external catalog
// items that must never appear in aggregated results.
package banned

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"moviehub/internal/apperr"
	"moviehub/pkg/models"
)

// Set is a kind-scoped suppression lookup. The same numeric id suppressed
// under one kind is not suppressed under another.
type Set map[models.MediaKind]map[int64]struct{}

func (s Set) Has(kind models.MediaKind, id int64) bool {
	ids, ok := s[kind]
	if !ok {
		return false
	}
	_, ok = ids[id]
	return ok
}

func (s Set) add(kind models.MediaKind, id int64) {
	ids, ok := s[kind]
	if !ok {
		ids = make(map[int64]struct{})
		s[kind] = ids
	}
	ids[id] = struct{}{}
}

type Repo struct {
	DB *sqlx.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: sqlx.NewDb(db, "sqlite3")}
}

// Set loads the suppression entries for kind, or for every kind when kind is empty.
func (r *Repo) Set(ctx context.Context, kind models.MediaKind) (Set, error) {
	var rows []struct {
		TMDBID    int64            `db:"tmdb_id"`
		MediaType models.MediaKind `db:"media_type"`
	}
	var err error
	if kind == "" {
		err = r.DB.SelectContext(ctx, &rows, `SELECT tmdb_id, media_type FROM banned_media`)
	} else {
		err = r.DB.SelectContext(ctx, &rows, `SELECT tmdb_id, media_type FROM banned_media WHERE media_type = ?`, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load banned set: %w", err)
	}

	set := make(Set)
	for _, row := range rows {
		set.add(row.MediaType, row.TMDBID)
	}
	return set, nil
}

// IDs returns the suppressed external ids for a single kind.
func (r *Repo) IDs(ctx context.Context, kind models.MediaKind) (map[int64]struct{}, error) {
	set, err := r.Set(ctx, kind)
	if err != nil {
		return nil, err
	}
	if ids, ok := set[kind]; ok {
		return ids, nil
	}
	return map[int64]struct{}{}, nil
}

func (r *Repo) IsBanned(ctx context.Context, kind models.MediaKind, id int64) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM banned_media WHERE tmdb_id = ? AND media_type = ?
	`, id, kind)
	if err != nil {
		return false, fmt.Errorf("check banned: %w", err)
	}
	return n > 0, nil
}

func (r *Repo) List(ctx context.Context, kind models.MediaKind) ([]models.BannedMedia, error) {
	out := []models.BannedMedia{}
	var err error
	if kind == "" {
		err = r.DB.SelectContext(ctx, &out, `
			SELECT id, tmdb_id, media_type, reason, created_at
			FROM banned_media
			ORDER BY created_at DESC, id DESC
		`)
	} else {
		err = r.DB.SelectContext(ctx, &out, `
			SELECT id, tmdb_id, media_type, reason, created_at
			FROM banned_media
			WHERE media_type = ?
			ORDER BY created_at DESC, id DESC
		`, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("list banned: %w", err)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id int64, kind models.MediaKind) (*models.BannedMedia, error) {
	var b models.BannedMedia
	err := r.DB.GetContext(ctx, &b, `
		SELECT id, tmdb_id, media_type, reason, created_at
		FROM banned_media
		WHERE tmdb_id = ? AND media_type = ?
	`, id, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get banned: %w", err)
	}
	return &b, nil
}

// Add suppresses (id, kind). A second Add of the same pair is a Conflict.
func (r *Repo) Add(ctx context.Context, id int64, kind models.MediaKind, reason string) (*models.BannedMedia, error) {
	if id < 0 {
		return nil, apperr.BadRequest("only external catalog ids can be banned")
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO banned_media (tmdb_id, media_type, reason)
		VALUES (?, ?, ?)
	`, id, kind, reason)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("media already banned")
		}
		return nil, fmt.Errorf("insert banned: %w", err)
	}

	b, err := r.Get(ctx, id, kind)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("insert banned: row %d/%s vanished", id, kind)
	}
	return b, nil
}

func (r *Repo) Remove(ctx context.Context, id int64, kind models.MediaKind) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM banned_media WHERE tmdb_id = ? AND media_type = ?
	`, id, kind)
	if err != nil {
		return fmt.Errorf("delete banned: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("banned media not found")
	}
	return nil
}
