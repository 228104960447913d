// Package lists stores each user's watchlist and favorites.
package lists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moviehub/internal/apperr"
	"moviehub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Add fails with Conflict when the item is already on the list.
func (r *Repo) Add(ctx context.Context, item models.ListItem) (*models.ListItem, error) {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_media_lists (user_id, list, media_id, media_type, title, poster_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.UserID, item.List, item.MediaID, item.MediaType, item.Title, item.PosterPath)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Conflict(fmt.Sprintf("already in %s", item.List))
		}
		return nil, fmt.Errorf("add list item: %w", err)
	}
	return r.Get(ctx, item.UserID, item.List, item.MediaID, item.MediaType)
}

func (r *Repo) Remove(ctx context.Context, userID string, list models.ListName, mediaID int64, kind models.MediaKind) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM user_media_lists
		WHERE user_id = ? AND list = ? AND media_id = ? AND media_type = ?
	`, userID, list, mediaID, kind)
	if err != nil {
		return false, fmt.Errorf("remove list item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns one page of the list, most recently added first, and the total size.
func (r *Repo) List(ctx context.Context, userID string, list models.ListName, kind models.MediaKind, limit, offset int) ([]models.ListItem, int, error) {
	limit, offset = pageBounds(limit, offset)

	where := `user_id = ? AND list = ?`
	args := []any{userID, list}
	if kind != "" {
		where += ` AND media_type = ?`
		args = append(args, kind)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_media_lists WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count list: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, list, media_id, media_type, title, poster_path, added_at
		FROM user_media_lists
		WHERE `+where+`
		ORDER BY added_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := make([]models.ListItem, 0, limit)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

// Get returns nil, nil when the item is not on the list.
func (r *Repo) Get(ctx context.Context, userID string, list models.ListName, mediaID int64, kind models.MediaKind) (*models.ListItem, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT user_id, list, media_id, media_type, title, poster_path, added_at
		FROM user_media_lists
		WHERE user_id = ? AND list = ? AND media_id = ? AND media_type = ?
	`, userID, list, mediaID, kind)

	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.ListItem, error) {
	var (
		it    models.ListItem
		added time.Time
	)
	if err := s.Scan(&it.UserID, &it.List, &it.MediaID, &it.MediaType, &it.Title, &it.PosterPath, &added); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan list item: %w", err)
	}
	it.AddedAt = added
	return &it, nil
}

// pageBounds applies the default and maximum page size and floors offset at zero.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return limit, max(offset, 0)
}
