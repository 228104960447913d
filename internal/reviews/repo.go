package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moviehub/internal/apperr"
	"moviehub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const selectReview = `
	SELECT r.id, r.user_id, u.username, r.media_id, r.media_type, r.rating, r.content, r.created_at, r.updated_at
	FROM reviews r
	JOIN users u ON u.id = r.user_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(s scanner) (*models.Review, error) {
	var rv models.Review
	if err := s.Scan(&rv.ID, &rv.UserID, &rv.Username, &rv.MediaID, &rv.MediaType, &rv.Rating, &rv.Content, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
		return nil, err
	}
	return &rv, nil
}

// Create fails with Conflict when the user already reviewed the item.
func (r *Repo) Create(ctx context.Context, userID string, mediaID int64, kind models.MediaKind, rating int, content string) (*models.Review, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO reviews (user_id, media_id, media_type, rating, content)
		VALUES (?, ?, ?, ?, ?)
	`, userID, mediaID, kind, rating, content)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("you already reviewed this title")
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID fails with NotFound when absent.
func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	rv, err := scanReview(r.DB.QueryRowContext(ctx, selectReview+` WHERE r.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("review not found")
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

func (r *Repo) list(ctx context.Context, where string, args []any, limit, offset int) ([]models.Review, error) {
	limit, offset = pageBounds(limit, offset)

	rows, err := r.DB.QueryContext(ctx, selectReview+` WHERE `+where+`
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]models.Review, 0, limit)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		out = append(out, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) ListByMedia(ctx context.Context, mediaID int64, kind models.MediaKind, limit, offset int) ([]models.Review, error) {
	return r.list(ctx, `r.media_id = ? AND r.media_type = ?`, []any{mediaID, kind}, limit, offset)
}

func (r *Repo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Review, error) {
	return r.list(ctx, `r.user_id = ?`, []any{userID}, limit, offset)
}

// Summary is the rating aggregate of one title.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

func (r *Repo) Summarize(ctx context.Context, mediaID int64, kind models.MediaKind) (Summary, error) {
	var s Summary
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE media_id = ? AND media_type = ?
	`, mediaID, kind).Scan(&s.Count, &s.Average)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize reviews: %w", err)
	}
	return s, nil
}

func (r *Repo) Update(ctx context.Context, id int64, rating int, content string) (*models.Review, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE reviews SET rating = ?, content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, rating, content, id)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("review not found")
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("review not found")
	}
	return nil
}

// pageBounds applies the default and maximum page size and floors offset at zero.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return limit, max(offset, 0)
}
