// Package localmedia stores administrator-authored catalog entries. They live
// in their own id space: every id is strictly negative, so they can never
// collide with external catalog ids.
package localmedia

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"moviehub/internal/apperr"
	"moviehub/pkg/models"
)

type Repo struct {
	DB *sqlx.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: sqlx.NewDb(db, "sqlite3")}
}

type ListQuery struct {
	Kind  models.MediaKind // empty matches every kind
	Query string           // case-insensitive title match
}

// Input is the editable part of a curated item.
type Input struct {
	MediaType        string   `json:"media_type"`
	Title            string   `json:"title"`
	Overview         string   `json:"overview"`
	PosterPath       string   `json:"poster_path"`
	BackdropPath     string   `json:"backdrop_path"`
	VoteAverage      float64  `json:"vote_average"`
	ReleaseDate      string   `json:"release_date"`
	FirstAirDate     string   `json:"first_air_date"`
	Runtime          int      `json:"runtime"`
	NumberOfSeasons  int      `json:"number_of_seasons"`
	NumberOfEpisodes int      `json:"number_of_episodes"`
	Genres           []string `json:"genres"`
}

func (in *Input) normalize() (models.MediaKind, error) {
	fields := map[string]string{}
	kind, ok := models.ParseKind(in.MediaType)
	if !ok {
		fields["media_type"] = "must be movie or tv"
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		fields["title"] = "required"
	}
	if in.VoteAverage < 0 || in.VoteAverage > 10 {
		fields["vote_average"] = "must be between 0 and 10"
	}
	for name, v := range map[string]string{"release_date": in.ReleaseDate, "first_air_date": in.FirstAirDate} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			fields[name] = "must be YYYY-MM-DD"
		}
	}
	if in.Runtime < 0 || in.NumberOfSeasons < 0 || in.NumberOfEpisodes < 0 {
		fields["counts"] = "must be >= 0"
	}
	if len(fields) > 0 {
		return "", apperr.Validation(fields)
	}

	// kind-specific fields only make sense for their kind
	if kind == models.KindMovie {
		in.FirstAirDate, in.NumberOfSeasons, in.NumberOfEpisodes = "", 0, 0
	} else {
		in.ReleaseDate, in.Runtime = "", 0
	}
	genres := make([]string, 0, len(in.Genres))
	for _, g := range in.Genres {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	in.Genres = genres
	return kind, nil
}

type row struct {
	ID               int64     `db:"id"`
	MediaType        string    `db:"media_type"`
	Title            string    `db:"title"`
	Overview         string    `db:"overview"`
	PosterPath       string    `db:"poster_path"`
	BackdropPath     string    `db:"backdrop_path"`
	VoteAverage      float64   `db:"vote_average"`
	ReleaseDate      string    `db:"release_date"`
	FirstAirDate     string    `db:"first_air_date"`
	Runtime          int       `db:"runtime"`
	NumberOfSeasons  int       `db:"number_of_seasons"`
	NumberOfEpisodes int       `db:"number_of_episodes"`
	Genres           string    `db:"genres"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r row) item() (models.MediaItem, error) {
	m := models.MediaItem{
		ID:               r.ID,
		MediaType:        models.MediaKind(r.MediaType),
		Origin:           models.OriginCurated,
		Title:            r.Title,
		Overview:         r.Overview,
		PosterPath:       r.PosterPath,
		BackdropPath:     r.BackdropPath,
		VoteAverage:      r.VoteAverage,
		ReleaseDate:      r.ReleaseDate,
		FirstAirDate:     r.FirstAirDate,
		Runtime:          r.Runtime,
		NumberOfSeasons:  r.NumberOfSeasons,
		NumberOfEpisodes: r.NumberOfEpisodes,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.Genres != "" {
		if err := json.Unmarshal([]byte(r.Genres), &m.Genres); err != nil {
			return models.MediaItem{}, fmt.Errorf("local media %d: decode genres: %w", r.ID, err)
		}
	}
	if m.Genres == nil {
		m.Genres = []string{}
	}
	return m, nil
}

const selectCols = `
	SELECT id, media_type, title, overview, poster_path, backdrop_path, vote_average,
	       release_date, first_air_date, runtime, number_of_seasons, number_of_episodes,
	       genres, created_at, updated_at
	FROM local_media
`

// ListAll returns every curated item matching q, most recently created first.
// Ids only ever decrease, so id ASC breaks created_at ties in creation order.
func (r *Repo) ListAll(ctx context.Context, q ListQuery) ([]models.MediaItem, error) {
	var (
		where []string
		args  []any
	)
	if q.Kind != "" {
		where = append(where, "media_type = ?")
		args = append(args, q.Kind)
	}
	if kw := strings.TrimSpace(q.Query); kw != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}

	sqlStr := selectCols
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStr += " ORDER BY created_at DESC, id ASC"

	var rows []row
	if err := r.DB.SelectContext(ctx, &rows, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("list local media: %w", err)
	}
	out := make([]models.MediaItem, 0, len(rows))
	for _, rw := range rows {
		m, err := rw.item()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// GetByID fails with NotFound for non-negative ids without touching the store.
func (r *Repo) GetByID(ctx context.Context, id int64) (*models.MediaItem, error) {
	if id >= 0 {
		return nil, apperr.NotFound("local media not found")
	}
	var rw row
	if err := r.DB.GetContext(ctx, &rw, selectCols+" WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("local media not found")
		}
		return nil, fmt.Errorf("get local media: %w", err)
	}
	m, err := rw.item()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create allocates the next curated id (current minimum minus one, -1 for an
// empty store) in the same statement as the insert.
func (r *Repo) Create(ctx context.Context, in Input) (*models.MediaItem, error) {
	kind, err := in.normalize()
	if err != nil {
		return nil, err
	}
	genres, err := json.Marshal(in.Genres)
	if err != nil {
		return nil, fmt.Errorf("marshal genres: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO local_media (
			id, media_type, title, overview, poster_path, backdrop_path, vote_average,
			release_date, first_air_date, runtime, number_of_seasons, number_of_episodes, genres
		)
		SELECT MIN(COALESCE(MIN(id), 0), 0) - 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM local_media
	`, kind, in.Title, in.Overview, in.PosterPath, in.BackdropPath, in.VoteAverage,
		in.ReleaseDate, in.FirstAirDate, in.Runtime, in.NumberOfSeasons, in.NumberOfEpisodes, string(genres))
	if err != nil {
		return nil, fmt.Errorf("insert local media: %w", err)
	}
	// id is the rowid alias, so LastInsertId is the allocated id
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Update replaces the editable fields of a curated item.
func (r *Repo) Update(ctx context.Context, id int64, in Input) (*models.MediaItem, error) {
	if id >= 0 {
		return nil, apperr.BadRequest("local media ids are negative")
	}
	kind, err := in.normalize()
	if err != nil {
		return nil, err
	}
	genres, err := json.Marshal(in.Genres)
	if err != nil {
		return nil, fmt.Errorf("marshal genres: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE local_media SET
			media_type = ?, title = ?, overview = ?, poster_path = ?, backdrop_path = ?,
			vote_average = ?, release_date = ?, first_air_date = ?, runtime = ?,
			number_of_seasons = ?, number_of_episodes = ?, genres = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, kind, in.Title, in.Overview, in.PosterPath, in.BackdropPath, in.VoteAverage,
		in.ReleaseDate, in.FirstAirDate, in.Runtime, in.NumberOfSeasons, in.NumberOfEpisodes,
		string(genres), id)
	if err != nil {
		return nil, fmt.Errorf("update local media: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("local media not found")
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	if id >= 0 {
		return apperr.BadRequest("local media ids are negative")
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM local_media WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete local media: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("local media not found")
	}
	return nil
}
