package tmdb

import "moviehub/pkg/models"

type listResponse struct {
	Page         int       `json:"page"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
	Results      []rawItem `json:"results"`
}

// rawItem covers list entries and detail payloads of both movies and shows.
type rawItem struct {
	ID               int64          `json:"id"`
	MediaType        string         `json:"media_type"`
	Title            string         `json:"title"`
	Name             string         `json:"name"`
	Overview         string         `json:"overview"`
	PosterPath       string         `json:"poster_path"`
	BackdropPath     string         `json:"backdrop_path"`
	VoteAverage      float64        `json:"vote_average"`
	ReleaseDate      string         `json:"release_date"`
	FirstAirDate     string         `json:"first_air_date"`
	Runtime          int            `json:"runtime"`
	NumberOfSeasons  int            `json:"number_of_seasons"`
	NumberOfEpisodes int            `json:"number_of_episodes"`
	GenreIDs         []int          `json:"genre_ids"`
	Genres           []models.Genre `json:"genres"`
}

func (r rawItem) item(kind models.MediaKind, genreNames map[int]string) models.MediaItem {
	m := models.MediaItem{
		ID:           r.ID,
		MediaType:    kind,
		Origin:       models.OriginOf(r.ID),
		Title:        r.Title,
		Overview:     r.Overview,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		VoteAverage:  r.VoteAverage,
		GenreIDs:     r.GenreIDs,
		Genres:       []string{},
	}
	if kind == models.KindTV {
		m.Title = r.Name
		m.FirstAirDate = r.FirstAirDate
		m.NumberOfSeasons = r.NumberOfSeasons
		m.NumberOfEpisodes = r.NumberOfEpisodes
	} else {
		m.ReleaseDate = r.ReleaseDate
		m.Runtime = r.Runtime
	}

	// details carry genre objects, listings carry ids only
	if len(r.Genres) > 0 {
		for _, g := range r.Genres {
			m.Genres = append(m.Genres, g.Name)
			m.GenreIDs = append(m.GenreIDs, g.ID)
		}
		return m
	}
	for _, id := range r.GenreIDs {
		if name, ok := genreNames[id]; ok {
			m.Genres = append(m.Genres, name)
		}
	}
	return m
}
