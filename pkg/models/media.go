package models

import (
	"strings"
	"time"
)

// MediaKind discriminates movies from TV series. Values match the
// external catalog's media_type tags.
type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindTV    MediaKind = "tv"
)

// ParseKind accepts the wire spellings used by clients ("movie", "tv",
// "series", "show").
func ParseKind(s string) (MediaKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return KindMovie, true
	case "tv", "series", "show", "shows":
		return KindTV, true
	default:
		return "", false
	}
}

// Origin says where a MediaItem came from.
type Origin string

const (
	OriginCurated  Origin = "curated"
	OriginExternal Origin = "external"
)

// OriginOf maps an id to its namespace: curated ids are strictly negative.
func OriginOf(id int64) Origin {
	if id < 0 {
		return OriginCurated
	}
	return OriginExternal
}

// MediaItem is the normalized shape of both curated and external catalog entries.
type MediaItem struct {
	ID               int64     `json:"id"`
	MediaType        MediaKind `json:"media_type"`
	Origin           Origin    `json:"origin"`
	Title            string    `json:"title"`
	Overview         string    `json:"overview,omitempty"`
	PosterPath       string    `json:"poster_path,omitempty"`
	BackdropPath     string    `json:"backdrop_path,omitempty"`
	VoteAverage      float64   `json:"vote_average"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	FirstAirDate     string    `json:"first_air_date,omitempty"`
	Runtime          int       `json:"runtime,omitempty"`
	NumberOfSeasons  int       `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int       `json:"number_of_episodes,omitempty"`
	GenreIDs         []int     `json:"genre_ids,omitempty"`
	Genres           []string  `json:"genres"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}

// Genre is one entry of the external catalog's genre list.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
