package models

import "time"

// BannedMedia marks an external catalog item as hidden from every listing.
type BannedMedia struct {
	ID        int64     `json:"id" db:"id"`
	TMDBID    int64     `json:"tmdbId" db:"tmdb_id"`
	MediaType MediaKind `json:"media_type" db:"media_type"`
	Reason    string    `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
