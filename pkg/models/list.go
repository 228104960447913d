package models

import "time"

// ListName identifies one of a user's personal media lists.
type ListName string

const (
	ListWatchlist ListName = "watchlist"
	ListFavorites ListName = "favorites"
)

func ParseListName(s string) (ListName, bool) {
	switch ListName(s) {
	case ListWatchlist, ListFavorites:
		return ListName(s), true
	default:
		return "", false
	}
}

type ListItem struct {
	UserID     string    `json:"user_id"`
	List       ListName  `json:"list"`
	MediaID    int64     `json:"media_id"`
	MediaType  MediaKind `json:"media_type"`
	Title      string    `json:"title,omitempty"`
	PosterPath string    `json:"poster_path,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}
