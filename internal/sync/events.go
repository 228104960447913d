package sync

import (
	"time"

	"moviehub/pkg/models"
)

const (
	EventListAdd    = "list.add"
	EventListRemove = "list.remove"
)

// ListEvent tells a user's other sessions that one of their lists changed.
type ListEvent struct {
	Type      string           `json:"type"`
	UserID    string           `json:"user_id"`
	List      models.ListName  `json:"list"`
	MediaID   int64            `json:"media_id"`
	MediaType models.MediaKind `json:"media_type"`
	Title     string           `json:"title,omitempty"`
	At        time.Time        `json:"at"`
}
