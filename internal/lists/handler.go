package lists

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"moviehub/internal/apperr"
	"moviehub/internal/auth"
	"moviehub/internal/sync"
	"moviehub/pkg/models"
)

// Publisher delivers events to a user's live sessions.
type Publisher interface {
	Publish(userID string, v any)
}

type Handler struct {
	Repo *Repo
	Hub  Publisher
}

func NewHandler(repo *Repo, hub Publisher) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

// RegisterRoutes expects rg to be behind auth.AuthMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:list", h.list)
	rg.POST("/:list", h.add)
	rg.GET("/:list/:type/:id", h.getOne)
	rg.DELETE("/:list/:type/:id", h.remove)
}

func listParam(c *gin.Context) (models.ListName, bool) {
	list, ok := models.ParseListName(strings.ToLower(c.Param("list")))
	if !ok {
		apperr.Respond(c, apperr.NotFound("unknown list"))
	}
	return list, ok
}

func itemParams(c *gin.Context) (models.MediaKind, int64, bool) {
	kind, ok := models.ParseKind(c.Param("type"))
	if !ok {
		apperr.Respond(c, apperr.NotFound("unknown media type"))
		return "", 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apperr.Respond(c, apperr.BadRequest("invalid id"))
		return "", 0, false
	}
	return kind, id, true
}

type addReq struct {
	MediaID    int64  `json:"media_id"`
	MediaType  string `json:"media_type"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
}

func (h *Handler) add(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	list, ok := listParam(c)
	if !ok {
		return
	}

	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("invalid json"))
		return
	}
	fields := map[string]string{}
	if req.MediaID == 0 {
		fields["media_id"] = "required"
	}
	kind, ok := models.ParseKind(req.MediaType)
	if !ok {
		fields["media_type"] = "must be movie or tv"
	}
	if len(fields) > 0 {
		apperr.Respond(c, apperr.Validation(fields))
		return
	}

	saved, err := h.Repo.Add(c.Request.Context(), models.ListItem{
		UserID:     claims.UserID,
		List:       list,
		MediaID:    req.MediaID,
		MediaType:  kind,
		Title:      strings.TrimSpace(req.Title),
		PosterPath: strings.TrimSpace(req.PosterPath),
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	h.publish(sync.EventListAdd, saved)
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	list, ok := listParam(c)
	if !ok {
		return
	}

	var kind models.MediaKind
	if raw := strings.TrimSpace(c.Query("media_type")); raw != "" {
		if kind, ok = models.ParseKind(raw); !ok {
			apperr.Respond(c, apperr.BadRequest("invalid media_type filter"))
			return
		}
	}

	limit, offset := pageBounds(parseInt(c.Query("limit"), 20), parseInt(c.Query("offset"), 0))

	items, total, err := h.Repo.List(c.Request.Context(), claims.UserID, list, kind, limit, offset)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) getOne(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	list, ok := listParam(c)
	if !ok {
		return
	}
	kind, id, ok := itemParams(c)
	if !ok {
		return
	}

	it, err := h.Repo.Get(c.Request.Context(), claims.UserID, list, id, kind)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if it == nil {
		apperr.Respond(c, apperr.NotFound("not found"))
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	list, ok := listParam(c)
	if !ok {
		return
	}
	kind, id, ok := itemParams(c)
	if !ok {
		return
	}

	removed, err := h.Repo.Remove(c.Request.Context(), claims.UserID, list, id, kind)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if !removed {
		apperr.Respond(c, apperr.NotFound("not found"))
		return
	}

	h.publish(sync.EventListRemove, &models.ListItem{UserID: claims.UserID, List: list, MediaID: id, MediaType: kind})
	c.Status(http.StatusNoContent)
}

func (h *Handler) publish(typ string, it *models.ListItem) {
	if h.Hub == nil {
		return
	}
	h.Hub.Publish(it.UserID, sync.ListEvent{
		Type:      typ,
		UserID:    it.UserID,
		List:      it.List,
		MediaID:   it.MediaID,
		MediaType: it.MediaType,
		Title:     it.Title,
		At:        time.Now().UTC(),
	})
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
