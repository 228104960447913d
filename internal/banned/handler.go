package banned

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"moviehub/internal/apperr"
	"moviehub/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes mounts the admin endpoints; rg is expected to be admin-only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/banned", h.list)
	rg.POST("/banned", h.add)
	rg.DELETE("/banned", h.remove)
}

type banReq struct {
	TMDBID    *int64 `json:"tmdbId"`
	MediaType string `json:"media_type"`
	Reason    string `json:"reason"`
}

func (req banReq) validate() (int64, models.MediaKind, error) {
	fields := map[string]string{}
	if req.TMDBID == nil {
		fields["tmdbId"] = "required"
	} else if *req.TMDBID < 0 {
		fields["tmdbId"] = "must be a non-negative external id"
	}
	kind, ok := models.ParseKind(req.MediaType)
	if !ok {
		fields["media_type"] = "must be movie or tv"
	}
	if len(fields) > 0 {
		return 0, "", apperr.Validation(fields)
	}
	return *req.TMDBID, kind, nil
}

func (h *Handler) list(c *gin.Context) {
	var kind models.MediaKind
	if raw := strings.TrimSpace(c.Query("media_type")); raw != "" {
		k, ok := models.ParseKind(raw)
		if !ok {
			apperr.Respond(c, apperr.Validation(map[string]string{"media_type": "must be movie or tv"}))
			return
		}
		kind = k
	}

	items, err := h.Repo.List(c.Request.Context(), kind)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

func (h *Handler) add(c *gin.Context) {
	var req banReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("invalid json"))
		return
	}
	id, kind, err := req.validate()
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	entry, err := h.Repo.Add(c.Request.Context(), id, kind, strings.TrimSpace(req.Reason))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// remove accepts the pair either as a JSON body or as query parameters.
func (h *Handler) remove(c *gin.Context) {
	var req banReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.BadRequest("invalid json"))
			return
		}
	} else {
		req.MediaType = c.Query("media_type")
		if raw := strings.TrimSpace(c.Query("tmdbId")); raw != "" {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				req.TMDBID = &n
			}
		}
	}

	id, kind, err := req.validate()
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := h.Repo.Remove(c.Request.Context(), id, kind); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
