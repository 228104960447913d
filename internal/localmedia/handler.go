package localmedia

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
	rg.GET("/local/media", h.list)
	rg.POST("/local/media", h.create)
	rg.GET("/local/media/:id", h.get)
	rg.PUT("/local/media/:id", h.update)
	rg.DELETE("/local/media/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{Query: c.Query("query")}
	if raw := strings.TrimSpace(c.Query("media_type")); raw != "" {
		kind, ok := models.ParseKind(raw)
		if !ok {
			apperr.Respond(c, apperr.Validation(map[string]string{"media_type": "must be movie or tv"}))
			return
		}
		q.Kind = kind
	}

	items, err := h.Repo.ListAll(c.Request.Context(), q)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

func (h *Handler) create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Respond(c, apperr.BadRequest("invalid json"))
		return
	}
	item, err := h.Repo.Create(c.Request.Context(), in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	item, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) update(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	// reject the external id space before looking at the body
	if id >= 0 {
		apperr.Respond(c, apperr.BadRequest("local media ids are negative"))
		return
	}
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Respond(c, apperr.BadRequest("invalid json"))
		return
	}
	item, err := h.Repo.Update(c.Request.Context(), id, in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := h.Repo.Delete(c.Request.Context(), id); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("invalid id")
	}
	return id, nil
}
