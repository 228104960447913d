// Package reviews lets signed-in users rate and review catalog titles.
package reviews

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"moviehub/internal/apperr"
	"moviehub/internal/auth"
	"moviehub/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/reviews/:type/:id", h.listByMedia)
}

// RegisterProtectedRoutes expects rg to be behind auth.AuthMiddleware.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews", h.create)
	rg.PUT("/reviews/:id", h.update)
	rg.DELETE("/reviews/:id", h.delete)
	rg.GET("/users/me/reviews", h.listMine)
}

type createReq struct {
	MediaID   int64  `json:"media_id"`
	MediaType string `json:"media_type"`
	Rating    int    `json:"rating"`
	Content   string `json:"content"`
}

func validRating(r int) bool { return r >= 1 && r <= 10 }

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	var req createReq
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
	if !validRating(req.Rating) {
		fields["rating"] = "must be between 1 and 10"
	}
	if len(fields) > 0 {
		apperr.Respond(c, apperr.Validation(fields))
		return
	}

	review, err := h.Repo.Create(c.Request.Context(), claims.UserID, req.MediaID, kind, req.Rating, strings.TrimSpace(req.Content))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) listByMedia(c *gin.Context) {
	kind, ok := models.ParseKind(c.Param("type"))
	if !ok {
		apperr.Respond(c, apperr.NotFound("unknown media type"))
		return
	}
	mediaID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperr.Respond(c, apperr.BadRequest("invalid id"))
		return
	}

	limit, offset := pageBounds(parseInt(c.Query("limit"), 20), parseInt(c.Query("offset"), 0))
	ctx := c.Request.Context()

	reviews, err := h.Repo.ListByMedia(ctx, mediaID, kind, limit, offset)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	summary, err := h.Repo.Summarize(ctx, mediaID, kind)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"limit":   limit,
		"offset":  offset,
		"summary": summary,
		"items":   reviews,
	})
}

func (h *Handler) listMine(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	limit, offset := pageBounds(parseInt(c.Query("limit"), 20), parseInt(c.Query("offset"), 0))

	reviews, err := h.Repo.ListByUser(c.Request.Context(), claims.UserID, limit, offset)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"limit":  limit,
		"offset": offset,
		"items":  reviews,
	})
}

// owned loads the review named by :id and checks the caller may modify it.
// Admins may act on any review only when allowAdmin is set.
func (h *Handler) owned(c *gin.Context, allowAdmin bool) (*models.Review, bool) {
	claims := auth.MustGetClaims(c)
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		apperr.Respond(c, apperr.BadRequest("invalid id"))
		return nil, false
	}

	review, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return nil, false
	}
	if review.UserID != claims.UserID && !(allowAdmin && claims.IsAdmin()) {
		apperr.Respond(c, apperr.Forbidden("not your review"))
		return nil, false
	}
	return review, true
}

type updateReq struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

func (h *Handler) update(c *gin.Context) {
	review, ok := h.owned(c, false)
	if !ok {
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("invalid json"))
		return
	}
	if !validRating(req.Rating) {
		apperr.Respond(c, apperr.Validation(map[string]string{"rating": "must be between 1 and 10"}))
		return
	}

	updated, err := h.Repo.Update(c.Request.Context(), review.ID, req.Rating, strings.TrimSpace(req.Content))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) delete(c *gin.Context) {
	review, ok := h.owned(c, true)
	if !ok {
		return
	}
	if err := h.Repo.Delete(c.Request.Context(), review.ID); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
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
