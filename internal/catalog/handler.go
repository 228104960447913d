package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"moviehub/internal/apperr"
	"moviehub/internal/tmdb"
	"moviehub/pkg/models"
)

// External is the slice of the TMDB client the catalog needs.
type External interface {
	Discover(ctx context.Context, kind models.MediaKind, page int, filters url.Values) (tmdb.Page, error)
	Popular(ctx context.Context, kind models.MediaKind, page int) (tmdb.Page, error)
	SearchMulti(ctx context.Context, query string, page int) (tmdb.Page, error)
	Details(ctx context.Context, kind models.MediaKind, id int64) (*models.MediaItem, error)
	Genres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error)
}

type CuratedLookup interface {
	GetByID(ctx context.Context, id int64) (*models.MediaItem, error)
}

type BanChecker interface {
	IsBanned(ctx context.Context, kind models.MediaKind, id int64) (bool, error)
}

type Handler struct {
	Agg      *Aggregator
	Source   External
	Curated  CuratedLookup
	Banned   BanChecker
	PageSize int
}

func NewHandler(agg *Aggregator, source External, curated CuratedLookup, bans BanChecker, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Handler{Agg: agg, Source: source, Curated: curated, Banned: bans, PageSize: pageSize}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/discover/:type", h.discover)
	rg.GET("/search", h.search)
	rg.GET("/genres/:type", h.genres)
	for _, kind := range []models.MediaKind{models.KindMovie, models.KindTV} {
		rg.GET("/"+string(kind)+"/popular", h.popular(kind))
		rg.GET("/"+string(kind)+"/:id", h.details(kind))
	}
}

// discoverFilters are forwarded to the external source untouched.
var discoverFilters = []string{
	"sort_by",
	"with_genres",
	"without_genres",
	"with_original_language",
	"primary_release_date.gte",
	"primary_release_date.lte",
	"first_air_date.gte",
	"first_air_date.lte",
	"vote_average.gte",
	"vote_count.gte",
	"year",
	"primary_release_year",
	"first_air_date_year",
}

func passthroughFilters(q url.Values) url.Values {
	out := url.Values{}
	for _, k := range discoverFilters {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

func (h *Handler) discover(c *gin.Context) {
	kind, ok := models.ParseKind(c.Param("type"))
	if !ok {
		apperr.Respond(c, apperr.NotFound("unknown media type"))
		return
	}
	filters := passthroughFilters(c.Request.URL.Query())

	h.respond(c, Request{Kind: kind, Page: parsePage(c.Query("page")), Target: h.PageSize},
		func(ctx context.Context, page int) (tmdb.Page, error) {
			return h.Source.Discover(ctx, kind, page, filters)
		})
}

func (h *Handler) popular(kind models.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.respond(c, Request{Kind: kind, Page: parsePage(c.Query("page")), Target: h.PageSize},
			func(ctx context.Context, page int) (tmdb.Page, error) {
				return h.Source.Popular(ctx, kind, page)
			})
	}
}

func (h *Handler) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		apperr.Respond(c, apperr.Validation(map[string]string{"query": "required"}))
		return
	}

	h.respond(c, Request{Page: parsePage(c.Query("page")), Target: h.PageSize, Query: query},
		func(ctx context.Context, page int) (tmdb.Page, error) {
			return h.Source.SearchMulti(ctx, query, page)
		})
}

func (h *Handler) respond(c *gin.Context, req Request, fetch PageFetcher) {
	res, err := h.Agg.Aggregate(c.Request.Context(), req, fetch)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	body := gin.H{"results": res.Items}
	if res.Degraded {
		body["degraded"] = true
	}
	c.JSON(http.StatusOK, body)
}

// details resolves negative ids in the curated store and everything else
// through the external source, hiding banned items.
func (h *Handler) details(kind models.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apperr.Respond(c, apperr.BadRequest("invalid id"))
			return
		}
		ctx := c.Request.Context()

		if models.OriginOf(id) == models.OriginCurated {
			item, err := h.Curated.GetByID(ctx, id)
			if err != nil {
				apperr.Respond(c, err)
				return
			}
			if item.MediaType != kind {
				apperr.Respond(c, apperr.NotFound("media not found"))
				return
			}
			c.JSON(http.StatusOK, item)
			return
		}

		isBanned, err := h.Banned.IsBanned(ctx, kind, id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if isBanned {
			apperr.Respond(c, apperr.NotFound("media not found"))
			return
		}

		item, err := h.Source.Details(ctx, kind, id)
		if err != nil {
			if errors.Is(err, tmdb.ErrNotFound) {
				apperr.Respond(c, apperr.NotFound("media not found"))
				return
			}
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func (h *Handler) genres(c *gin.Context) {
	kind, ok := models.ParseKind(c.Param("type"))
	if !ok {
		apperr.Respond(c, apperr.NotFound("unknown media type"))
		return
	}
	genres, err := h.Source.Genres(c.Request.Context(), kind)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}

func parsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
