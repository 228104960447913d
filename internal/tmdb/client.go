// Package tmdb is a small client for The Movie Database v3 API, normalising
// its list and detail payloads into models.MediaItem.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"moviehub/internal/logging"
	"moviehub/pkg/models"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

var (
	ErrNotConfigured = errors.New("tmdb api key not configured")
	ErrNotFound      = errors.New("tmdb: not found")
)

type Config struct {
	APIKey     string
	Language   string
	BaseURL    string
	RatePerSec float64
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

type Client struct {
	apiKey   string
	language string
	baseURL  string
	httpc    *http.Client
	limiter  *rate.Limiter
	log      zerolog.Logger

	genres  *expirable.LRU[models.MediaKind, []models.Genre]
	details *expirable.LRU[string, models.MediaItem]
}

func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 40
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		language: cfg.Language,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		httpc:    cfg.HTTPClient,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(1, int(cfg.RatePerSec))),
		log:      logging.Component("tmdb"),
		genres:   expirable.NewLRU[models.MediaKind, []models.Genre](4, nil, cfg.CacheTTL),
		details:  expirable.NewLRU[string, models.MediaItem](1024, nil, cfg.CacheTTL),
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

// Page is one page of a paginated TMDB listing.
type Page struct {
	Page         int                `json:"page"`
	TotalPages   int                `json:"total_pages"`
	TotalResults int                `json:"total_results"`
	Results      []models.MediaItem `json:"results"`
}

// get performs a single throttled GET. There is no retry: a failure is
// returned to the caller as is.
func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	q := url.Values{}
	for k, vals := range params {
		q[k] = vals
	}
	q.Set("api_key", c.apiKey)
	if q.Get("language") == "" {
		q.Set("language", c.language)
	}

	endpoint := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("tmdb request")

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("tmdb %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("tmdb %s: decode: %w", path, err)
	}
	return nil
}

// Discover lists kind with TMDB discover filters passed through unchanged.
func (c *Client) Discover(ctx context.Context, kind models.MediaKind, page int, filters url.Values) (Page, error) {
	params := url.Values{}
	for k, vals := range filters {
		params[k] = vals
	}
	params.Set("page", strconv.Itoa(max(page, 1)))
	return c.list(ctx, "/discover/"+string(kind), params, kind)
}

func (c *Client) Popular(ctx context.Context, kind models.MediaKind, page int) (Page, error) {
	params := url.Values{"page": {strconv.Itoa(max(page, 1))}}
	return c.list(ctx, "/"+string(kind)+"/popular", params, kind)
}

// SearchMulti searches movies and tv at once. Person results are dropped;
// each remaining item's kind comes from its own media_type tag.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (Page, error) {
	params := url.Values{
		"query":         {query},
		"page":          {strconv.Itoa(max(page, 1))},
		"include_adult": {"false"},
	}
	return c.list(ctx, "/search/multi", params, "")
}

func (c *Client) list(ctx context.Context, path string, params url.Values, kind models.MediaKind) (Page, error) {
	var resp listResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return Page{}, err
	}

	out := Page{
		Page:         resp.Page,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
		Results:      make([]models.MediaItem, 0, len(resp.Results)),
	}
	names := map[models.MediaKind]map[int]string{}
	for _, raw := range resp.Results {
		k := kind
		if k == "" {
			var ok bool
			if k, ok = models.ParseKind(raw.MediaType); !ok {
				continue
			}
		}
		if _, ok := names[k]; !ok {
			names[k] = c.genreNames(ctx, k)
		}
		out.Results = append(out.Results, raw.item(k, names[k]))
	}
	return out, nil
}

// Details fetches a single movie or show. Results are cached.
func (c *Client) Details(ctx context.Context, kind models.MediaKind, id int64) (*models.MediaItem, error) {
	key := string(kind) + ":" + strconv.FormatInt(id, 10)
	if m, ok := c.details.Get(key); ok {
		return &m, nil
	}

	var raw rawItem
	if err := c.get(ctx, "/"+string(kind)+"/"+strconv.FormatInt(id, 10), nil, &raw); err != nil {
		return nil, err
	}
	m := raw.item(kind, nil)
	c.details.Add(key, m)
	return &m, nil
}

// Genres returns the genre list for kind. Lists are cached.
func (c *Client) Genres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error) {
	if g, ok := c.genres.Get(kind); ok {
		return g, nil
	}
	var resp struct {
		Genres []models.Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/"+string(kind)+"/list", nil, &resp); err != nil {
		return nil, err
	}
	c.genres.Add(kind, resp.Genres)
	return resp.Genres, nil
}

// genreNames is best effort: listings still render without genre names.
func (c *Client) genreNames(ctx context.Context, kind models.MediaKind) map[int]string {
	genres, err := c.Genres(ctx, kind)
	if err != nil {
		c.log.Warn().Err(err).Str("kind", string(kind)).Msg("genre list unavailable")
		return nil
	}
	names := make(map[int]string, len(genres))
	for _, g := range genres {
		names[g.ID] = g.Name
	}
	return names
}
