// Package catalog serves catalog listings: curated media first, then pages of
// the external catalog with banned items filtered out, cut to a fixed size.
package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"moviehub/internal/banned"
	"moviehub/internal/localmedia"
	"moviehub/internal/logging"
	"moviehub/internal/tmdb"
	"moviehub/pkg/models"
)

const DefaultPageSize = 20

// PageFetcher returns one page of external results.
type PageFetcher func(ctx context.Context, page int) (tmdb.Page, error)

type CuratedSource interface {
	ListAll(ctx context.Context, q localmedia.ListQuery) ([]models.MediaItem, error)
}

type Suppressions interface {
	Set(ctx context.Context, kind models.MediaKind) (banned.Set, error)
}

// Request describes one aggregated page. An empty Kind means mixed results
// (search), where each external item is checked against its own kind.
type Request struct {
	Kind   models.MediaKind
	Page   int
	Target int
	Query  string
}

type Result struct {
	Items []models.MediaItem
	// Degraded is set when the external source failed and only curated
	// items were returned.
	Degraded bool
}

type Aggregator struct {
	Curated CuratedSource
	Banned  Suppressions
	// DegradedFallback returns curated-only results instead of failing
	// when the external source errors.
	DegradedFallback bool

	log zerolog.Logger
}

func NewAggregator(curated CuratedSource, suppressions Suppressions, degradedFallback bool) *Aggregator {
	return &Aggregator{
		Curated:          curated,
		Banned:           suppressions,
		DegradedFallback: degradedFallback,
		log:              logging.Component("catalog"),
	}
}

// Aggregate builds one page: curated items in store order, then external
// items that are not banned, fetched page by page until the target is met
// or the source runs out. The result never exceeds req.Target. External
// pages are not deduplicated against each other.
func (a *Aggregator) Aggregate(ctx context.Context, req Request, fetch PageFetcher) (Result, error) {
	target := req.Target
	if target <= 0 {
		target = DefaultPageSize
	}
	page := max(req.Page, 1)

	curated, err := a.Curated.ListAll(ctx, localmedia.ListQuery{Kind: req.Kind, Query: req.Query})
	if err != nil {
		return Result{}, fmt.Errorf("list curated media: %w", err)
	}

	out := make([]models.MediaItem, 0, target)
	out = append(out, curated...)
	if len(out) >= target {
		return Result{Items: out[:target]}, nil
	}

	suppressed, err := a.Banned.Set(ctx, req.Kind)
	if err != nil {
		return Result{}, fmt.Errorf("load banned media: %w", err)
	}

	for {
		p, err := fetch(ctx, page)
		if err != nil {
			if a.DegradedFallback {
				a.log.Warn().Err(err).Int("page", page).Str("kind", string(req.Kind)).
					Msg("external source failed, serving curated items only")
				return Result{Items: truncate(curated, target), Degraded: true}, nil
			}
			return Result{}, fmt.Errorf("fetch external page %d: %w", page, err)
		}

		for _, item := range p.Results {
			kind := item.MediaType
			if kind == "" {
				kind = req.Kind
			}
			if suppressed.Has(kind, item.ID) {
				continue
			}
			out = append(out, item)
		}

		current := p.Page
		if current == 0 {
			current = page
		}
		// a page can be empty after normalisation (search drops people)
		// while later pages still hold titles, so only total_pages ends the walk
		if len(out) >= target || current >= p.TotalPages {
			break
		}
		page = current + 1
	}

	return Result{Items: truncate(out, target)}, nil
}

func truncate(items []models.MediaItem, n int) []models.MediaItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}
