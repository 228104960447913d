package main

import (
	"context"
	"encoding/csv"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"moviehub/internal/banned"
	"moviehub/internal/localmedia"
)

var mediaHeader = []string{
	"id", "title", "media_type", "overview", "poster_path",
	"release_date", "first_air_date", "vote_average", "genres",
}

// exportMedia writes curated media oldest first so a re-import recreates
// them in the same relative order. The columns match cmd/import-csv.
func exportMedia(ctx context.Context, repo *localmedia.Repo, out io.Writer) error {
	items, err := repo.ListAll(ctx, localmedia.ListQuery{})
	if err != nil {
		return err
	}
	slices.Reverse(items)

	w := csv.NewWriter(out)
	if err := w.Write(mediaHeader); err != nil {
		return err
	}
	for _, it := range items {
		if err := w.Write([]string{
			strconv.FormatInt(it.ID, 10),
			it.Title,
			string(it.MediaType),
			it.Overview,
			it.PosterPath,
			it.ReleaseDate,
			it.FirstAirDate,
			strconv.FormatFloat(it.VoteAverage, 'f', -1, 64),
			strings.Join(it.Genres, "|"),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func exportBanned(ctx context.Context, repo *banned.Repo, out io.Writer) error {
	entries, err := repo.List(ctx, "")
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"tmdb_id", "media_type", "reason", "created_at"}); err != nil {
		return err
	}
	for _, b := range entries {
		if err := w.Write([]string{
			strconv.FormatInt(b.TMDBID, 10),
			string(b.MediaType),
			b.Reason,
			b.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
