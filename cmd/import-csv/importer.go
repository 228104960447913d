package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"moviehub/internal/apperr"
	"moviehub/internal/banned"
	"moviehub/internal/localmedia"
	"moviehub/pkg/models"
)

type importer struct {
	media        *localmedia.Repo
	bans         *banned.Repo
	skipExisting bool
}

type stats struct {
	Created int
	Skipped int
}

// importMedia reads title,media_type,overview,release_date,first_air_date,
// vote_average,poster_path,genres (genres separated by '|'). Column order is
// free; unknown columns are ignored.
func (imp *importer) importMedia(ctx context.Context, src io.Reader) (stats, error) {
	var st stats
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return st, err
	}

	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, err
		}

		in := localmedia.Input{
			MediaType:    valueAt(header, row, "media_type"),
			Title:        valueAt(header, row, "title"),
			Overview:     valueAt(header, row, "overview"),
			PosterPath:   valueAt(header, row, "poster_path"),
			ReleaseDate:  valueAt(header, row, "release_date"),
			FirstAirDate: valueAt(header, row, "first_air_date"),
			Genres:       splitList(valueAt(header, row, "genres")),
		}
		if in.Title == "" {
			st.Skipped++
			continue
		}
		if raw := valueAt(header, row, "vote_average"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return st, fmt.Errorf("line %d: vote_average: %w", line, err)
			}
			in.VoteAverage = v
		}

		if imp.skipExisting {
			exists, err := imp.exists(ctx, in)
			if err != nil {
				return st, fmt.Errorf("line %d: %w", line, err)
			}
			if exists {
				st.Skipped++
				continue
			}
		}

		if _, err := imp.media.Create(ctx, in); err != nil {
			return st, fmt.Errorf("line %d: %w", line, err)
		}
		st.Created++
	}
	return st, nil
}

func (imp *importer) exists(ctx context.Context, in localmedia.Input) (bool, error) {
	kind, ok := models.ParseKind(in.MediaType)
	if !ok {
		// let Create report the validation error
		return false, nil
	}
	items, err := imp.media.ListAll(ctx, localmedia.ListQuery{Kind: kind, Query: in.Title})
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if strings.EqualFold(it.Title, in.Title) {
			return true, nil
		}
	}
	return false, nil
}

// importBanned reads tmdb_id,media_type,reason. Rows already banned are skipped.
func (imp *importer) importBanned(ctx context.Context, src io.Reader) (stats, error) {
	var st stats
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return st, err
	}

	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, err
		}

		id, err := strconv.ParseInt(valueAt(header, row, "tmdb_id"), 10, 64)
		if err != nil {
			return st, fmt.Errorf("line %d: tmdb_id: %w", line, err)
		}
		kind, ok := models.ParseKind(valueAt(header, row, "media_type"))
		if !ok {
			return st, fmt.Errorf("line %d: media_type must be movie or tv", line)
		}

		if _, err := imp.bans.Add(ctx, id, kind, valueAt(header, row, "reason")); err != nil {
			if apperr.Is(err, apperr.KindConflict) {
				st.Skipped++
				continue
			}
			return st, fmt.Errorf("line %d: %w", line, err)
		}
		st.Created++
	}
	return st, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
