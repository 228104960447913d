package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"time"

	"moviehub/internal/banned"
	"moviehub/internal/localmedia"
	"moviehub/internal/logging"
	"moviehub/pkg/database"
)

func main() {
	var (
		mediaOut  = flag.String("media", "data/local_media.csv", "output CSV path for curated media")
		bannedOut = flag.String("banned", "data/banned.csv", "output CSV path for banned titles")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Console: true})
	log := logging.Component("export")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	media := localmedia.NewRepo(db)
	bans := banned.NewRepo(db)

	if err := writeFile(*mediaOut, func(w io.Writer) error { return exportMedia(ctx, media, w) }); err != nil {
		log.Fatal().Err(err).Msg("export media failed")
	}
	if err := writeFile(*bannedOut, func(w io.Writer) error { return exportBanned(ctx, bans, w) }); err != nil {
		log.Fatal().Err(err).Msg("export banned failed")
	}

	log.Info().Str("media", *mediaOut).Str("banned", *bannedOut).Msg("export complete")
}

func writeFile(path string, fn func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
