package main

import (
	"context"
	"flag"
	"os"
	"time"

	"moviehub/internal/banned"
	"moviehub/internal/localmedia"
	"moviehub/internal/logging"
	"moviehub/pkg/database"
)

func main() {
	var (
		mediaIn  = flag.String("media", "data/local_media.csv", "curated media CSV (empty to skip)")
		bannedIn = flag.String("banned", "", "banned titles CSV (empty to skip)")
		skipDup  = flag.Bool("skip-existing", true, "skip curated rows whose title and type already exist")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Console: true})
	log := logging.Component("import")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	imp := &importer{media: localmedia.NewRepo(db), bans: banned.NewRepo(db), skipExisting: *skipDup}

	if *mediaIn != "" {
		f, err := os.Open(*mediaIn)
		if err != nil {
			log.Fatal().Err(err).Msg("open media csv")
		}
		st, err := imp.importMedia(ctx, f)
		_ = f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("import media failed")
		}
		log.Info().Str("file", *mediaIn).Int("created", st.Created).Int("skipped", st.Skipped).Msg("curated media imported")
	}

	if *bannedIn != "" {
		f, err := os.Open(*bannedIn)
		if err != nil {
			log.Fatal().Err(err).Msg("open banned csv")
		}
		st, err := imp.importBanned(ctx, f)
		_ = f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("import banned failed")
		}
		log.Info().Str("file", *bannedIn).Int("created", st.Created).Int("skipped", st.Skipped).Msg("banned titles imported")
	}
}
