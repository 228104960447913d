package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"moviehub/internal/jobs"
	"moviehub/internal/logging"
	"moviehub/pkg/database"
	"moviehub/pkg/utils"
)

func main() {
	utils.LoadDotEnv()
	cfg := utils.Load()
	logging.Init(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File, Console: cfg.Log.Console})
	log := logging.Component("api")
	gin.SetMode(gin.ReleaseMode)

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}
	if cfg.TMDB.APIKey == "" {
		log.Warn().Msg("TMDB_API_KEY not set, external catalog requests will fail")
	}

	a := newApp(cfg, db)

	sched := jobs.NewScheduler()
	if err := sched.AddTokenCleanup(cfg.TokenCleanupSpec, a.authRepo); err != nil {
		log.Fatal().Err(err).Msg("schedule jobs")
	}
	sched.Start()

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("db", dbCfg.Path).Msg("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	sched.Stop(shutdownCtx)
	log.Info().Msg("server stopped")
}
