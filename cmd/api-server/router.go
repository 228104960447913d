package main

import (
	"context"
	"database/sql"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"moviehub/internal/auth"
	"moviehub/internal/banned"
	"moviehub/internal/catalog"
	"moviehub/internal/lists"
	"moviehub/internal/localmedia"
	"moviehub/internal/logging"
	"moviehub/internal/reviews"
	synchub "moviehub/internal/sync"
	"moviehub/internal/tmdb"
	"moviehub/pkg/utils"
)

type app struct {
	cfg      utils.Config
	db       *sql.DB
	hub      *synchub.Hub
	tokens   auth.TokenService
	authRepo *auth.Repo
	external catalog.External
}

func newApp(cfg utils.Config, db *sql.DB) *app {
	return &app{
		cfg:      cfg,
		db:       db,
		hub:      synchub.NewHub(),
		tokens:   auth.NewTokenService(cfg.Auth),
		authRepo: auth.NewRepo(db),
		external: tmdb.New(tmdb.Config{
			APIKey:     cfg.TMDB.APIKey,
			Language:   cfg.TMDB.Language,
			BaseURL:    cfg.TMDB.BaseURL,
			RatePerSec: cfg.TMDB.RatePerSec,
			CacheTTL:   cfg.TMDB.CacheTTL,
		}),
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(logging.GinLogger(), gin.Recovery(), corsMiddleware(a.cfg.CORSOrigins))
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		stats := a.hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := a.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_users":   stats.Users,
			"ws_clients": stats.Clients,
		})
	})
	r.GET("/ws", synchub.WSHandler(a.hub, a.tokens, a.cfg.CORSOrigins))

	api := r.Group("/api")
	requireAuth := auth.AuthMiddleware(a.tokens)

	// Auth
	authHandler := auth.NewHandler(a.authRepo, a.tokens, a.cfg.Auth.AdminEmails)
	authHandler.RegisterRoutes(api.Group("/auth"))

	// Catalog (public)
	curated := localmedia.NewRepo(a.db)
	bans := banned.NewRepo(a.db)
	agg := catalog.NewAggregator(curated, bans, a.cfg.Catalog.DegradedFallback)
	catalog.NewHandler(agg, a.external, curated, bans, a.cfg.Catalog.PageSize).RegisterRoutes(api)

	// Reviews
	reviewHandler := reviews.NewHandler(reviews.NewRepo(a.db))
	reviewHandler.RegisterPublicRoutes(api)
	protected := api.Group("", requireAuth)
	reviewHandler.RegisterProtectedRoutes(protected)

	// Watchlist and favorites
	lists.NewHandler(lists.NewRepo(a.db), a.hub).RegisterRoutes(protected.Group("/users/me"))

	// Admin
	admin := api.Group("/admin", requireAuth, auth.RequireAdmin())
	banned.NewHandler(bans).RegisterRoutes(admin)
	localmedia.NewHandler(curated).RegisterRoutes(admin)
	authHandler.RegisterAdminRoutes(admin)

	return r
}
