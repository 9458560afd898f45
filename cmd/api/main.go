package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "dormdesk/internal/adapters/http_server"
	"dormdesk/internal/adapters/ical"
	"dormdesk/internal/adapters/observability"
	redisad "dormdesk/internal/adapters/redis"
	"dormdesk/internal/app"
	"dormdesk/internal/shared"
	mysqlrepo "dormdesk/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	feed := ical.New(cfg.FeedRPS, cfg.FeedTimeout)

	h := &server.Handlers{
		Catalog:  app.NewCatalog(repo, cache, cfg.CacheTTL),
		Avail:    app.NewAvailability(repo, repo),
		Grid:     app.NewGrid(repo, repo),
		Lanes:    app.NewLanes(repo),
		Bookings: app.NewBookings(repo, repo),
		Sync:     app.NewSync(repo, repo, feed),
		Export:   app.NewExport(repo, repo, cache, cfg.CacheTTL),
	}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
