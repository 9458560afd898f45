package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"dormdesk/internal/adapters/ical"
	"dormdesk/internal/adapters/observability"
	"dormdesk/internal/app"
	"dormdesk/internal/shared"
	mysqlrepo "dormdesk/internal/storage/mysql"
)

// One-shot reconciliation pass: sync every room type that has a feed
// configured, a few room types at a time. Intended to run from cron.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().Int("workers", cfg.SyncWorkers).Msg("syncer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	feed := ical.New(cfg.FeedRPS, cfg.FeedTimeout)
	syncer := app.NewSync(repo, repo, feed)

	rooms, err := repo.ListRoomTypes(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list room types failed")
	}

	sem := semaphore.NewWeighted(int64(cfg.SyncWorkers))
	var wg sync.WaitGroup

	for _, rt := range rooms {
		if rt.FeedURL == nil || *rt.FeedURL == "" {
			continue
		}
		rt := rt

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			res, err := syncer.SyncRoom(ctx, rt.ID, *rt.FeedURL)
			if err != nil {
				log.Warn().Str("room_type", rt.ID).Err(err).Msg("sync failed")
				return
			}
			log.Info().Str("room_type", rt.ID).
				Int("imported", res.Imported).Int("cancelled", res.Cancelled).
				Int("errors", len(res.Errors)).Int("warnings", len(res.Warnings)).
				Msg("sync ok")
		}()
	}

	wg.Wait()
	log.Info().Msg("sync pass completed")
}
