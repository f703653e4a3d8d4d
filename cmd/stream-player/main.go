// Command stream-player runs the streaming backend API server.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/config"
	"github.com/justestif/go-stream-player/internal/db"
	"github.com/justestif/go-stream-player/internal/engagement"
	"github.com/justestif/go-stream-player/internal/history"
	"github.com/justestif/go-stream-player/internal/identity"
	"github.com/justestif/go-stream-player/internal/logger"
	"github.com/justestif/go-stream-player/internal/player"
	"github.com/justestif/go-stream-player/internal/stats"
	"github.com/justestif/go-stream-player/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogPath)
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrapping schema: %w", err)
	}

	if pruned, err := database.Sessions().DeleteExpired(ctx); err != nil {
		log.Warn("pruning expired sessions", zap.Error(err))
	} else if pruned > 0 {
		log.Info("pruned expired sessions", zap.Int64("count", pruned))
	}

	sessions := identity.NewDBSessionStore(database)
	catalog := player.NewCatalog(database)
	playerService := player.NewService(
		database.Players(),
		database.History(),
		catalog,
		cfg.AdsInterval,
		log.Named("player"),
	)
	ledger := history.NewLedger(database.History(), cfg.RecentlyPlayedMax, log.Named("history"))
	recorder := engagement.NewRecorder(database, log.Named("engagement"))
	statsService := stats.NewService(database, log.Named("stats"))

	server := web.NewServer(web.ServerConfig{
		Addr:     cfg.Addr,
		Logger:   log.Named("web"),
		Resolver: sessions,
		Issuer:   sessions,
		Users:    database.Users(),
		Player:   playerService,
		Ledger:   ledger,
		Recorder: recorder,
		Stats:    statsService,
	})

	return server.Run()
}
