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
	"github.com/kuticlicker/backend/auth"
	"github.com/kuticlicker/backend/config"
	"github.com/kuticlicker/backend/db"
	"github.com/kuticlicker/backend/game"
	"github.com/kuticlicker/backend/logger"
	"github.com/rs/zerolog/log"
)

const (
	adminTokenMaxAge = 24 * time.Hour
	shutdownTimeout  = 10 * time.Second
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	if !cfg.LogPretty {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.NewSessionStore(ctx, cfg.UseMocks, cfg.AWSRegion)
	if err != nil {
		log.Fatal().Err(err).Msg("session store init failed")
	}
	board := NewLeaderboard(ctx, cfg.UseMocks, cfg.RedisEndpoint)
	defer board.Close()

	svc := game.NewService(
		game.WithArchiver(&sessionArchiver{store: store, board: board}),
		game.WithMaxCapacity(cfg.MaxRoomCapacity),
		game.WithLogger(logger.For("game")),
	)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		svc.Run(ctx)
	}()

	if cfg.AdminJWTSecret == "" {
		log.Warn().Msg("ADMIN_JWT_SECRET not set, admin endpoints disabled")
	}
	s := &server{
		cfg:    cfg,
		svc:    svc,
		store:  store,
		board:  board,
		tokens: auth.NewTokenManager(cfg.AdminJWTSecret, adminTokenMaxAge),
		log:    logger.For("http"),
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s.router(),
	}
	go func() {
		log.Info().Str("port", cfg.Port).Bool("mocks", cfg.UseMocks).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	<-loopDone
}
