package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"refleks/internal/config"
	"refleks/internal/httpapi"
	"refleks/internal/hub"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.LogMode == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, cfg.MatchWait, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		return srv.Shutdown(context.Background())
	})
	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
