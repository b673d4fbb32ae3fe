// Package main запускает локальный бэкенд витрины для разработки.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/storefront/internal/config"
	"github.com/mmeshcher/storefront/internal/handler"
	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.ParseServer()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := repository.NewMemoryRepository()
	if err := repository.Seed(ctx, repo); err != nil {
		sugar.Fatalw("seed error", "error", err.Error())
	}

	svc := service.NewService(repo)
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.TokenSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	warmup := middleware.NewWarmup(cfg.Warmup)
	r := h.SetupRouter(warmup.Middleware, middleware.Latency(cfg.Latency))

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting storefront dev backend",
			"addr", cfg.RunAddress,
			"warmup", cfg.Warmup,
			"latency", cfg.Latency,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve dev backend: %w", err)
		}
		return nil
	})

	if cfg.Warmup > 0 {
		g.Go(func() error {
			timer := time.NewTimer(cfg.Warmup)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
				sugar.Infow("datastore ready", "ready", warmup.Ready())
			}
			return nil
		})
	}

	// Остановка по сигналу или при ошибке сервера
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("stopping dev backend")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown dev backend: %w", err)
		}
		sugar.Info("dev backend stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("dev backend terminated", "error", err)
	}
}
