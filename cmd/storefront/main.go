// Package main запускает клиент витрины: одну команду или интерактивную оболочку.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/api"
	"github.com/mmeshcher/storefront/internal/app"
	"github.com/mmeshcher/storefront/internal/cart"
	"github.com/mmeshcher/storefront/internal/config"
	"github.com/mmeshcher/storefront/internal/session"
	"github.com/mmeshcher/storefront/internal/storefront"
)

func main() {
	logger, _ := zap.NewProduction()

	cfg, err := config.Parse()
	if err != nil {
		logger.Sugar().Fatalw("configuration error", "error", err.Error())
	}
	if cfg.Debug {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	hosts := api.Candidates(*cfg)
	sugar.Debugw("api hosts resolved", "hosts", hosts)

	client := api.NewClient(hosts, api.WithLogger(logger))
	svc := storefront.NewService(client, session.New(), logger)
	a := app.New(svc, cart.New(), os.Stdout, hosts[0], logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := flag.Args()
	if len(args) > 0 && args[0] == "shell" {
		if err := a.Shell(ctx, os.Stdin); err != nil && ctx.Err() == nil {
			sugar.Errorw("shell terminated with error", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := a.Run(ctx, args); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}
