package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/briangreenhill/mapty/internal/activity"
	"github.com/briangreenhill/mapty/internal/config"
	"github.com/briangreenhill/mapty/internal/coordinator"
	"github.com/briangreenhill/mapty/internal/geolocation"
	"github.com/briangreenhill/mapty/internal/listview"
	"github.com/briangreenhill/mapty/internal/logging"
	"github.com/briangreenhill/mapty/internal/mapsurface"
	"github.com/briangreenhill/mapty/internal/observability"
	"github.com/briangreenhill/mapty/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	w := os.Stdout
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{})).Error("Error loading config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New(w, cfg.LogLevel, cfg.LogFormat)

	kv, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("Error opening store", slog.String("store", cfg.Store), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	panel := listview.NewPanel()
	coord := coordinator.New(panel, storage.NewSnapshots(kv, cfg.StorageKey, logger),
		coordinator.WithLogger(logger),
		coordinator.WithMetrics(observability.NewMetrics(reg)),
		coordinator.WithZoom(cfg.Zoom),
		coordinator.WithStrict(cfg.Strict),
		coordinator.WithNotifier(coordinator.NotifierFunc(func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		})),
	)
	service := activity.NewService(coord, mapsurface.NewLayer(), panel, geolocation.Static{Position: cfg.Home()}, logger)

	if err := run(context.Background(), w, os.Args[1:], cfg, logger, service, reg); err != nil {
		logger.Error("Error running mapty", slog.Any("error", err))
		closeStore()
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, args []string, cfg config.Config, logger *slog.Logger, service *activity.Service, gatherer prometheus.Gatherer) error {
	cli := activity.NewCLI(w, logger, service, activity.APIConfig{
		Addr:        cfg.Addr,
		UIDir:       cfg.UIDir,
		MapboxToken: cfg.MapboxToken,
	}, gatherer, args)

	return cli.Run(ctx, args)
}

func openStore(cfg config.Config) (storage.KV, func(), error) {
	switch cfg.Store {
	case "redis":
		client := storage.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword)
		if client == nil {
			return nil, nil, fmt.Errorf("MAPTY_REDIS_ADDR is required for the redis store")
		}
		kv := storage.NewRedis(client, "mapty:")
		return kv, func() { _ = kv.Close() }, nil
	case "memory":
		return storage.NewMemory(), func() {}, nil
	case "sqlite", "":
		kv, err := storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
