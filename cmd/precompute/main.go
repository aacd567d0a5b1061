package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/osmquality/osmquality/internal/config"
	"github.com/osmquality/osmquality/internal/engine"
	"github.com/osmquality/osmquality/internal/geodb"
	"github.com/osmquality/osmquality/internal/ohsome"
	"github.com/osmquality/osmquality/internal/registry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dataset := flag.String("dataset", "regions", "dataset to precompute over")
	indicatorName := flag.String("indicator", "", "restrict to one indicator (default: all)")
	layerName := flag.String("layer", "", "restrict to one layer (default: all valid for the indicator)")
	force := flag.Bool("force", false, "recompute and overwrite stored results")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg, err := registry.New()
	if err != nil {
		slog.Error("failed to load registry", "error", err)
		os.Exit(1)
	}

	db, err := geodb.Connect(ctx, cfg.Database.URL, reg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	client := ohsome.NewClient(cfg.Ohsome.API, cfg.Ohsome.UserAgent, cfg.Ohsome.Timeout)
	eng := engine.New(reg, db, client, cfg.GeomSizeLimitSqkm)

	tasks, err := eng.Tasks(ctx, *dataset, *indicatorName, *layerName)
	if err != nil {
		slog.Error("failed to expand precompute tasks", "error", err)
		os.Exit(1)
	}

	res := eng.RunAll(ctx, tasks, *force)
	if res.Failed > 0 {
		slog.Error("precompute finished with failures", "total", res.Total, "failed", res.Failed)
		os.Exit(1)
	}
	slog.Info("precompute finished", "total", res.Total)
}
