package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osmquality/osmquality/internal/api"
	"github.com/osmquality/osmquality/internal/config"
	"github.com/osmquality/osmquality/internal/engine"
	"github.com/osmquality/osmquality/internal/geodb"
	"github.com/osmquality/osmquality/internal/ohsome"
	"github.com/osmquality/osmquality/internal/registry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("osmquality-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"listen_addr", cfg.Server.ListenAddr,
		"ohsome_api", cfg.Ohsome.API,
		"geom_size_limit_sqkm", cfg.GeomSizeLimitSqkm,
	)

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

	// Live reload of the geometry size limit.
	go func() {
		err := config.Watch(ctx, *configPath, func(next *config.Config) {
			eng.SetSizeLimit(next.GeomSizeLimitSqkm)
			slog.Info("geometry size limit updated", "sqkm", next.GeomSizeLimitSqkm)
		})
		if err != nil {
			slog.Error("config watch stopped", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: api.New(eng, reg).Routes(),
	}
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("osmquality-server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx) //nolint:errcheck
}
