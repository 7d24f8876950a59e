// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pzpanel/pzpanel/internal/api"
	"github.com/pzpanel/pzpanel/internal/cache"
	"github.com/pzpanel/pzpanel/internal/config"
	"github.com/pzpanel/pzpanel/internal/daemon"
	"github.com/pzpanel/pzpanel/internal/database"
	"github.com/pzpanel/pzpanel/internal/files"
	"github.com/pzpanel/pzpanel/internal/health"
	xglog "github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/settings"
	"github.com/pzpanel/pzpanel/internal/supervisor"
	"github.com/pzpanel/pzpanel/internal/system"
	"github.com/pzpanel/pzpanel/internal/telemetry"
	"github.com/pzpanel/pzpanel/internal/version"
	"github.com/pzpanel/pzpanel/internal/workshop"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	loader := config.NewLoader(opts.configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	xglog.Reconfigure(xglog.Config{Level: level, Service: "pzpanel", Version: version.Version})
	logger := xglog.WithComponent("daemon")
	logger.Info().
		Str(xglog.FieldEvent, "daemon.starting").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("config", loader.Path()).
		Bool("telemetry", cfg.Telemetry.Enabled).
		Str("otlp_endpoint", config.MaskURL(cfg.Telemetry.Endpoint)).
		Msg("starting pzpanel")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return err
	}

	holder := config.NewHolder(cfg, loader)

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	respCache, err := cache.New(ctx, cache.Options{
		Backend: cfg.Cache.Backend,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   "pzpanel:",
		},
	}, xglog.WithComponent("cache"))
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return fmt.Errorf("init cache: %w", err)
	}

	store := files.NewOSStore()
	catalog := settings.DefaultCatalog()

	steam := workshop.New(workshop.Options{
		APIKey:            func() string { return holder.Get().Steam.APIKey },
		AppID:             cfg.Steam.AppID,
		APIBaseURL:        cfg.Steam.APIBaseURL,
		CommunityBaseURL:  cfg.Steam.CommunityBaseURL,
		Timeout:           cfg.Steam.Timeout,
		RequestsPerSecond: cfg.Steam.RequestsPerSecond,
		Burst:             cfg.Steam.Burst,
		Retries:           cfg.Steam.Retries,
		Concurrency:       cfg.Steam.Concurrency,
		BreakerThreshold:  cfg.Steam.BreakerThreshold,
		BreakerReset:      cfg.Steam.BreakerReset,
		Cache:             respCache,
		CacheTTL:          cfg.Cache.TTL,
	})

	game := supervisor.New(supervisor.Options{
		ExtraArgs:   func() string { return holder.Get().Server.ExtraArgs },
		StopGrace:   cfg.Server.StopGrace,
		LogCapacity: cfg.Server.LogCapacity,
	})

	browser := database.New(database.Options{
		SearchDirs:  func() []string { return holder.Get().Database.SearchDirs },
		BusyTimeout: cfg.Database.BusyTimeout,
	})

	hm := health.NewManager(version.Version)
	hm.RegisterChecker(health.NewServerFilesChecker(func() (string, string) {
		c := holder.Get()
		return c.Server.Path, c.Server.Name
	}))
	hm.RegisterChecker(health.NewBreakerChecker("steam", steam.Breaker().Snapshot))
	hm.RegisterChecker(health.NewGameServerChecker(func() (bool, int) {
		st := game.Status()
		return st.Running, st.PID
	}))

	srv := api.New(api.Deps{
		Config:   holder.Get,
		Catalog:  catalog,
		Files:    store,
		Workshop: steam,
		Server:   game,
		Database: browser,
		System:   system.New(system.Options{}),
		Health:   hm,
	})

	mgr, err := daemon.NewManager(daemon.HTTPConfigFrom(cfg), daemon.Deps{
		Logger:         logger,
		APIHandler:     srv.Handler(),
		MetricsAddr:    cfg.MetricsListen,
		MetricsHandler: promhttp.Handler(),
	})
	if err != nil {
		_ = respCache.Close()
		_ = tp.Shutdown(context.Background())
		return err
	}
	// Hooks run in reverse: the game server stops first, the cache closes last.
	mgr.RegisterShutdownHook("cache", func(context.Context) error { return respCache.Close() })
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("supervisor", game.Close)

	app := daemon.NewApp(logger, mgr, holder)
	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("pzpanel stopped with error")
		return err
	}
	logger.Info().Str(xglog.FieldEvent, "daemon.stopped").Msg("pzpanel stopped")
	return nil
}
