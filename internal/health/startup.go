// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pzpanel/pzpanel/internal/config"
	"github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/supervisor"
)

// PerformStartupChecks validates the environment before the daemon starts serving.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	// 1. Listeners
	if err := checkListeners(logger, cfg); err != nil {
		return fmt.Errorf("listener check failed: %w", err)
	}

	// 2. Game server installation
	if err := checkServerDir(logger, afero.NewOsFs(), cfg.Server.Path); err != nil {
		return fmt.Errorf("server directory check failed: %w", err)
	}

	// 3. Optional integrations
	checkIntegrations(logger, cfg)

	logger.Info().Msg("All startup checks passed")
	return nil
}

func checkListeners(logger zerolog.Logger, cfg config.AppConfig) error {
	if cfg.MetricsListen == "" {
		return nil
	}
	_, apiPort, err := net.SplitHostPort(cfg.Listen)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", cfg.Listen, err)
	}
	_, metricsPort, err := net.SplitHostPort(cfg.MetricsListen)
	if err != nil {
		return fmt.Errorf("invalid metrics listen address %q: %w", cfg.MetricsListen, err)
	}
	if apiPort == metricsPort && apiPort != "0" {
		return fmt.Errorf("API and metrics listeners share port %s", apiPort)
	}
	logger.Info().Str("addr", cfg.Listen).Str("metrics_addr", cfg.MetricsListen).Msg("Listen addresses are valid")
	return nil
}

func checkServerDir(logger zerolog.Logger, fs afero.Fs, path string) error {
	if path == "" {
		logger.Warn().Msg("server path not configured; server control and settings need a serverPath per request")
		return nil
	}
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Settings are rewritten in place, so the directory must accept new files.
	testFile := filepath.Join(path, ".pzpanel_write_test")
	if err := afero.WriteFile(fs, testFile, []byte("ok"), 0600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = fs.Remove(testFile)

	launcher, err := supervisor.FindLauncher(fs, path)
	switch {
	case errors.Is(err, supervisor.ErrLauncherNotFound):
		logger.Warn().Str(log.FieldPath, path).Msg("no server launcher found; start will fail until one exists")
	case err != nil:
		return err
	default:
		logger.Info().Str("launcher", launcher).Msg("Server launcher found")
	}
	return nil
}

func checkIntegrations(logger zerolog.Logger, cfg config.AppConfig) {
	if cfg.RCON.Password == "" {
		logger.Warn().Msg("RCON password not configured; requests must supply one")
	}
	if cfg.Steam.APIKey == "" {
		logger.Warn().Msg("Steam API key not configured; workshop search and details are disabled")
	}
	for _, dir := range cfg.Database.SearchDirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logger.Warn().Str(log.FieldPath, dir).Msg("database search directory is missing")
		}
	}
}
