// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pzpanel/pzpanel/internal/netutil"
)

// DotEnvFiles are read, in order, before environment overrides are applied.
var DotEnvFiles = []string{".env.local", ".env"}

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
	dotenv     []string
}

// NewLoader creates a new configuration loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
		dotenv:     DotEnvFiles,
	}
}

// WithDotEnv replaces the list of dotenv files. Paths are relative to the working directory.
func (l *Loader) WithDotEnv(files ...string) *Loader {
	l.dotenv = files
	return l
}

// Path returns the YAML file the loader reads, or "".
func (l *Loader) Path() string {
	return l.configPath
}

// Load resolves the configuration: defaults, then file, then environment, then validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if err := l.loadDotEnv(); err != nil {
		return cfg, fmt.Errorf("load dotenv: %w", err)
	}

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	mergeEnvConfig(&cfg)

	// Bare ports ("3000") are accepted; invalid values are left for Validate.
	if addr, err := netutil.NormalizeListenAddr(cfg.Listen); err == nil {
		cfg.Listen = addr
	}
	if cfg.MetricsListen != "" {
		if addr, err := netutil.NormalizeListenAddr(cfg.MetricsListen); err == nil {
			cfg.MetricsListen = addr
		}
	}

	if cfg.Server.Path != "" {
		if abs, err := filepath.Abs(cfg.Server.Path); err == nil {
			cfg.Server.Path = abs
		}
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadDotEnv() error {
	var present []string
	for _, f := range l.dotenv {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields cause an error wrapping ErrUnknownConfigField.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFileConfig(data)
}

func parseFileConfig(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	return NewLoader(path, "").loadFile(path)
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	var errs []error
	dur := func(field, raw string, dst *time.Duration) {
		if raw == "" {
			return
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return
		}
		*dst = d
	}
	str := func(src string, dst *string) {
		if src != "" {
			*dst = src
		}
	}
	num := func(src int, dst *int) {
		if src != 0 {
			*dst = src
		}
	}

	str(f.Listen, &cfg.Listen)
	str(f.MetricsListen, &cfg.MetricsListen)
	str(f.LogLevel, &cfg.LogLevel)

	str(f.Server.Path, &cfg.Server.Path)
	str(f.Server.Name, &cfg.Server.Name)
	str(f.Server.ExtraArgs, &cfg.Server.ExtraArgs)
	dur("server.stopGrace", f.Server.StopGrace, &cfg.Server.StopGrace)
	num(f.Server.LogCapacity, &cfg.Server.LogCapacity)

	str(f.RCON.Host, &cfg.RCON.Host)
	num(f.RCON.Port, &cfg.RCON.Port)
	str(f.RCON.Password, &cfg.RCON.Password)
	dur("rcon.timeout", f.RCON.Timeout, &cfg.RCON.Timeout)

	str(f.Steam.APIKey, &cfg.Steam.APIKey)
	num(f.Steam.AppID, &cfg.Steam.AppID)
	str(f.Steam.APIBaseURL, &cfg.Steam.APIBaseURL)
	str(f.Steam.CommunityBaseURL, &cfg.Steam.CommunityBaseURL)
	dur("steam.timeout", f.Steam.Timeout, &cfg.Steam.Timeout)
	if f.Steam.RequestsPerSecond != 0 {
		cfg.Steam.RequestsPerSecond = f.Steam.RequestsPerSecond
	}
	num(f.Steam.Burst, &cfg.Steam.Burst)
	if f.Steam.Retries != nil {
		cfg.Steam.Retries = *f.Steam.Retries
	}
	num(f.Steam.Concurrency, &cfg.Steam.Concurrency)
	num(f.Steam.BreakerThreshold, &cfg.Steam.BreakerThreshold)
	dur("steam.breakerReset", f.Steam.BreakerReset, &cfg.Steam.BreakerReset)

	str(f.Cache.Backend, &cfg.Cache.Backend)
	dur("cache.ttl", f.Cache.TTL, &cfg.Cache.TTL)
	str(f.Cache.RedisAddr, &cfg.Cache.RedisAddr)
	str(f.Cache.RedisPassword, &cfg.Cache.RedisPassword)
	num(f.Cache.RedisDB, &cfg.Cache.RedisDB)

	num(f.API.RateLimit, &cfg.API.RateLimit)
	if len(f.API.CORSOrigins) > 0 {
		cfg.API.CORSOrigins = f.API.CORSOrigins
	}
	num(f.API.MaxConnections, &cfg.API.MaxConnections)
	if f.API.MaxBodyBytes != 0 {
		cfg.API.MaxBodyBytes = f.API.MaxBodyBytes
	}
	dur("api.shutdownTimeout", f.API.ShutdownTimeout, &cfg.API.ShutdownTimeout)

	if f.Telemetry.Enabled != nil {
		cfg.Telemetry.Enabled = *f.Telemetry.Enabled
	}
	str(f.Telemetry.ServiceName, &cfg.Telemetry.ServiceName)
	str(f.Telemetry.Environment, &cfg.Telemetry.Environment)
	str(f.Telemetry.ExporterType, &cfg.Telemetry.ExporterType)
	str(f.Telemetry.Endpoint, &cfg.Telemetry.Endpoint)
	if f.Telemetry.SamplingRate != nil {
		cfg.Telemetry.SamplingRate = *f.Telemetry.SamplingRate
	}

	if len(f.Database.SearchDirs) > 0 {
		cfg.Database.SearchDirs = f.Database.SearchDirs
	}
	dur("database.busyTimeout", f.Database.BusyTimeout, &cfg.Database.BusyTimeout)

	return errors.Join(errs...)
}

// mergeEnvConfig applies environment overrides (highest priority).
func mergeEnvConfig(cfg *AppConfig) {
	cfg.Listen = ParseString("PZPANEL_LISTEN", cfg.Listen)
	cfg.MetricsListen = ParseString("PZPANEL_METRICS_LISTEN", cfg.MetricsListen)
	cfg.LogLevel = ParseString("PZPANEL_LOG_LEVEL", cfg.LogLevel)

	cfg.Server.Path = ParseString("PZPANEL_SERVER_PATH", cfg.Server.Path)
	cfg.Server.Name = ParseString("PZPANEL_SERVER_NAME", cfg.Server.Name)
	cfg.Server.ExtraArgs = ParseString("PZPANEL_SERVER_ARGS", cfg.Server.ExtraArgs)
	cfg.Server.StopGrace = ParseDuration("PZPANEL_SERVER_STOP_GRACE", cfg.Server.StopGrace)
	cfg.Server.LogCapacity = ParseInt("PZPANEL_SERVER_LOG_CAPACITY", cfg.Server.LogCapacity)

	cfg.RCON.Host = ParseString("PZPANEL_RCON_HOST", cfg.RCON.Host)
	cfg.RCON.Port = ParseInt("PZPANEL_RCON_PORT", cfg.RCON.Port)
	cfg.RCON.Password = ParseString("PZPANEL_RCON_PASSWORD", cfg.RCON.Password)
	cfg.RCON.Timeout = ParseDuration("PZPANEL_RCON_TIMEOUT", cfg.RCON.Timeout)

	// STEAM_API_KEY is the variable existing deployments already set.
	cfg.Steam.APIKey = ParseString("STEAM_API_KEY", cfg.Steam.APIKey)
	cfg.Steam.APIKey = ParseString("PZPANEL_STEAM_API_KEY", cfg.Steam.APIKey)
	cfg.Steam.Timeout = ParseDuration("PZPANEL_STEAM_TIMEOUT", cfg.Steam.Timeout)
	cfg.Steam.RequestsPerSecond = ParseFloat("PZPANEL_STEAM_RPS", cfg.Steam.RequestsPerSecond)
	cfg.Steam.Retries = ParseInt("PZPANEL_STEAM_RETRIES", cfg.Steam.Retries)

	cfg.Cache.Backend = ParseString("PZPANEL_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.TTL = ParseDuration("PZPANEL_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = ParseString("PZPANEL_REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = ParseString("PZPANEL_REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = ParseInt("PZPANEL_REDIS_DB", cfg.Cache.RedisDB)

	cfg.API.RateLimit = ParseInt("PZPANEL_API_RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.CORSOrigins = ParseList("PZPANEL_CORS_ORIGINS", cfg.API.CORSOrigins)
	cfg.API.MaxConnections = ParseInt("PZPANEL_MAX_CONNECTIONS", cfg.API.MaxConnections)

	cfg.Telemetry.Enabled = ParseBool("PZPANEL_TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ExporterType = ParseString("PZPANEL_OTLP_EXPORTER", cfg.Telemetry.ExporterType)
	cfg.Telemetry.Endpoint = ParseString("PZPANEL_OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat("PZPANEL_TRACE_SAMPLING", cfg.Telemetry.SamplingRate)

	cfg.Database.SearchDirs = ParseList("PZPANEL_DB_DIRS", cfg.Database.SearchDirs)
}
