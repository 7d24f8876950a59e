// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"
	"time"

	"github.com/pzpanel/pzpanel/internal/validate"
)

// Validate checks a resolved AppConfig and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("listen", cfg.Listen)
	if cfg.MetricsListen != "" {
		v.ListenAddr("metricsListen", cfg.MetricsListen)
	}
	v.OneOf("logLevel", strings.ToLower(cfg.LogLevel), validate.LogLevels)

	if cfg.Server.Path != "" {
		v.Directory("server.path", cfg.Server.Path, true)
	}
	v.NotEmpty("server.name", cfg.Server.Name)
	v.DurationRange("server.stopGrace", cfg.Server.StopGrace, 0, 5*time.Minute)
	v.Range("server.logCapacity", cfg.Server.LogCapacity, 1, 100000)

	v.NotEmpty("rcon.host", cfg.RCON.Host)
	v.Port("rcon.port", cfg.RCON.Port)
	v.DurationRange("rcon.timeout", cfg.RCON.Timeout, 100*time.Millisecond, time.Minute)

	v.Positive("steam.appId", cfg.Steam.AppID)
	v.URL("steam.apiBaseURL", cfg.Steam.APIBaseURL, []string{"http", "https"})
	v.URL("steam.communityBaseURL", cfg.Steam.CommunityBaseURL, []string{"http", "https"})
	v.DurationRange("steam.timeout", cfg.Steam.Timeout, time.Second, 2*time.Minute)
	if cfg.Steam.RequestsPerSecond <= 0 {
		v.AddError("steam.requestsPerSecond", "must be positive", cfg.Steam.RequestsPerSecond)
	}
	v.Positive("steam.burst", cfg.Steam.Burst)
	v.Range("steam.retries", cfg.Steam.Retries, 0, 10)
	v.Range("steam.concurrency", cfg.Steam.Concurrency, 1, 16)
	v.Positive("steam.breakerThreshold", cfg.Steam.BreakerThreshold)

	v.OneOf("cache.backend", cfg.Cache.Backend, []string{"memory", "redis"})
	if cfg.Cache.Backend == "redis" {
		v.NotEmpty("cache.redisAddr", cfg.Cache.RedisAddr)
	}
	v.Range("cache.redisDB", cfg.Cache.RedisDB, 0, 15)

	v.NonNegative("api.rateLimit", cfg.API.RateLimit)
	v.Positive("api.maxConnections", cfg.API.MaxConnections)
	if cfg.API.MaxBodyBytes <= 0 {
		v.AddError("api.maxBodyBytes", "must be positive", cfg.API.MaxBodyBytes)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.ExporterType, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
