// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Listen:   ":3000",
		LogLevel: "info",
		Server: ServerConfig{
			Name:        "servertest",
			StopGrace:   5 * time.Second,
			LogCapacity: 500,
		},
		RCON: RCONConfig{
			Host:    "127.0.0.1",
			Port:    27015,
			Timeout: 5 * time.Second,
		},
		Steam: SteamConfig{
			AppID:             108600,
			APIBaseURL:        "https://api.steampowered.com",
			CommunityBaseURL:  "https://steamcommunity.com",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
			Retries:           3,
			Concurrency:       4,
			BreakerThreshold:  5,
			BreakerReset:      30 * time.Second,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     10 * time.Minute,
		},
		API: APIConfig{
			RateLimit:       120,
			MaxConnections:  256,
			MaxBodyBytes:    4 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "pzpanel",
			Environment:  "production",
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		Database: DatabaseConfig{
			BusyTimeout: 5 * time.Second,
		},
	}
}
