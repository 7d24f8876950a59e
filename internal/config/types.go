// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the resolved runtime configuration.
type AppConfig struct {
	Version       string
	Listen        string
	MetricsListen string
	LogLevel      string

	Server    ServerConfig
	RCON      RCONConfig
	Steam     SteamConfig
	Cache     CacheConfig
	API       APIConfig
	Telemetry TelemetryConfig
	Database  DatabaseConfig
}

// ServerConfig describes the managed game server installation.
type ServerConfig struct {
	Path        string
	Name        string
	ExtraArgs   string
	StopGrace   time.Duration
	LogCapacity int
}

// RCONConfig holds remote console defaults. Requests may override them.
type RCONConfig struct {
	Host     string
	Port     int
	Password string
	Timeout  time.Duration
}

// SteamConfig configures the Steam Web API client.
type SteamConfig struct {
	APIKey            string
	AppID             int
	APIBaseURL        string
	CommunityBaseURL  string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Retries           int
	Concurrency       int
	BreakerThreshold  int
	BreakerReset      time.Duration
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	RateLimit       int
	CORSOrigins     []string
	MaxConnections  int
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	ExporterType string
	Endpoint     string
	SamplingRate float64
}

// DatabaseConfig configures the sqlite browser.
type DatabaseConfig struct {
	SearchDirs  []string
	BusyTimeout time.Duration
}

// FileConfig is the YAML file layout. Durations are Go duration strings and
// optional booleans are pointers so that an absent key keeps the default.
type FileConfig struct {
	Listen        string `yaml:"listen,omitempty"`
	MetricsListen string `yaml:"metricsListen,omitempty"`
	LogLevel      string `yaml:"logLevel,omitempty"`

	Server    ServerFileConfig    `yaml:"server,omitempty"`
	RCON      RCONFileConfig      `yaml:"rcon,omitempty"`
	Steam     SteamFileConfig     `yaml:"steam,omitempty"`
	Cache     CacheFileConfig     `yaml:"cache,omitempty"`
	API       APIFileConfig       `yaml:"api,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
	Database  DatabaseFileConfig  `yaml:"database,omitempty"`
}

type ServerFileConfig struct {
	Path        string `yaml:"path,omitempty"`
	Name        string `yaml:"name,omitempty"`
	ExtraArgs   string `yaml:"extraArgs,omitempty"`
	StopGrace   string `yaml:"stopGrace,omitempty"`
	LogCapacity int    `yaml:"logCapacity,omitempty"`
}

type RCONFileConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Password string `yaml:"password,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"`
}

type SteamFileConfig struct {
	APIKey            string  `yaml:"apiKey,omitempty"`
	AppID             int     `yaml:"appId,omitempty"`
	APIBaseURL        string  `yaml:"apiBaseURL,omitempty"`
	CommunityBaseURL  string  `yaml:"communityBaseURL,omitempty"`
	Timeout           string  `yaml:"timeout,omitempty"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
	Retries           *int    `yaml:"retries,omitempty"`
	Concurrency       int     `yaml:"concurrency,omitempty"`
	BreakerThreshold  int     `yaml:"breakerThreshold,omitempty"`
	BreakerReset      string  `yaml:"breakerReset,omitempty"`
}

type CacheFileConfig struct {
	Backend       string `yaml:"backend,omitempty"`
	TTL           string `yaml:"ttl,omitempty"`
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       int    `yaml:"redisDB,omitempty"`
}

type APIFileConfig struct {
	RateLimit       int      `yaml:"rateLimit,omitempty"`
	CORSOrigins     []string `yaml:"corsOrigins,omitempty"`
	MaxConnections  int      `yaml:"maxConnections,omitempty"`
	MaxBodyBytes    int64    `yaml:"maxBodyBytes,omitempty"`
	ShutdownTimeout string   `yaml:"shutdownTimeout,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	ServiceName  string   `yaml:"serviceName,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
	ExporterType string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

type DatabaseFileConfig struct {
	SearchDirs  []string `yaml:"searchDirs,omitempty"`
	BusyTimeout string   `yaml:"busyTimeout,omitempty"`
}
