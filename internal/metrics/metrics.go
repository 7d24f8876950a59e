// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics holds the Prometheus instruments of the panel. All
// instruments register with the default registry at init.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Settings writes
	settingsWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_settings_writes_total",
		Help: "Config file patch attempts by dialect and outcome",
	}, []string{"dialect", "outcome"}) // outcome=written|dry_run|noop|rejected|error

	settingsKeysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_settings_keys_total",
		Help: "Keys touched by config file patches",
	}, []string{"dialect", "change"}) // change=changed|appended

	modsWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_mods_writes_total",
		Help: "Mod list writes by outcome",
	}, []string{"outcome"})

	// Steam workshop
	workshopRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_workshop_requests_total",
		Help: "Outbound Steam requests by operation and status",
	}, []string{"op", "status"})

	workshopRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pzpanel_workshop_request_duration_seconds",
		Help:    "Outbound Steam request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	workshopCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_workshop_cache_total",
		Help: "Workshop cache lookups by result",
	}, []string{"result"}) // result=hit|miss

	workshopCollectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_workshop_collections_total",
		Help: "Collection resolutions by source",
	}, []string{"source"}) // source=api|scrape|empty

	// Remote console
	rconCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_rcon_commands_total",
		Help: "Remote console commands by command and outcome",
	}, []string{"command", "outcome"})

	// Game server process
	serverRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pzpanel_server_running",
		Help: "Whether the supervised game server is running (1) or not (0)",
	})

	serverStartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_server_starts_total",
		Help: "Game server start attempts by outcome",
	}, []string{"outcome"})

	serverExitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_server_exits_total",
		Help: "Game server exits by reason",
	}, []string{"reason"}) // reason=clean|error|stopped|killed

	serverSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_server_signals_total",
		Help: "Signals sent to the game server process group",
	}, []string{"signal", "result"}) // result=sent|gone|error

	serverLogLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pzpanel_server_log_lines_total",
		Help: "Console lines captured from the game server",
	})

	// Database browser
	databaseOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_database_operations_total",
		Help: "Database browser operations by kind and outcome",
	}, []string{"op", "outcome"})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSettingsWrite counts one patch attempt.
func RecordSettingsWrite(dialect, result string, changed, appended int) {
	settingsWritesTotal.WithLabelValues(dialect, result).Inc()
	if changed > 0 {
		settingsKeysTotal.WithLabelValues(dialect, "changed").Add(float64(changed))
	}
	if appended > 0 {
		settingsKeysTotal.WithLabelValues(dialect, "appended").Add(float64(appended))
	}
}

// RecordModsWrite counts one mod list write.
func RecordModsWrite(err error) { modsWritesTotal.WithLabelValues(outcome(err)).Inc() }

// ObserveWorkshopRequest records one outbound Steam call.
func ObserveWorkshopRequest(op, status string, d time.Duration) {
	workshopRequestsTotal.WithLabelValues(op, status).Inc()
	workshopRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordWorkshopCache counts a cache lookup.
func RecordWorkshopCache(hit bool) {
	if hit {
		workshopCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	workshopCacheTotal.WithLabelValues("miss").Inc()
}

// RecordCollectionSource counts where a collection's item ids came from.
func RecordCollectionSource(source string) {
	if source == "" {
		source = "empty"
	}
	workshopCollectionsTotal.WithLabelValues(source).Inc()
}

// RecordRCONCommand counts one console command.
func RecordRCONCommand(command string, err error) {
	rconCommandsTotal.WithLabelValues(command, outcome(err)).Inc()
}

// SetServerRunning mirrors the supervisor state.
func SetServerRunning(running bool) {
	if running {
		serverRunning.Set(1)
		return
	}
	serverRunning.Set(0)
}

// RecordServerStart counts a start attempt.
func RecordServerStart(err error) { serverStartsTotal.WithLabelValues(outcome(err)).Inc() }

// RecordServerExit counts a process exit.
func RecordServerExit(reason string) { serverExitsTotal.WithLabelValues(reason).Inc() }

// RecordServerSignal counts a signal sent to the game server process group.
func RecordServerSignal(signal, result string) {
	serverSignalsTotal.WithLabelValues(signal, result).Inc()
}

// IncServerLogLines counts captured console lines.
func IncServerLogLines() { serverLogLines.Inc() }

// RecordDatabaseOp counts a database browser operation.
func RecordDatabaseOp(op string, err error) {
	databaseOpsTotal.WithLabelValues(op, outcome(err)).Inc()
}
