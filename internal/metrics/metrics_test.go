// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/pzpanel/pzpanel/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value returns the sample of family name whose labels include all of want.
func value(t *testing.T, name string, want map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, want) {
				return sample(m)
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func sample(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	}
	return 0
}

func TestRecordSettingsWrite(t *testing.T) {
	before := value(t, "pzpanel_settings_writes_total", map[string]string{"dialect": "flat_ini", "outcome": "written"})
	keysBefore := value(t, "pzpanel_settings_keys_total", map[string]string{"dialect": "flat_ini", "change": "appended"})

	metrics.RecordSettingsWrite("flat_ini", "written", 2, 1)

	assert.InDelta(t, before+1, value(t, "pzpanel_settings_writes_total", map[string]string{"dialect": "flat_ini", "outcome": "written"}), 1e-9)
	assert.InDelta(t, keysBefore+1, value(t, "pzpanel_settings_keys_total", map[string]string{"dialect": "flat_ini", "change": "appended"}), 1e-9)
}

func TestOutcomeLabels(t *testing.T) {
	metrics.RecordRCONCommand("players", nil)
	metrics.RecordRCONCommand("players", errors.New("refused"))
	assert.GreaterOrEqual(t, value(t, "pzpanel_rcon_commands_total", map[string]string{"command": "players", "outcome": "error"}), 1.0)
	assert.GreaterOrEqual(t, value(t, "pzpanel_rcon_commands_total", map[string]string{"command": "players", "outcome": "success"}), 1.0)
}

func TestServerGaugeAndHistogram(t *testing.T) {
	metrics.SetServerRunning(true)
	assert.InDelta(t, 1.0, value(t, "pzpanel_server_running", nil), 1e-9)
	metrics.SetServerRunning(false)
	assert.InDelta(t, 0.0, value(t, "pzpanel_server_running", nil), 1e-9)

	before := value(t, "pzpanel_workshop_request_duration_seconds", map[string]string{"op": "details"})
	metrics.ObserveWorkshopRequest("details", "200", 150*time.Millisecond)
	assert.InDelta(t, before+1, value(t, "pzpanel_workshop_request_duration_seconds", map[string]string{"op": "details"}), 1e-9)
}

func TestBreakerMetrics(t *testing.T) {
	metrics.SetBreakerState("steam", "open")
	assert.InDelta(t, 1.0, value(t, "pzpanel_breaker_state", map[string]string{"upstream": "steam", "state": "open"}), 1e-9)
	assert.InDelta(t, 0.0, value(t, "pzpanel_breaker_state", map[string]string{"upstream": "steam", "state": "closed"}), 1e-9)

	labels := map[string]string{"upstream": "steam"}
	before := value(t, "pzpanel_breaker_rejected_total", labels)
	metrics.RecordBreakerRejected("steam")
	assert.InDelta(t, before+1, value(t, "pzpanel_breaker_rejected_total", labels), 1e-9)
}

func TestPromhttpExposure(t *testing.T) {
	metrics.RecordCollectionSource("")
	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pzpanel_workshop_collections_total{source="empty"}`)
}
