// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("POST", "/api/server-settings", 200)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, HTTPMethodKey, "POST")
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/server-settings")
	verifyIntAttribute(t, attrs, HTTPStatusCodeKey, 200)
}

func TestSettingsAttributes(t *testing.T) {
	attrs := SettingsAttributes("/srv/pz/servertest.ini", "flat_ini", 3, true)

	verifyAttribute(t, attrs, SettingsPathKey, "/srv/pz/servertest.ini")
	verifyAttribute(t, attrs, SettingsDialectKey, "flat_ini")
	verifyIntAttribute(t, attrs, SettingsKeysKey, 3)
	verifyBoolAttribute(t, attrs, SettingsDryRunKey, true)
}

func TestWorkshopAttributes(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantLen int
	}{
		{"with source", "scrape", 3},
		{"without source", "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := WorkshopAttributes("collection", 12, tt.source)
			if len(attrs) != tt.wantLen {
				t.Fatalf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			verifyAttribute(t, attrs, WorkshopOpKey, "collection")
			verifyIntAttribute(t, attrs, WorkshopItemsKey, 12)
			if tt.source != "" {
				verifyAttribute(t, attrs, WorkshopSourceKey, tt.source)
			}
		})
	}
}

func TestServerAttributes(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		command string
		wantLen int
	}{
		{"action only", "start", "", 1},
		{"command only", "", "players", 1},
		{"both", "rcon", "save", 2},
		{"empty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := ServerAttributes(tt.action, tt.command)
			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			if tt.action != "" {
				verifyAttribute(t, attrs, ServerActionKey, tt.action)
			}
			if tt.command != "" {
				verifyAttribute(t, attrs, RCONCommandKey, tt.command)
			}
		})
	}
}

func TestDatabaseAttributes(t *testing.T) {
	attrs := DatabaseAttributes("query", "networkPlayers")
	verifyAttribute(t, attrs, DatabaseOpKey, "query")
	verifyAttribute(t, attrs, DatabaseTableKey, "networkPlayers")

	if got := DatabaseAttributes("summaries", ""); len(got) != 1 {
		t.Errorf("Expected 1 attribute, got %d", len(got))
	}
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes("upstream")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "upstream")
}

func TestAnnotate(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "handler")
	Annotate(ctx, DatabaseAttributes("drop_table", "vehicles")...)
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(ended))
	}
	verifyAttribute(t, ended[0].Attributes(), DatabaseTableKey, "vehicles")

	// No span in context: must not panic.
	Annotate(context.Background(), ErrorAttributes("x")...)
}

// Helper functions for attribute verification

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != int64(expectedValue) {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
