// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by handlers and collaborators.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Settings attributes
	SettingsPathKey    = "settings.path"
	SettingsDialectKey = "settings.dialect"
	SettingsKeysKey    = "settings.keys"
	SettingsDryRunKey  = "settings.dry_run"

	// Workshop attributes
	WorkshopOpKey     = "workshop.op"
	WorkshopItemsKey  = "workshop.items"
	WorkshopSourceKey = "workshop.source"

	// Game server attributes
	ServerActionKey = "server.action"
	RCONCommandKey  = "rcon.command"

	// Database attributes
	DatabaseOpKey    = "db.operation"
	DatabaseTableKey = "db.sql.table"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// SettingsAttributes describes a config file read or patch.
func SettingsAttributes(path, dialect string, keys int, dryRun bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(SettingsPathKey, path),
		attribute.String(SettingsDialectKey, dialect),
		attribute.Int(SettingsKeysKey, keys),
		attribute.Bool(SettingsDryRunKey, dryRun),
	}
}

// WorkshopAttributes describes a Steam workshop lookup. An empty source is omitted.
func WorkshopAttributes(op string, items int, source string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(WorkshopOpKey, op),
		attribute.Int(WorkshopItemsKey, items),
	}
	if source != "" {
		attrs = append(attrs, attribute.String(WorkshopSourceKey, source))
	}
	return attrs
}

// ServerAttributes describes a game server control action or console command.
func ServerAttributes(action, command string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if action != "" {
		attrs = append(attrs, attribute.String(ServerActionKey, action))
	}
	if command != "" {
		attrs = append(attrs, attribute.String(RCONCommandKey, command))
	}
	return attrs
}

// DatabaseAttributes describes a database browser operation.
func DatabaseAttributes(op, table string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(DatabaseOpKey, op)}
	if table != "" {
		attrs = append(attrs, attribute.String(DatabaseTableKey, table))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// Annotate adds attrs to the span carried by ctx, if any.
func Annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
