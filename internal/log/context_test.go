// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func TestRequestIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
	}{
		{"nil context", nil, "req-1"},
		{"background", context.Background(), "req-2"},
		{"empty id", context.Background(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequestIDFromContext(ContextWithRequestID(tt.ctx, tt.id)); got != tt.id {
				t.Errorf("RequestIDFromContext() = %q, want %q", got, tt.id)
			}
		})
	}

	if got := RequestIDFromContext(nil); got != "" { //nolint:staticcheck
		t.Errorf("nil context: got %q", got)
	}
	if got := RequestIDFromContext(context.WithValue(context.Background(), requestIDKey, 42)); got != "" {
		t.Errorf("wrong type: got %q", got)
	}
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	if err != nil {
		t.Fatal(err)
	}
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	if err != nil {
		t.Fatal(err)
	}
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func entry(t *testing.T, l zerolog.Logger, buf *bytes.Buffer) map[string]any {
	t.Helper()
	l.Info().Msg("probe")
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("parse log line %q: %v", buf.String(), err)
	}
	buf.Reset()
	return out
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	got := entry(t, WithContext(context.Background(), base), &buf)
	if _, ok := got[FieldRequestID]; ok {
		t.Error("empty context must not add request_id")
	}

	ctx := ContextWithRequestID(spanContext(t), "req-9")
	got = entry(t, WithContext(ctx, base), &buf)
	if got[FieldRequestID] != "req-9" {
		t.Errorf("request_id = %v", got[FieldRequestID])
	}
	if got[FieldTraceID] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %v", got[FieldTraceID])
	}
	if got[FieldSpanID] != "00f067aa0ba902b7" {
		t.Errorf("span_id = %v", got[FieldSpanID])
	}
}

func TestWithComponentFromContext(t *testing.T) {
	var buf bytes.Buffer
	reqLogger := zerolog.New(&buf)
	ctx := reqLogger.WithContext(ContextWithRequestID(context.Background(), "req-3"))

	got := entry(t, WithComponentFromContext(ctx, "api"), &buf)
	if got[FieldComponent] != "api" || got[FieldRequestID] != "req-3" {
		t.Errorf("unexpected fields: %v", got)
	}
}

func TestFromContextFallsBackToBase(t *testing.T) {
	if l := FromContext(context.Background()); l.GetLevel() == zerolog.Disabled {
		t.Error("expected base logger for a context without one")
	}
	if l := FromContext(nil); l == nil { //nolint:staticcheck
		t.Error("expected base logger for nil context")
	}
}
