package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestInitDisabled(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tel, err := Init(context.Background(), "studiosite", "test", "dev", "localhost:4318", false, logger)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if tel.TraceProvider != nil || tel.MeterProvider != nil {
		t.Error("disabled telemetry should not create sdk providers")
	}

	m, err := NewMetrics(tel.Meter)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	// recording on no-op instruments must be safe
	m.SubmissionsTotal.Add(context.Background(), 1)
	m.HTTPRequestDuration.Record(context.Background(), 12.5)

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNoopMetrics(t *testing.T) {
	t.Parallel()
	m := NoopMetrics()
	if m == nil || m.ClientErrorsTotal == nil || m.HTTPActiveRequests == nil {
		t.Fatal("noop metrics should have every instrument set")
	}
}
