package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)
	ctx := context.Background()

	m.RecordOperationAttempt(ctx, "Submit", "LedgerService")
	m.RecordOperationAttempt(ctx, "Submit", "LedgerService")
	m.RecordOperationFailure(ctx, "Submit", "LedgerService")
	m.RecordSubmission(ctx, true)
	m.RecordSubmission(ctx, false)
	m.RecordSubmission(ctx, false)
	m.RecordFirstBlood(ctx)
	m.RecordRecalculation(ctx, 12, 150*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("Submit", "LedgerService")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("Submit", "LedgerService")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("correct")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("incorrect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.firstBloods))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.recalcSize))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewObservabilityTextLogger(t *testing.T) {
	var buf bytes.Buffer
	obs := NewObservability(Config{ServiceName: "ctf", Level: "debug", Format: "text", Output: &buf})

	obs.Logger.Debug("hello")
	assert.Contains(t, buf.String(), "service=ctf")
	assert.Contains(t, buf.String(), "msg=hello")

	families, err := obs.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
