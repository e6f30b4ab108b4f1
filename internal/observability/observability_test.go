package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "info", FormatJSON).Info("hello", slog.Int("n", 3))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, float64(3), rec["n"])

	buf.Reset()
	NewLogger(&buf, "warn", FormatText).Info("dropped")
	assert.Empty(t, buf.String())

	buf.Reset()
	NewLogger(&buf, "debug", FormatConsole).Debug("console line", "k", "v")
	assert.Contains(t, buf.String(), "console line")
}

func TestRunContextLogsBaseFields(t *testing.T) {
	var buf bytes.Buffer
	rc := NewRunContextWithID(NewLogger(&buf, "debug", FormatJSON), nil, "run-1", "analyze")

	rc.Warn("something odd", slog.String("file", "materials.md"))
	rc.Error("failed", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "run-1", rec[LogFieldRunID])
	assert.Equal(t, "analyze", rec[LogFieldMode])
	assert.Equal(t, "materials.md", rec["file"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "boom", rec["error"])
}

func TestRunContextGeneratesID(t *testing.T) {
	a := NewRunContext(nil, nil, "")
	b := NewRunContext(nil, nil, "")
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestStageRecordsDuration(t *testing.T) {
	m := NewMetrics()
	var buf bytes.Buffer
	rc := NewRunContextWithID(NewLogger(&buf, "info", FormatJSON), m, "run-2", "analyze")

	done := rc.Stage("graph")
	done(slog.Int("edges", 12))

	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
	assert.Contains(t, buf.String(), `"stage":"graph"`)
	assert.Contains(t, buf.String(), `"edges":12`)
}

func TestMetricsAreNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveStage("x", 0)
	m.RecordRun("ok")
	m.SetReportSize(1, 2, 3, 4)
	m.RecordTrajectory(OutcomeFound, 3)
	m.ObserveHTTP("GET", "/", "200", 0)
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordRun("ok")
	m.SetReportSize(10, 20, 3, 4)
	m.RecordTrajectory(OutcomeCached, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.Concepts))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "discovery_concepts 10")
	assert.Contains(t, rec.Body.String(), `discovery_trajectory_queries_total{outcome="cached"} 1`)
}
