package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpvarRecorderAggregates(t *testing.T) {
	rec := NewExpvarRecorder("")
	rec.Observe(context.Background(), "entityA.fetch_entity_list", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "entityA.fetch_entity_list", false, 3*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)

	snap := rec.Snapshot()
	assert.Equal(t, int64(1), snap.Results["entityA.fetch_entity_list"]["success"])
	assert.Equal(t, int64(1), snap.Results["entityA.fetch_entity_list"]["error"])
	assert.InDelta(t, 5.0, snap.DurationsMS["entityA.fetch_entity_list"], 0.001)
	assert.Len(t, snap.Results, 1)

	published := expvar.Get(rec.Name())
	require.NotNil(t, published)
	assert.Contains(t, published.String(), "entityA.fetch_entity_list")
}

func TestPrometheusRecorderServesMetrics(t *testing.T) {
	rec := NewPrometheusRecorder()
	rec.Observe(context.Background(), "entityB.create_entity", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "entityB.create_entity", false, 10*time.Millisecond)

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `entity_slice_requests_total{operation="entityB.create_entity",status="success"} 1`)
	assert.Contains(t, text, `entity_slice_requests_total{operation="entityB.create_entity",status="error"} 1`)
	assert.Contains(t, text, `entity_slice_request_duration_seconds_count{operation="entityB.create_entity"} 2`)

	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 2)
}

func TestJSONTracerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	tr := NewJSONTracer(&buf)
	_, span := tr.Start(context.Background(), "entityA.fetch_entity")
	span.End(errors.New("Request failed with status code 404"))
	_, span = tr.Start(context.Background(), "entityA.fetch_entity_list")
	span.End(nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var first TraceEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "error", first.Status)
	assert.Equal(t, "Request failed with status code 404", first.Error)

	entries := tr.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "success", entries[1].Status)
}

func TestNopImplementations(t *testing.T) {
	Nop().Observe(context.Background(), "x", true, time.Second)
	ctx, span := NopTracer().Start(context.Background(), "x")
	span.End(nil)
	assert.NotNil(t, ctx)
}
