package archiver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

func TestEncodeMetricsLineProtocolProducesOutput(t *testing.T) {
	samples := []schema.MetricSample{
		{Timestamp: "2026-07-30T00:00:00.000Z", Window: "perSecond", BytesPerSecond: 100, PacketsPerSecond: 10, FlowsPerSecond: 1},
		{Timestamp: "2026-07-30T00:00:01.000Z", Window: "perSecond", BytesPerSecond: 200, PacketsPerSecond: 20, FlowsPerSecond: 2},
	}
	out, err := EncodeMetricsLineProtocol("ops-dashboard", samples)
	require.NoError(t, err)
	assert.Contains(t, string(out), "networkTelemetry")
	assert.Contains(t, string(out), "destination=ops-dashboard")
}

func TestEncodeMetricsLineProtocolRejectsBadTimestamp(t *testing.T) {
	samples := []schema.MetricSample{{Timestamp: "not-a-timestamp"}}
	_, err := EncodeMetricsLineProtocol("dest", samples)
	assert.Error(t, err)
}

func TestEncodeAnomaliesAvroProducesOCFHeader(t *testing.T) {
	anomalies := []schema.Anomaly{
		{ID: "a1", Timestamp: "2026-07-30T00:00:00.000Z", Metric: "bytesPerSecond", Value: 900, Baseline: 100, ZScore: 5, Direction: "spike"},
	}
	out, err := EncodeAnomaliesAvro(anomalies)
	require.NoError(t, err)
	assert.True(t, len(out) > 4)
	assert.Equal(t, []byte("Obj"), out[0:3])
}

func TestNewUploaderWithoutBucketIsDisabled(t *testing.T) {
	u, err := NewUploader(context.Background(), S3Config{})
	require.NoError(t, err)
	assert.NoError(t, u.Upload(context.Background(), "key", []byte("data")))
}

func TestArchiverWithDisabledUploaderIsANoOp(t *testing.T) {
	u, err := NewUploader(context.Background(), S3Config{})
	require.NoError(t, err)
	a := New(u)

	resp := schema.Response{
		Metrics:   []schema.MetricSample{{Timestamp: "2026-07-30T00:00:00.000Z"}},
		Baseline:  []schema.MetricSample{{Timestamp: "2026-07-30T00:00:00.000Z"}},
		Anomalies: []schema.Anomaly{{ID: "a1", Timestamp: "2026-07-30T00:00:00.000Z", Metric: "bytesPerSecond"}},
	}
	assert.NoError(t, a.Archive(context.Background(), "dest-1", resp))
}

func TestArchiverSkipsEmptySections(t *testing.T) {
	a := New(nil)
	assert.NoError(t, a.Archive(context.Background(), "dest-1", schema.Response{}))
}
