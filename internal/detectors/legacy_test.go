package detectors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

func flatMetrics(n int, spike int, spikeValue float64) []map[string]interface{} {
	metrics := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		value := 100.0
		if i == spike {
			value = spikeValue
		}
		metrics = append(metrics, map[string]interface{}{
			"timestamp":        float64(i),
			"bytesPerSecond":   value,
			"packetsPerSecond": 10.0,
			"flowsPerSecond":   1.0,
		})
	}
	return metrics
}

func TestLegacyDetectorFlagsSpike(t *testing.T) {
	det := newLegacyDetector(nil)
	req := &schema.Request{Metrics: flatMetrics(40, 30, 5000.0)}
	// Jitter the baseline so the rolling window has a non-zero spread.
	for i, m := range req.Metrics {
		if i != 30 && i%2 == 1 {
			m["bytesPerSecond"] = 102.0
		}
	}
	ctx := pipeline.NewContext()

	partial, err := det.Process(req, ctx, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, partial.Anomalies)
	assert.Len(t, partial.Metrics, 40)
	assert.Len(t, partial.Baseline, 40)
	require.NotNil(t, partial.Summary)
	assert.Equal(t, 40, len(partial.Metrics))

	found := false
	for _, a := range partial.Anomalies {
		if a.Metric == "bytesPerSecond" && a.Direction == "spike" {
			found = true
		}
	}
	assert.True(t, found, "expected a spike anomaly on bytesPerSecond")
}

func TestLegacyDetectorRejectsNonNumericField(t *testing.T) {
	det := newLegacyDetector(nil)
	req := &schema.Request{
		Metrics: []map[string]interface{}{
			{"timestamp": 0.0, "bytesPerSecond": "not-a-number", "packetsPerSecond": 1.0, "flowsPerSecond": 1.0},
		},
	}
	ctx := pipeline.NewContext()

	_, err := det.Process(req, ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidRequest))
}

func TestLegacyDetectorRequiresMetrics(t *testing.T) {
	det := newLegacyDetector(nil)
	ctx := pipeline.NewContext()
	_, err := det.Process(&schema.Request{}, ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidRequest))
}

func TestLegacyDetectorSpikeBaselineMatchesSlidingBaseline(t *testing.T) {
	det := newLegacyDetector(nil)
	req := &schema.Request{Metrics: flatMetrics(40, 30, 5000.0)}
	for i, m := range req.Metrics {
		if i != 30 && i%2 == 1 {
			m["bytesPerSecond"] = 102.0
		}
	}
	ctx := pipeline.NewContext()

	partial, err := det.Process(req, ctx, nil)
	require.NoError(t, err)

	for _, a := range partial.Anomalies {
		if a.Metric != "bytesPerSecond" {
			continue
		}
		idx := -1
		for i, b := range partial.Baseline {
			if b.Timestamp == a.Timestamp {
				idx = i
			}
		}
		require.GreaterOrEqual(t, idx, 0, "anomaly timestamp should match a baseline sample")
		assert.Equal(t, partial.Baseline[idx].BytesPerSecond, a.Baseline,
			"anomaly baseline should be the sliding-baseline value, not the window-exclusive mean")
	}
}

func TestSummarizePayloadCountsMarkers(t *testing.T) {
	packets := []map[string]interface{}{
		{"info": "Client Hello", "length": 100.0},
		{"info": "Server Hello", "length": 200.0},
		{"info": "GET /index.html HTTP/1.1", "length": 50.0},
		{"info": "plain traffic", "length": 10.0},
	}
	summary := summarizePayload(packets)
	assert.Equal(t, 1.0, summary["tlsClientHello"])
	assert.Equal(t, 1.0, summary["tlsServerHello"])
	assert.Equal(t, 1.0, summary["httpRequests"])
	assert.Equal(t, 360.0, summary["observedPayloadBytes"])
}

func TestBuildClustersGroupsByMetricAndTakesPeak(t *testing.T) {
	anomalies := []schema.Anomaly{
		{ID: "a1", Timestamp: "t0", Metric: "bytesPerSecond", ZScore: 3.5, Direction: "spike"},
		{ID: "a2", Timestamp: "t1", Metric: "bytesPerSecond", ZScore: 9.0, Direction: "spike"},
	}
	clusters := buildClusters(anomalies)
	require.Len(t, clusters, 1)
	assert.Equal(t, 9.0, clusters[0].PeakZScore)
	assert.Equal(t, 2, clusters[0].TotalAnomalies)
}
