package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

func newTalkerMetrics() []map[string]interface{} {
	metrics := make([]map[string]interface{}, 0, 20)
	for i := 0; i < 20; i++ {
		tagMetrics := map[string]interface{}{
			"destination": map[string]interface{}{
				"10.0.0.1": map[string]interface{}{"bytes": 1000.0, "packets": 10.0},
			},
		}
		if i >= 18 {
			tagMetrics["destination"] = map[string]interface{}{
				"10.0.0.1":  map[string]interface{}{"bytes": 1000.0, "packets": 10.0},
				"10.0.0.99": map[string]interface{}{"bytes": 9000.0, "packets": 80.0},
			}
		}
		metrics = append(metrics, map[string]interface{}{
			"timestamp":  float64(i),
			"tagMetrics": tagMetrics,
		})
	}
	return metrics
}

func TestNewTalkerDetectorNoMetrics(t *testing.T) {
	det := newNewTalkerDetector(nil)
	ctx := pipeline.NewContext()
	partial, err := det.Process(&schema.Request{}, ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, partial.NewTalkerDiagnostics)
	assert.Equal(t, 0, partial.NewTalkerDiagnostics.UniqueTagsEvaluated)
}

func TestNewTalkerDetectorFlagsRecentArrival(t *testing.T) {
	det := newNewTalkerDetector(map[string]interface{}{
		"recentWindowSeconds": 5.0,
		"minBytes":            500.0,
		"maxEntries":          10.0,
	})
	ctx := pipeline.NewContext()
	req := &schema.Request{Metrics: newTalkerMetrics()}

	partial, err := det.Process(req, ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, partial.NewTalkers)

	found := false
	for _, talker := range partial.NewTalkers {
		if talker.TagValue == "10.0.0.99" {
			found = true
		}
	}
	assert.True(t, found, "expected 10.0.0.99 to be flagged as a new talker")
}

func TestCollectTagEntriesAccumulatesBytes(t *testing.T) {
	entries := collectTagEntries(newTalkerMetrics())
	dest := entries["destination"]
	require.Contains(t, dest, "10.0.0.1")
	assert.Equal(t, 20*1000.0, dest["10.0.0.1"].totalBytes)
	assert.Equal(t, 20, dest["10.0.0.1"].uniqueWindows)
}
