package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

func multivariateMetrics(n int, spikeAt int) []map[string]interface{} {
	metrics := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		bytesVal := 100.0
		packetsVal := 10.0
		if i == spikeAt {
			bytesVal = 5000.0
			packetsVal = 500.0
		}
		metrics = append(metrics, map[string]interface{}{
			"timestamp":        float64(i),
			"bytesPerSecond":   bytesVal,
			"packetsPerSecond": packetsVal,
			"flowsPerSecond":   1.0,
		})
	}
	return metrics
}

func TestMultivariateDetectorInsufficientSamples(t *testing.T) {
	det := newMultivariateDetector(map[string]interface{}{"minSamples": 180.0})
	ctx := pipeline.NewContext()
	req := &schema.Request{Metrics: flatMetrics(10, -1, 0)}

	partial, err := det.Process(req, ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, partial.MultivariateDiagnostics)
	assert.Equal(t, 0, partial.MultivariateDiagnostics.EvaluatedPoints)
}

func TestMultivariateDetectorFlagsJointSpike(t *testing.T) {
	det := newMultivariateDetector(map[string]interface{}{
		"windowSeconds": 20.0,
		"threshold":     3.0,
		"minSamples":    40.0,
		"minFeatures":   2.0,
	})
	ctx := pipeline.NewContext()
	req := &schema.Request{Metrics: multivariateMetrics(60, 50)}

	partial, err := det.Process(req, ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, partial.MultivariateScores)
	score := partial.MultivariateScores[0]
	assert.NotEmpty(t, score.Contributions)
	assert.GreaterOrEqual(t, score.Score, 3.0)
}

func TestFeatureContributionsSortedByAbsZScore(t *testing.T) {
	zScores := map[string]float64{
		"bytesPerSecond":   2.0,
		"packetsPerSecond": -8.0,
		"flowsPerSecond":   1.0,
	}
	contributions := featureContributions(zScores)
	require.Len(t, contributions, 3)
	assert.Equal(t, "packetsPerSecond", contributions[0].Feature)
	assert.Equal(t, "decrease", contributions[0].Direction)
}
