package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

func shiftMetrics(n int, shiftAt int, before, after float64) []map[string]interface{} {
	metrics := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		value := before
		if i >= shiftAt {
			value = after
		}
		metrics = append(metrics, map[string]interface{}{
			"timestamp":        float64(i),
			"bytesPerSecond":   value,
			"packetsPerSecond": value / 10,
			"flowsPerSecond":   1.0,
		})
	}
	return metrics
}

func TestChangePointDetectorInsufficientData(t *testing.T) {
	det := newChangePointDetector(map[string]interface{}{"minSamples": 180.0})
	ctx := pipeline.NewContext()
	req := &schema.Request{Metrics: flatMetrics(10, -1, 0)}

	partial, err := det.Process(req, ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, partial.ChangePointDiagnostics)
	assert.Equal(t, 0, partial.ChangePointDiagnostics.Detected)
}

func TestChangePointDetectorFindsShift(t *testing.T) {
	det := newChangePointDetector(map[string]interface{}{
		"windowSeconds":    20.0,
		"thresholdStdDevs": 2.0,
		"minSamples":       60.0,
		"minGapSeconds":    5.0,
	})
	ctx := pipeline.NewContext()
	req := &schema.Request{Metrics: shiftMetrics(120, 60, 100.0, 900.0)}

	partial, err := det.Process(req, ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, partial.ChangePoints)
	assert.Equal(t, "increase", partial.ChangePoints[0].Direction)
}

func TestDetectChangePointsForSeriesStepIncrease(t *testing.T) {
	times := make([]float64, 20)
	series := make([]float64, 20)
	for i := range series {
		if i < 10 {
			series[i] = 5.0
		} else {
			series[i] = 10.0
		}
		times[i] = float64(i)
	}
	points := detectChangePointsForSeries(times, series, "bytesPerSecond", 5, 2.0, 1)
	require.NotEmpty(t, points)
	assert.Equal(t, "increase", points[0].Direction)
}
