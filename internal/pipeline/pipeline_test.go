package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

type stubDetector struct {
	partial Partial
	err     error
	called  *bool
}

func (s *stubDetector) Process(req *schema.Request, ctx *Context, settings map[string]interface{}) (Partial, error) {
	if s.called != nil {
		*s.called = true
	}
	return s.partial, s.err
}

func flatMetric(ts float64, value float64) map[string]interface{} {
	return map[string]interface{}{
		"timestamp":        ts,
		"bytesPerSecond":   value,
		"packetsPerSecond": value / 10,
		"flowsPerSecond":   1.0,
	}
}

func TestPipelineProcessMergesStageOutput(t *testing.T) {
	summary := &schema.Summary{TotalPackets: 5}
	stage := Stage{
		ID: "legacy",
		Detector: &stubDetector{partial: Partial{
			Metrics: []schema.MetricSample{{Timestamp: "t0"}},
			Summary: summary,
		}},
	}
	p := New([]Stage{stage})
	req := &schema.Request{Metrics: []map[string]interface{}{flatMetric(0, 1)}}

	resp, err := p.Process(req)
	require.NoError(t, err)
	assert.Len(t, resp.Metrics, 1)
	assert.Equal(t, 5, resp.Summary.TotalPackets)
}

func TestPipelineProcessSkipsDisabledDetector(t *testing.T) {
	called := false
	stage := Stage{
		ID: "seasonality",
		Detector: &stubDetector{partial: Partial{}, called: &called},
	}
	p := New([]Stage{stage})
	req := &schema.Request{
		Metrics:  []map[string]interface{}{flatMetric(0, 1)},
		Controls: &schema.Controls{DisableDetectors: []string{"seasonality"}},
	}
	_, err := p.Process(req)
	require.NoError(t, err)
	assert.False(t, called)
}

func TestPipelineProcessConvertsDetectorErrorToFailureScore(t *testing.T) {
	stage := Stage{
		ID:       "legacy",
		Detector: &stubDetector{err: errors.New("boom")},
	}
	p := New([]Stage{stage})
	req := &schema.Request{Metrics: []map[string]interface{}{flatMetric(0, 1)}}

	resp, err := p.Process(req)
	require.NoError(t, err)
	require.Len(t, resp.AdvancedDetection.Scores, 1)
	assert.Equal(t, "detector-failure", resp.AdvancedDetection.Scores[0].Label)
	assert.Equal(t, "error", resp.Settings["detector:legacy"])
}

func TestPipelineProcessPropagatesInvalidRequestFatally(t *testing.T) {
	stage := Stage{
		ID:       "legacy",
		Detector: &stubDetector{err: fmt.Errorf("no metrics supplied: %w", ErrInvalidRequest)},
	}
	p := New([]Stage{stage})
	req := &schema.Request{Metrics: []map[string]interface{}{flatMetric(0, 1)}}

	resp, err := p.Process(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, schema.Response{}, resp)
}

func TestPipelineProcessBackfillsSummaryWhenAllDisabled(t *testing.T) {
	stage := Stage{ID: "legacy", Detector: &stubDetector{partial: Partial{}}}
	p := New([]Stage{stage})
	req := &schema.Request{
		Metrics:  []map[string]interface{}{flatMetric(0, 100), flatMetric(1, 200)},
		Controls: &schema.Controls{DisableDetectors: []string{"legacy"}},
	}

	resp, err := p.Process(req)
	require.NoError(t, err)
	assert.Len(t, resp.Metrics, 2)
	assert.Equal(t, 150.0, resp.Summary.MeanBytesPerSecond)
}

func TestMergedSettingsDoesNotMutateInputs(t *testing.T) {
	defaults := map[string]interface{}{"a": 1}
	override := map[string]interface{}{"b": 2}
	merged := mergedSettings(defaults, override)
	merged["a"] = 99
	assert.Equal(t, 1, defaults["a"])
	assert.Equal(t, 2, merged["b"])
}

func TestCoerceFloatNeverFails(t *testing.T) {
	assert.Equal(t, 0.0, coerceFloat(nil))
	assert.Equal(t, 0.0, coerceFloat("garbage"))
	assert.Equal(t, 3.5, coerceFloat("3.5"))
	assert.Equal(t, 4.0, coerceFloat(4))
}
