package statutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndPVariance(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(values), 1e-9)
	assert.InDelta(t, 4.0, PVariance(values), 1e-9)
	assert.InDelta(t, 2.0, PStdev(values), 1e-9)
}

func TestMedianOddAndEven(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}))
}

func TestRollingStatsFallsBackToMAD(t *testing.T) {
	flat := []float64{10, 10, 10, 10, 10}
	mean, std := RollingStats(flat)
	assert.InDelta(t, 10.0, mean, 1e-9)
	assert.Equal(t, 0.0, std)
}

func TestRollingStatsNormal(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	mean, std := RollingStats(values)
	assert.InDelta(t, 3.0, mean, 1e-9)
	assert.Greater(t, std, 0.0)
}

func TestEWMASeedsWithFirstValue(t *testing.T) {
	out := EWMA([]float64{10, 20, 30}, 0.5)
	assert.Equal(t, 10.0, out[0])
	assert.InDelta(t, 15.0, out[1], 1e-9)
	assert.InDelta(t, 22.5, out[2], 1e-9)
}

func TestEntropyUniformIsMaximal(t *testing.T) {
	e := Entropy([]float64{1, 1, 1, 1})
	assert.InDelta(t, 2.0, e, 1e-9)
}

func TestEntropySingleValueIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Entropy([]float64{42}))
}

func TestEntropyAllZeroIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Entropy([]float64{0, 0, 0}))
}

func TestSeasonalBaselineShortSeriesPassesThrough(t *testing.T) {
	series := []float64{1, 2, 3}
	baseline, residuals := SeasonalBaseline(series, 10)
	assert.Equal(t, series, baseline)
	for _, r := range residuals {
		assert.Equal(t, 0.0, r)
	}
}

func TestSeasonalBaselineRepeatingPattern(t *testing.T) {
	series := []float64{1, 2, 1, 2, 1, 2}
	baseline, residuals := SeasonalBaseline(series, 2)
	assert.InDelta(t, 1.0, baseline[0], 1e-9)
	assert.InDelta(t, 2.0, baseline[1], 1e-9)
	for _, r := range residuals {
		assert.InDelta(t, 0.0, math.Abs(r), 1e-9)
	}
}

func TestSampleIntervalMedianOfPositiveGaps(t *testing.T) {
	assert.InDelta(t, 10.0, SampleInterval([]float64{0, 10, 20, 30}), 1e-9)
	assert.Equal(t, 0.0, SampleInterval([]float64{5}))
}
