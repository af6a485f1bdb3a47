package detectors

import (
	"math"
	"sort"
	"strconv"

	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
	"github.com/NetCockpit/nc-analyzer/pkg/statutil"
	"github.com/NetCockpit/nc-analyzer/pkg/timeutil"
)

var seasonalityMetricKeys = []string{"bytesPerSecond", "packetsPerSecond", "flowsPerSecond"}

type seasonalityDetector struct {
	settings map[string]interface{}
}

func newSeasonalityDetector(config map[string]interface{}) pipeline.Detector {
	settings := map[string]interface{}{
		"periodCandidates": []float64{60.0, 300.0, 900.0, 3600.0},
		"minCycles":        2.0,
		"minSamples":       60.0,
		"bandStdDevs":      2.0,
	}
	for k, v := range config {
		settings[k] = v
	}
	return &seasonalityDetector{settings: settings}
}

func (d *seasonalityDetector) Process(req *schema.Request, ctx *pipeline.Context, overrides map[string]interface{}) (pipeline.Partial, error) {
	settings := map[string]interface{}{}
	for k, v := range d.settings {
		settings[k] = v
	}
	for k, v := range overrides {
		settings[k] = v
	}

	minSamples := settingInt(settings, "minSamples", 60)
	if len(req.Metrics) < minSamples {
		ctx.AddScore("seasonality", 0.0, nil, "seasonality-inactive", []string{"seasonality.insufficient-data"})
		return pipeline.Partial{}, nil
	}

	points := extractSortedPoints(req.Metrics)
	times := make([]float64, len(points))
	seriesMap := map[string][]float64{}
	for _, key := range seasonalityMetricKeys {
		seriesMap[key] = make([]float64, len(points))
	}
	for i, p := range points {
		times[i] = p.ts
		for _, key := range seasonalityMetricKeys {
			seriesMap[key][i] = fieldFloat(p.record, key)
		}
	}
	for key, series := range seriesMap {
		if !anyNonZero(series) {
			delete(seriesMap, key)
		}
	}
	if len(seriesMap) == 0 {
		ctx.AddScore("seasonality", 0.0, nil, "seasonality-no-series", []string{"seasonality.no-series"})
		return pipeline.Partial{}, nil
	}

	sampleInterval := statutil.SampleInterval(times)
	if sampleInterval <= 0 {
		ctx.AddScore("seasonality", 0.0, nil, "seasonality-bad-sample-interval", []string{"seasonality.invalid-sample-interval"})
		return pipeline.Partial{}, nil
	}

	chosenPeriod, diagnostics := choosePeriod(settings, seriesMap, sampleInterval)
	if chosenPeriod == nil {
		ctx.AddScore("seasonality", 0.0, nil, "seasonality-no-period", []string{"seasonality.period-missing"})
		return pipeline.Partial{}, nil
	}

	periodSteps := int(math.Round(*chosenPeriod / sampleInterval))
	if periodSteps < 2 {
		periodSteps = 2
	}
	bandMultiplier := settingFloat(settings, "bandStdDevs", 2.0)

	metricPayload := map[string]schema.SeasonalityMetric{}
	var confidences []float64
	for _, key := range seasonalityMetricKeys {
		series, ok := seriesMap[key]
		if !ok {
			continue
		}
		baseline, residuals := statutil.SeasonalBaseline(series, periodSteps)
		residualStd := 0.0
		if len(residuals) > 1 {
			residualStd = math.Sqrt(statutil.PVariance(residuals))
		}
		margin := bandMultiplier * residualStd
		totalVar := 0.0
		if len(series) > 1 {
			totalVar = statutil.PVariance(series)
		}
		explained := 0.0
		if totalVar > 0.0 {
			residualVar := 0.0
			if len(residuals) > 1 {
				residualVar = statutil.PVariance(residuals)
			}
			explained = math.Max(0.0, math.Min(1.0, 1.0-(residualVar/(totalVar+1e-9))))
		}
		confidences = append(confidences, explained)

		band := make([]schema.SeasonalityBandPoint, len(series))
		for idx := range series {
			lower := baseline[idx] - margin
			if lower < 0 {
				lower = 0
			}
			band[idx] = schema.SeasonalityBandPoint{
				Timestamp: timeutil.Format(times[idx]),
				Baseline:  baseline[idx],
				Lower:     lower,
				Upper:     baseline[idx] + margin,
			}
		}
		metricPayload[key] = schema.SeasonalityMetric{
			Confidence:     explained,
			ResidualStdDev: residualStd,
			Band:           band,
		}
	}

	if len(metricPayload) == 0 {
		ctx.AddScore("seasonality", 0.0, nil, "seasonality-no-metrics", []string{"seasonality.metrics-missing"})
		return pipeline.Partial{}, nil
	}

	overallConfidence := statutil.Mean(confidences)
	ctx.SetSeasonalityConfidence(overallConfidence)
	ctx.AddScore("seasonality", overallConfidence, nil, "seasonality-baseline", []string{periodReasonCode(*chosenPeriod)})

	payload := schema.SeasonalityPayload{
		PeriodSeconds:         *chosenPeriod,
		SampleIntervalSeconds: sampleInterval,
		Metrics:               metricPayload,
		Diagnostics:           diagnostics,
	}
	return pipeline.Partial{Seasonality: &payload}, nil
}

func periodReasonCode(period float64) string {
	return "seasonality.period:" + strconv.Itoa(int(period))
}

func anyNonZero(series []float64) bool {
	for _, v := range series {
		if v != 0 {
			return true
		}
	}
	return false
}

func choosePeriod(settings map[string]interface{}, seriesMap map[string][]float64, sampleInterval float64) (*float64, schema.SeasonalityDiagnostics) {
	diagnostics := schema.SeasonalityDiagnostics{Candidates: []schema.SeasonalityCandidate{}}

	var candidates []float64
	if raw, ok := settings["periodCandidates"].([]float64); ok {
		candidates = raw
	} else {
		candidates = []float64{60.0, 300.0, 900.0, 3600.0}
	}
	minCycles := settingFloat(settings, "minCycles", 2.0)

	var bestPeriod *float64
	bestScore := math.Inf(-1)

	// Keys iterated in a fixed order so candidate diagnostics are
	// reproducible across runs despite Go's randomized map iteration.
	keys := make([]string, 0, len(seriesMap))
	for k := range seriesMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, periodSeconds := range candidates {
		if periodSeconds <= 0 {
			continue
		}
		periodSteps := int(math.Round(periodSeconds / sampleInterval))
		if periodSteps < 2 {
			continue
		}
		minSeriesCycles := math.Inf(1)
		for _, key := range keys {
			series := seriesMap[key]
			if len(series) == 0 {
				continue
			}
			cycles := float64(len(series)) / float64(periodSteps)
			if cycles < minSeriesCycles {
				minSeriesCycles = cycles
			}
		}
		if minSeriesCycles < minCycles {
			diagnostics.Candidates = append(diagnostics.Candidates, schema.SeasonalityCandidate{
				PeriodSeconds: periodSeconds,
				Cycles:        minSeriesCycles,
				Status:        "insufficient-cycles",
			})
			continue
		}

		var explainedScores []float64
		for _, key := range keys {
			series := seriesMap[key]
			if len(series) < periodSteps {
				continue
			}
			_, residuals := statutil.SeasonalBaseline(series, periodSteps)
			totalVar := 0.0
			if len(series) > 1 {
				totalVar = statutil.PVariance(series)
			}
			residualVar := 0.0
			if len(residuals) > 1 {
				residualVar = statutil.PVariance(residuals)
			}
			if totalVar <= 0.0 {
				continue
			}
			explainedScores = append(explainedScores, 1.0-(residualVar/(totalVar+1e-9)))
		}

		if len(explainedScores) == 0 {
			diagnostics.Candidates = append(diagnostics.Candidates, schema.SeasonalityCandidate{
				PeriodSeconds: periodSeconds,
				Cycles:        minSeriesCycles,
				Status:        "no-explained-score",
			})
			continue
		}

		averageScore := statutil.Mean(explainedScores)
		explainedCopy := averageScore
		diagnostics.Candidates = append(diagnostics.Candidates, schema.SeasonalityCandidate{
			PeriodSeconds: periodSeconds,
			Cycles:        minSeriesCycles,
			Explained:     &explainedCopy,
			Status:        "evaluated",
		})

		if averageScore > bestScore {
			bestScore = averageScore
			p := periodSeconds
			bestPeriod = &p
		}
	}

	if bestPeriod != nil {
		diagnostics.Selected = &schema.SeasonalitySelected{
			PeriodSeconds: *bestPeriod,
			Explained:     bestScore,
		}
	}
	return bestPeriod, diagnostics
}
