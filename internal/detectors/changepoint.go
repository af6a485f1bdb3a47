package detectors

import (
	"math"

	"github.com/google/uuid"

	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
	"github.com/NetCockpit/nc-analyzer/pkg/statutil"
	"github.com/NetCockpit/nc-analyzer/pkg/timeutil"
)

var changePointMetricKeys = []string{"bytesPerSecond", "packetsPerSecond", "flowsPerSecond"}

type changePointDetector struct {
	settings map[string]interface{}
}

func newChangePointDetector(config map[string]interface{}) pipeline.Detector {
	settings := map[string]interface{}{
		"windowSeconds":    60.0,
		"thresholdStdDevs": 2.0,
		"minSamples":       180.0,
		"minGapSeconds":    45.0,
	}
	for k, v := range config {
		settings[k] = v
	}
	return &changePointDetector{settings: settings}
}

func (d *changePointDetector) Process(req *schema.Request, ctx *pipeline.Context, overrides map[string]interface{}) (pipeline.Partial, error) {
	settings := map[string]interface{}{}
	for k, v := range d.settings {
		settings[k] = v
	}
	for k, v := range overrides {
		settings[k] = v
	}

	thresholdStdDevs := settingFloat(settings, "thresholdStdDevs", 3.0)
	windowSecondsCfg := settingFloat(settings, "windowSeconds", 60.0)

	emptyDiagnostics := func() *schema.ChangePointDiagnostics {
		return &schema.ChangePointDiagnostics{
			ThresholdStdDevs: thresholdStdDevs,
			WindowSeconds:    windowSecondsCfg,
			Detected:         0,
		}
	}

	minSamples := settingInt(settings, "minSamples", 180)
	if len(req.Metrics) < minSamples {
		ctx.AddScore("changepoint", 0.0, nil, "changepoint-inactive", []string{"changepoint.insufficient-data"})
		return pipeline.Partial{ChangePointDiagnostics: emptyDiagnostics()}, nil
	}

	points := extractSortedPoints(req.Metrics)
	times := make([]float64, len(points))
	seriesMap := map[string][]float64{}
	for _, key := range changePointMetricKeys {
		seriesMap[key] = make([]float64, len(points))
	}
	for i, p := range points {
		times[i] = p.ts
		for _, key := range changePointMetricKeys {
			seriesMap[key][i] = fieldFloat(p.record, key)
		}
	}
	for key, series := range seriesMap {
		if !anyNonZero(series) {
			delete(seriesMap, key)
		}
	}
	if len(seriesMap) == 0 {
		ctx.AddScore("changepoint", 0.0, nil, "changepoint-no-series", []string{"changepoint.no-series"})
		return pipeline.Partial{ChangePointDiagnostics: emptyDiagnostics()}, nil
	}

	sampleInterval := statutil.SampleInterval(times)
	if sampleInterval <= 0 {
		ctx.AddScore("changepoint", 0.0, nil, "changepoint-bad-sample-interval", []string{"changepoint.invalid-sample-interval"})
		return pipeline.Partial{ChangePointDiagnostics: emptyDiagnostics()}, nil
	}

	windowSteps := int(math.Round(windowSecondsCfg / sampleInterval))
	if windowSteps < 2 {
		windowSteps = 2
	}
	minGapSeconds := settingFloat(settings, "minGapSeconds", 45.0)
	minGapSteps := int(math.Round(minGapSeconds / sampleInterval))
	if minGapSteps < 1 {
		minGapSteps = 1
	}

	var changePoints []schema.ChangePoint
	var bestScores []float64
	for _, key := range changePointMetricKeys {
		series, ok := seriesMap[key]
		if !ok || len(series) < windowSteps*2 {
			continue
		}
		metricPoints := detectChangePointsForSeries(times, series, key, windowSteps, thresholdStdDevs, minGapSteps)
		changePoints = append(changePoints, metricPoints...)
		if len(metricPoints) > 0 {
			best := 0.0
			for _, p := range metricPoints {
				if math.Abs(p.Score) > best {
					best = math.Abs(p.Score)
				}
			}
			bestScores = append(bestScores, best)
		}
	}

	steps := windowSteps
	diagnostics := &schema.ChangePointDiagnostics{
		SampleIntervalSeconds: &sampleInterval,
		WindowSteps:           &steps,
		ThresholdStdDevs:      thresholdStdDevs,
		WindowSeconds:         windowSecondsCfg,
		Detected:              len(changePoints),
	}

	if len(changePoints) == 0 {
		ctx.AddScore("changepoint", 0.0, nil, "changepoint-none", []string{"changepoint.none"})
		return pipeline.Partial{ChangePoints: []schema.ChangePoint{}, ChangePointDiagnostics: diagnostics}, nil
	}

	aggregateScore := 0.0
	for _, s := range bestScores {
		if s > aggregateScore {
			aggregateScore = s
		}
	}
	denom := thresholdStdDevs
	if denom < 1e-6 {
		denom = 1e-6
	}
	normalized := math.Min(1.0, aggregateScore/denom)
	ctx.AddScore("changepoint", normalized, nil, "changepoint-detected", []string{"changepoint.detected"})

	return pipeline.Partial{ChangePoints: changePoints, ChangePointDiagnostics: diagnostics}, nil
}

func detectChangePointsForSeries(times, series []float64, metric string, windowSteps int, threshold float64, minGapSteps int) []schema.ChangePoint {
	var out []schema.ChangePoint
	lastIndex := -1
	for center := windowSteps; center < len(series)-windowSteps; center++ {
		if lastIndex >= 0 && center-lastIndex < minGapSteps {
			continue
		}
		before := series[center-windowSteps : center]
		after := series[center : center+windowSteps]
		if len(before) == 0 || len(after) == 0 {
			continue
		}
		meanBefore := statutil.Mean(before)
		meanAfter := statutil.Mean(after)
		diff := meanAfter - meanBefore

		combined := make([]float64, 0, len(before)+len(after))
		combined = append(combined, before...)
		combined = append(combined, after...)
		if len(combined) < 4 {
			continue
		}
		variance := statutil.PVariance(combined)
		std := math.Sqrt(variance)

		var score float64
		if std <= 1e-9 {
			if math.Abs(diff) <= 1e-6 {
				continue
			}
			score = math.Copysign(threshold*2.0, diff)
		} else {
			score = diff / std
		}
		if math.Abs(score) < threshold {
			continue
		}

		direction := "decrease"
		if diff > 0 {
			direction = "increase"
		}
		out = append(out, schema.ChangePoint{
			ID:         uuid.NewString(),
			Timestamp:  timeutil.Format(times[center]),
			Metric:     metric,
			Direction:  direction,
			BeforeMean: meanBefore,
			AfterMean:  meanAfter,
			MeanDelta:  diff,
			Score:      score,
		})
		lastIndex = center
	}
	return out
}
