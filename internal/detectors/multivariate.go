package detectors

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
	"github.com/NetCockpit/nc-analyzer/pkg/statutil"
	"github.com/NetCockpit/nc-analyzer/pkg/timeutil"
)

var multivariateFeatureKeys = []string{"bytesPerSecond", "packetsPerSecond", "flowsPerSecond"}

type multivariateDetector struct {
	settings map[string]interface{}
}

func newMultivariateDetector(config map[string]interface{}) pipeline.Detector {
	settings := map[string]interface{}{
		"windowSeconds": 60.0,
		"threshold":     3.0,
		"minSamples":    180.0,
		"minFeatures":   2.0,
	}
	for k, v := range config {
		settings[k] = v
	}
	return &multivariateDetector{settings: settings}
}

func (d *multivariateDetector) Process(req *schema.Request, ctx *pipeline.Context, overrides map[string]interface{}) (pipeline.Partial, error) {
	settings := map[string]interface{}{}
	for k, v := range d.settings {
		settings[k] = v
	}
	for k, v := range overrides {
		settings[k] = v
	}

	emptyDiagnostics := func(evaluated int) *schema.MultivariateDiagnostics {
		return &schema.MultivariateDiagnostics{EvaluatedPoints: evaluated}
	}

	minSamples := settingInt(settings, "minSamples", 180)
	if len(req.Metrics) < minSamples {
		ctx.AddScore("multivariate", 0.0, nil, "multivariate-inactive", []string{"multivariate.insufficient-data"})
		return pipeline.Partial{MultivariateDiagnostics: emptyDiagnostics(0)}, nil
	}

	points := extractSortedPoints(req.Metrics)
	times := make([]float64, len(points))
	featureSeries := map[string][]float64{}
	for _, key := range multivariateFeatureKeys {
		featureSeries[key] = make([]float64, len(points))
	}
	for i, p := range points {
		times[i] = p.ts
		for _, key := range multivariateFeatureKeys {
			featureSeries[key][i] = fieldFloat(p.record, key)
		}
	}

	var usableFeatures []string
	for _, key := range multivariateFeatureKeys {
		if anyNonZero(featureSeries[key]) {
			usableFeatures = append(usableFeatures, key)
		}
	}
	minFeatures := settingInt(settings, "minFeatures", 2)
	if len(usableFeatures) < minFeatures {
		ctx.AddScore("multivariate", 0.0, nil, "multivariate-too-few-features", []string{"multivariate.few-features"})
		return pipeline.Partial{MultivariateDiagnostics: emptyDiagnostics(0)}, nil
	}

	sampleInterval := statutil.SampleInterval(times)
	if sampleInterval <= 0 {
		ctx.AddScore("multivariate", 0.0, nil, "multivariate-bad-interval", []string{"multivariate.invalid-sample-interval"})
		return pipeline.Partial{MultivariateDiagnostics: emptyDiagnostics(0)}, nil
	}

	windowSecondsCfg := settingFloat(settings, "windowSeconds", 60.0)
	windowSteps := int(math.Round(windowSecondsCfg / sampleInterval))
	if windowSteps < 5 {
		windowSteps = 5
	}
	threshold := settingFloat(settings, "threshold", 3.0)

	evaluations := 0
	var detections []schema.MultivariateScore
	for index := windowSteps; index < len(times); index++ {
		historyStart := index - windowSteps
		currentPoint := map[string]float64{}
		for _, feature := range usableFeatures {
			currentPoint[feature] = featureSeries[feature][index]
		}
		baselineStats := map[string][2]float64{}
		for _, feature := range usableFeatures {
			window := featureSeries[feature][historyStart:index]
			if len(window) < 5 {
				continue
			}
			mean := statutil.Mean(window)
			variance := statutil.PVariance(window)
			std := 0.0
			if variance > 0 {
				std = math.Sqrt(variance)
			}
			baselineStats[feature] = [2]float64{mean, std}
		}
		if len(baselineStats) == 0 {
			continue
		}
		evaluations++

		zScores := map[string]float64{}
		for _, feature := range usableFeatures {
			stats, ok := baselineStats[feature]
			if !ok {
				continue
			}
			mean, std := stats[0], stats[1]
			value := currentPoint[feature]
			if std <= 1e-9 {
				if math.Abs(value-mean) <= 1e-6 {
					continue
				}
				zScores[feature] = math.Copysign(10.0, value-mean)
			} else {
				zScores[feature] = (value - mean) / std
			}
		}
		if len(zScores) == 0 {
			continue
		}

		var sumSquares float64
		for _, z := range zScores {
			sumSquares += z * z
		}
		score := math.Sqrt(sumSquares)
		if score < threshold {
			continue
		}

		contributions := featureContributions(zScores)
		features := map[string]float64{}
		for _, f := range usableFeatures {
			features[f] = currentPoint[f]
		}
		detections = append(detections, schema.MultivariateScore{
			ID:            uuid.NewString(),
			Timestamp:     timeutil.Format(times[index]),
			Score:         score,
			Features:      features,
			ZScores:       zScores,
			Contributions: contributions,
		})
	}

	steps := windowSteps
	diagnostics := &schema.MultivariateDiagnostics{
		SampleIntervalSeconds: &sampleInterval,
		WindowSteps:           &steps,
		EvaluatedPoints:       evaluations,
	}

	if len(detections) == 0 {
		ctx.AddScore("multivariate", 0.0, nil, "multivariate-none", []string{"multivariate.none"})
		return pipeline.Partial{MultivariateScores: []schema.MultivariateScore{}, MultivariateDiagnostics: diagnostics}, nil
	}

	topScore := 0.0
	for _, item := range detections {
		if item.Score > topScore {
			topScore = item.Score
		}
	}
	denom := threshold
	if denom < 1e-6 {
		denom = 1e-6
	}
	normalized := math.Min(1.0, topScore/denom)
	ctx.AddScore("multivariate", normalized, nil, "multivariate-detected", []string{"multivariate.detected"})

	return pipeline.Partial{MultivariateScores: detections, MultivariateDiagnostics: diagnostics}, nil
}

func featureContributions(zScores map[string]float64) []schema.MultivariateContribution {
	if len(zScores) == 0 {
		return nil
	}
	var total float64
	weights := map[string]float64{}
	keys := make([]string, 0, len(zScores))
	for feature, z := range zScores {
		w := math.Abs(z)
		weights[feature] = w
		total += w
		keys = append(keys, feature)
	}
	if total == 0 {
		total = 1.0
	}
	sort.Strings(keys)

	contributions := make([]schema.MultivariateContribution, 0, len(keys))
	for _, feature := range keys {
		direction := "decrease"
		if zScores[feature] >= 0 {
			direction = "increase"
		}
		contributions = append(contributions, schema.MultivariateContribution{
			Feature:   feature,
			Weight:    weights[feature] / total,
			ZScore:    zScores[feature],
			Direction: direction,
		})
	}
	sort.SliceStable(contributions, func(i, j int) bool {
		return math.Abs(contributions[i].ZScore) > math.Abs(contributions[j].ZScore)
	})
	return contributions
}
