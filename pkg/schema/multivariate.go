package schema

// MultivariateContribution is one feature's share of a joint anomaly
// score, ordered by descending absolute z-score.
type MultivariateContribution struct {
	Feature   string  `json:"feature"`
	Weight    float64 `json:"weight"`
	ZScore    float64 `json:"zScore"`
	Direction string  `json:"direction"`
}

// MultivariateScore is the joint-anomaly result for one timestamp: the
// L2 norm of every feature's z-score against its own rolling window. A
// feature whose rolling window is flat contributes a sentinel z-score of
// ±10.0 when its value differs from the window mean by more than 1e-6,
// and is left out otherwise.
type MultivariateScore struct {
	ID            string                      `json:"id"`
	Timestamp     string                      `json:"timestamp"`
	Score         float64                     `json:"score"`
	Features      map[string]float64          `json:"features"`
	ZScores       map[string]float64          `json:"zScores"`
	Contributions []MultivariateContribution  `json:"contributions"`
}

// MultivariateDiagnostics records how many points the detector evaluated
// even when nothing crossed the threshold.
type MultivariateDiagnostics struct {
	SampleIntervalSeconds *float64 `json:"sampleIntervalSeconds"`
	WindowSteps           *int     `json:"windowSteps"`
	EvaluatedPoints       int      `json:"evaluatedPoints"`
}
