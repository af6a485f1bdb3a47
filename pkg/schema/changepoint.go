package schema

// ChangePoint is a detected mean shift between two adjacent windows of a
// metric's recent history. Score is the mean delta divided by the
// population standard deviation of the combined before/after window.
// When that deviation is below 1e-9 and the mean delta exceeds 1e-6 in
// magnitude, the detector reports a sentinel Score of ±2×threshold
// rather than dividing by zero.
type ChangePoint struct {
	ID         string  `json:"id"`
	Timestamp  string  `json:"timestamp"`
	Metric     string  `json:"metric"`
	Direction  string  `json:"direction"`
	BeforeMean float64 `json:"beforeMean"`
	AfterMean  float64 `json:"afterMean"`
	MeanDelta  float64 `json:"meanDelta"`
	Score      float64 `json:"score"`
}

// ChangePointDiagnostics summarizes how the change-point detector ran
// over a request, even when it found nothing. SampleIntervalSeconds and
// WindowSteps are nil when the detector never got far enough to compute
// them (too few samples, or a degenerate sample interval).
type ChangePointDiagnostics struct {
	SampleIntervalSeconds *float64 `json:"sampleIntervalSeconds"`
	WindowSteps           *int     `json:"windowSteps"`
	ThresholdStdDevs      float64  `json:"thresholdStdDevs"`
	WindowSeconds         float64  `json:"windowSeconds"`
	Detected              int      `json:"detected"`
}
