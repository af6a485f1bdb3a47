package schema

// Summary is the always-present top-level rollup of a request's metric
// samples, backfilled leniently (never erroring, defaulting to zero)
// from whatever samples survived sanitization, even when every detector
// was disabled for the call.
type Summary struct {
	TotalPackets         int     `json:"totalPackets"`
	TotalBytes           float64 `json:"totalBytes"`
	MeanBytesPerSecond   float64 `json:"meanBytesPerSecond"`
	MeanPacketsPerSecond float64 `json:"meanPacketsPerSecond"`
	MeanFlowsPerSecond   float64 `json:"meanFlowsPerSecond"`
	WindowSeconds        int     `json:"windowSeconds"`
	ZThreshold           float64 `json:"zThreshold"`
}

// Alert is one synthesized notification, emitted when a component score
// crosses its scoreThreshold (or, for a destination with a condition
// expression, when that expression evaluates truthy).
type Alert struct {
	ID           string   `json:"id"`
	Timestamp    string   `json:"timestamp"`
	Detector     string   `json:"detector"`
	Score        float64  `json:"score"`
	Severity     string   `json:"severity"`
	Destinations []string `json:"destinations"`
	Message      string   `json:"message"`
}

// AdvancedMultivariate wraps the multivariate detector's scores and
// diagnostics; either may be present without the other (diagnostics
// alone when the detector ran but never reached a scoreable point).
type AdvancedMultivariate struct {
	Scores      []MultivariateScore      `json:"scores"`
	Diagnostics *MultivariateDiagnostics `json:"diagnostics,omitempty"`
}

// AdvancedNewTalkers mirrors AdvancedMultivariate for the new-talker detector.
type AdvancedNewTalkers struct {
	Entries     []NewTalker           `json:"entries"`
	Diagnostics *NewTalkerDiagnostics `json:"diagnostics,omitempty"`
}

// AdvancedAlerts carries both the synthesized events and the resolved
// config they were evaluated against.
type AdvancedAlerts struct {
	Events []Alert       `json:"events"`
	Config *AlertsConfig `json:"config,omitempty"`
}

// AdvancedDetection groups every detector's scoring contribution and the
// optional detectors' full output. Phase is a fixed marker carried over
// from the pipeline this was distilled from, identifying which
// generation of detection logic produced the response.
type AdvancedDetection struct {
	Phase                  string                  `json:"phase"`
	Scores                 []ComponentScore        `json:"scores"`
	ReasonCodes            []string                `json:"reasonCodes"`
	SeasonalityConfidence  *float64                `json:"seasonalityConfidence"`
	ProcessingLatencyMs    float64                 `json:"processingLatencyMs"`
	Seasonality            *SeasonalityPayload     `json:"seasonality,omitempty"`
	ChangePoints           []ChangePoint           `json:"changePoints,omitempty"`
	ChangePointDiagnostics *ChangePointDiagnostics `json:"changePointDiagnostics,omitempty"`
	Multivariate           *AdvancedMultivariate   `json:"multivariate,omitempty"`
	NewTalkers             *AdvancedNewTalkers     `json:"newTalkers,omitempty"`
	Alerts                 *AdvancedAlerts         `json:"alerts,omitempty"`
}

// Response is the full analysis result for one request.
type Response struct {
	Metrics            []MetricSample         `json:"metrics"`
	Baseline           []MetricSample         `json:"baseline"`
	Anomalies          []Anomaly              `json:"anomalies"`
	Clusters           []Cluster              `json:"clusters"`
	Summary            Summary                `json:"summary"`
	Settings           map[string]interface{} `json:"settings,omitempty"`
	PayloadSummary     map[string]float64     `json:"payloadSummary,omitempty"`
	ChangePoints       []ChangePoint          `json:"changePoints,omitempty"`
	MultivariateScores []MultivariateScore    `json:"multivariateScores,omitempty"`
	NewTalkers         []NewTalker            `json:"newTalkers,omitempty"`
	AdvancedDetection  AdvancedDetection      `json:"advancedDetection"`
}
