package schema

// SeasonalityBandPoint is one sample's expected band: Baseline is the
// seasonal bucket mean, Lower/Upper are that mean plus/minus
// bandStdDevs residual standard deviations (Lower floored at zero, since
// rates never go negative).
type SeasonalityBandPoint struct {
	Timestamp string  `json:"timestamp"`
	Baseline  float64 `json:"baseline"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
}

// SeasonalityMetric is one metric's seasonal band plus the fraction of
// its variance the chosen period explains.
type SeasonalityMetric struct {
	Confidence     float64                `json:"confidence"`
	ResidualStdDev float64                `json:"residualStdDev"`
	Band           []SeasonalityBandPoint `json:"band"`
}

// SeasonalityCandidate is one period the detector tried; Explained is
// nil when the candidate was rejected before a score could be computed
// (too few cycles, or every series had zero variance).
type SeasonalityCandidate struct {
	PeriodSeconds float64  `json:"periodSeconds"`
	Cycles        float64  `json:"cycles"`
	Explained     *float64 `json:"explained,omitempty"`
	Status        string   `json:"status"`
}

// SeasonalitySelected names the period the detector settled on.
type SeasonalitySelected struct {
	PeriodSeconds float64 `json:"periodSeconds"`
	Explained     float64 `json:"explained"`
}

// SeasonalityDiagnostics is the full trail of periods considered, so a
// caller can see why a particular period won (or why none did).
type SeasonalityDiagnostics struct {
	Candidates []SeasonalityCandidate `json:"candidates"`
	Selected   *SeasonalitySelected   `json:"selected"`
}

// SeasonalityPayload is the seasonality detector's full result.
type SeasonalityPayload struct {
	PeriodSeconds        float64                      `json:"periodSeconds"`
	SampleIntervalSeconds float64                     `json:"sampleIntervalSeconds"`
	Metrics              map[string]SeasonalityMetric  `json:"metrics"`
	Diagnostics          SeasonalityDiagnostics        `json:"diagnostics"`
}
