package schema

// AnomalyContext carries the humanized, narrative-ready numbers behind a
// tag-scoped anomaly: Bytes/Baseline are numbers formatted to one
// decimal as strings ("12345.6"), without a unit. Cluster narratives
// parse Bytes back into a number and humanize it.
type AnomalyContext struct {
	Bytes    string `json:"bytes"`
	Baseline string `json:"baseline"`
}

// Anomaly is a single flagged sample from the baseline detector. TagType,
// TagValue and Context are only populated for tag-scoped anomalies (e.g.
// "bytesPerSecond[destination]"); whole-metric anomalies leave TagType
// and TagValue empty and Context nil.
type Anomaly struct {
	ID        string           `json:"id"`
	Timestamp string           `json:"timestamp"`
	Metric    string           `json:"metric"`
	Value     float64          `json:"value"`
	Baseline  float64          `json:"baseline"`
	ZScore    float64          `json:"zScore"`
	Direction string           `json:"direction"`
	TagType   string           `json:"tagType,omitempty"`
	TagValue  string           `json:"tagValue,omitempty"`
	Context   *AnomalyContext  `json:"context,omitempty"`
}
