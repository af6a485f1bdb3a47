package schema

// ClusterWindow is the inclusive timestamp span covered by a cluster.
type ClusterWindow struct {
	LowerBound string `json:"lowerBound"`
	UpperBound string `json:"upperBound"`
}

// Cluster groups every anomaly sharing the same tag value (or, for
// whole-metric anomalies, the same metric name) into one narrative
// event. TotalBytes is nil when none of the grouped anomalies carried a
// parseable context.bytes value.
type Cluster struct {
	ID             string         `json:"id"`
	TagType        string         `json:"tagType,omitempty"`
	TagValue       string         `json:"tagValue,omitempty"`
	Metric         string         `json:"metric"`
	Window         ClusterWindow  `json:"window"`
	PeakTimestamp  string         `json:"peakTimestamp"`
	PeakValue      float64        `json:"peakValue"`
	PeakZScore     float64        `json:"peakZScore"`
	TotalAnomalies int            `json:"totalAnomalies"`
	TotalBytes     *float64       `json:"totalBytes"`
	Confidence     float64        `json:"confidence"`
	Narrative      string         `json:"narrative"`
	AnomalyIDs     []string       `json:"anomalyIDs"`
}
