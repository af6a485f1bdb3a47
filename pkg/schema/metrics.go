package schema

// TagStat is one tag-value's contribution within a tag-class breakdown
// (e.g. one destination's byte/packet counts inside "destination").
type TagStat struct {
	Bytes   float64 `json:"bytes"`
	Packets float64 `json:"packets"`
}

// MetricSample is one observation-window sample, already normalized:
// timestamp resolved to seconds-since-epoch-derived RFC3339 string,
// missing numeric fields defaulted to zero, malformed tag entries dropped.
type MetricSample struct {
	Timestamp         string                        `json:"timestamp"`
	Window            string                        `json:"window"`
	BytesPerSecond    float64                       `json:"bytesPerSecond"`
	PacketsPerSecond  float64                       `json:"packetsPerSecond"`
	FlowsPerSecond    float64                       `json:"flowsPerSecond"`
	ProtocolHistogram map[string]int64              `json:"protocolHistogram"`
	TagMetrics        map[string]map[string]TagStat `json:"tagMetrics"`

	// epochSeconds is a parsed timestamp set only through
	// WithEpochSeconds; it is zero otherwise.
	epochSeconds float64
}

// EpochSeconds returns the sample's parsed timestamp.
func (m MetricSample) EpochSeconds() float64 { return m.epochSeconds }

// WithEpochSeconds returns a copy carrying the given parsed timestamp.
func (m MetricSample) WithEpochSeconds(seconds float64) MetricSample {
	m.epochSeconds = seconds
	return m
}

// PacketRecord is an optional raw packet descriptor; it feeds only the
// payload summary and never drives detection.
type PacketRecord struct {
	Info   string  `json:"info"`
	Length float64 `json:"length"`
}
