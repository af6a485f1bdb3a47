package schema

// NewTalker is a tag value (destination, process or port) that recently
// appeared or remains confined to a single observation window, above a
// minimum byte floor. EntropyDelta is the leave-one-out Shannon entropy
// shift its presence causes within its tag class: how much more
// concentrated (or spread out) that class's byte distribution becomes
// once this tag is removed.
type NewTalker struct {
	ID           string  `json:"id"`
	TagType      string  `json:"tagType"`
	TagValue     string  `json:"tagValue"`
	FirstSeen    string  `json:"firstSeen"`
	LastSeen     string  `json:"lastSeen"`
	TotalBytes   float64 `json:"totalBytes"`
	Samples      int     `json:"samples"`
	EntropyDelta float64 `json:"entropyDelta"`
}

// NewTalkerDiagnostics records how many tag values were evaluated versus
// how many were flagged and ultimately returned (selection is capped at
// maxEntries).
type NewTalkerDiagnostics struct {
	UniqueTagsEvaluated int `json:"uniqueTagsEvaluated"`
	Detected            int `json:"detected"`
	Returned            int `json:"returned"`
}
