package schema

import "encoding/json"

// Params carries the request-level overrides consumed by the baseline
// (legacy) detector. Other detectors are configured exclusively through
// the manifest and controls.detectorParams (see Controls).
type Params struct {
	WindowSeconds float64 `json:"windowSeconds"`
	ZThreshold    float64 `json:"zThreshold"`
	Algorithm     string  `json:"algorithm"`
	EWMAAlpha     float64 `json:"ewmaAlpha"`
}

// PayloadConfig controls the (non-detecting) packet payload summary.
type PayloadConfig struct {
	CaptureMode              string `json:"captureMode"`
	PayloadInspectionEnabled bool   `json:"payloadInspectionEnabled"`
}

// AlertsConfig drives alert synthesis (spec §4.8). Conditions is a
// SPEC_FULL enrichment: an optional per-destination expr-lang expression
// evaluated against a component score; a destination with no condition
// falls back to the flat ScoreThreshold.
type AlertsConfig struct {
	ScoreThreshold float64           `json:"scoreThreshold"`
	Destinations   []string          `json:"destinations"`
	Conditions     map[string]string `json:"conditions,omitempty"`
}

// Controls carries the per-request overrides described in spec §4.1.
type Controls struct {
	DisableDetectors []string                          `json:"disableDetectors"`
	DetectorParams   map[string]map[string]interface{} `json:"detectorParams"`
	Alerts           *AlertsConfig                      `json:"alerts"`
}

// Request is the single-invocation analysis request (spec §6). Metrics
// and Packets stay loosely typed at this boundary: the wire format
// tolerates missing numeric fields and malformed tag entries, which is
// much more naturally expressed against map[string]interface{} than
// against strict struct tags that would fail the whole decode on one bad
// record.
type Request struct {
	Metrics       []map[string]interface{} `json:"metrics"`
	Packets       []map[string]interface{} `json:"packets,omitempty"`
	Params        *Params                  `json:"params,omitempty"`
	PayloadConfig *PayloadConfig           `json:"payloadConfig,omitempty"`
	Controls      *Controls                `json:"controls,omitempty"`
	Alerts        *AlertsConfig            `json:"alerts,omitempty"` // legacy alias for controls.alerts
}

// DecodeRequest parses a JSON request body, defaulting absent optional
// sections to their zero value rather than failing the decode.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// EffectiveAlerts resolves controls.alerts, falling back to the legacy
// top-level alerts field, per spec §4.8.
func (r *Request) EffectiveAlerts() *AlertsConfig {
	if r.Controls != nil && r.Controls.Alerts != nil {
		return r.Controls.Alerts
	}
	return r.Alerts
}

// DisabledDetectors returns the set of detector ids skipped for this call.
func (r *Request) DisabledDetectors() map[string]bool {
	disabled := map[string]bool{}
	if r.Controls == nil {
		return disabled
	}
	for _, id := range r.Controls.DisableDetectors {
		disabled[id] = true
	}
	return disabled
}

// DetectorOverride returns the per-request config override for a
// detector id, or nil if none was supplied.
func (r *Request) DetectorOverride(id string) map[string]interface{} {
	if r.Controls == nil || r.Controls.DetectorParams == nil {
		return nil
	}
	return r.Controls.DetectorParams[id]
}
