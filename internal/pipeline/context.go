// Package pipeline runs a manifest-ordered sequence of detectors over one
// analysis request, accumulating their partial results into a shared
// Context and serializing the result into a schema.Response.
package pipeline

import (
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

// Partial is one detector's contribution for a single request. Every
// field is optional: a nil slice/map/pointer means the detector did not
// touch that part of the result, and Merge leaves it alone. This
// replaces the reference pipeline's generic string-keyed dict merge
// with a fixed set of known merge policies, one field per mergeable key.
type Partial struct {
	Metrics                []schema.MetricSample
	Baseline               []schema.MetricSample
	Anomalies              []schema.Anomaly
	Clusters               []schema.Cluster
	Summary                *schema.Summary
	Settings               map[string]interface{}
	PayloadSummary         map[string]float64
	Seasonality            *schema.SeasonalityPayload
	ChangePoints           []schema.ChangePoint
	ChangePointDiagnostics *schema.ChangePointDiagnostics
	MultivariateScores     []schema.MultivariateScore
	MultivariateDiagnostics *schema.MultivariateDiagnostics
	NewTalkers             []schema.NewTalker
	NewTalkerDiagnostics   *schema.NewTalkerDiagnostics
}

// Context is the mutable state shared across every detector stage within
// a single request. It is never reused across requests and carries no
// process-wide state, so concurrent requests each get their own Context
// and can run in parallel without locking.
type Context struct {
	Metrics        []schema.MetricSample
	Baseline       []schema.MetricSample
	Anomalies      []schema.Anomaly
	Clusters       []schema.Cluster
	Summary        *schema.Summary
	Settings       map[string]interface{}
	PayloadSummary map[string]float64

	ComponentScores []schema.ComponentScore
	ReasonCodes     []string
	reasonSeen      map[string]bool

	SeasonalityConfidence  *float64
	SeasonalityPayload     *schema.SeasonalityPayload
	ChangePoints           []schema.ChangePoint
	ChangePointDiagnostics *schema.ChangePointDiagnostics
	MultivariateScores     []schema.MultivariateScore
	MultivariateDiagnostics *schema.MultivariateDiagnostics
	NewTalkers             []schema.NewTalker
	NewTalkerDiagnostics   *schema.NewTalkerDiagnostics

	AlertEvents []schema.Alert
	AlertConfig *schema.AlertsConfig
}

// NewContext returns a freshly zeroed Context for one request.
func NewContext() *Context {
	return &Context{
		Settings:       map[string]interface{}{},
		PayloadSummary: map[string]float64{},
		reasonSeen:     map[string]bool{},
	}
}

// Merge folds a detector's partial result into the context, applying the
// fixed merge policy for each field: list-valued results accumulate,
// map-valued results shallow-merge, and single-value results (summary,
// seasonality, diagnostics) replace whatever was there before.
func (c *Context) Merge(p Partial) {
	c.Metrics = append(c.Metrics, p.Metrics...)
	c.Baseline = append(c.Baseline, p.Baseline...)
	c.Anomalies = append(c.Anomalies, p.Anomalies...)
	c.Clusters = append(c.Clusters, p.Clusters...)

	if p.Summary != nil {
		c.Summary = p.Summary
	}
	for k, v := range p.Settings {
		c.Settings[k] = v
	}
	for k, v := range p.PayloadSummary {
		c.PayloadSummary[k] = v
	}
	if p.Seasonality != nil {
		c.SeasonalityPayload = p.Seasonality
	}
	c.ChangePoints = append(c.ChangePoints, p.ChangePoints...)
	if p.ChangePointDiagnostics != nil {
		c.ChangePointDiagnostics = p.ChangePointDiagnostics
	}
	c.MultivariateScores = append(c.MultivariateScores, p.MultivariateScores...)
	if p.MultivariateDiagnostics != nil {
		c.MultivariateDiagnostics = p.MultivariateDiagnostics
	}
	c.NewTalkers = append(c.NewTalkers, p.NewTalkers...)
	if p.NewTalkerDiagnostics != nil {
		c.NewTalkerDiagnostics = p.NewTalkerDiagnostics
	}
}

// AddScore records one detector's contribution to the overall score.
// Reason codes are deduplicated against every reason seen so far in this
// request, preserving first-seen order.
func (c *Context) AddScore(detector string, score float64, weight *float64, label string, reasons []string) {
	entry := schema.ComponentScore{Detector: detector, Score: score, Label: label}
	if weight != nil {
		entry.Weight = weight
	}
	if len(reasons) > 0 {
		deduped := make([]string, 0, len(reasons))
		seen := map[string]bool{}
		for _, r := range reasons {
			if seen[r] {
				continue
			}
			seen[r] = true
			deduped = append(deduped, r)
		}
		entry.ReasonCodes = deduped
		for _, r := range deduped {
			if c.reasonSeen[r] {
				continue
			}
			c.reasonSeen[r] = true
			c.ReasonCodes = append(c.ReasonCodes, r)
		}
	}
	c.ComponentScores = append(c.ComponentScores, entry)
}

// SetSeasonalityConfidence records the seasonality detector's overall
// explained-variance score, surfaced at the top of AdvancedDetection
// independent of whether a seasonality payload was returned.
func (c *Context) SetSeasonalityConfidence(value float64) {
	c.SeasonalityConfidence = &value
}

// Serialize produces the final response, given the total wall-clock time
// spent processing the request.
func (c *Context) Serialize(processingLatencyMs float64) schema.Response {
	resp := schema.Response{
		Metrics:        c.Metrics,
		Baseline:       c.Baseline,
		Anomalies:      c.Anomalies,
		Clusters:       c.Clusters,
		Settings:       c.Settings,
		PayloadSummary: c.PayloadSummary,
	}
	if c.Summary != nil {
		resp.Summary = *c.Summary
	}
	if resp.Anomalies == nil {
		resp.Anomalies = []schema.Anomaly{}
	}
	if resp.Clusters == nil {
		resp.Clusters = []schema.Cluster{}
	}
	if len(c.ChangePoints) > 0 {
		resp.ChangePoints = c.ChangePoints
	}
	if len(c.MultivariateScores) > 0 {
		resp.MultivariateScores = c.MultivariateScores
	}
	if len(c.NewTalkers) > 0 {
		resp.NewTalkers = c.NewTalkers
	}

	adv := schema.AdvancedDetection{
		Phase:                 "phase6.6",
		Scores:                c.ComponentScores,
		ReasonCodes:           c.ReasonCodes,
		SeasonalityConfidence: c.SeasonalityConfidence,
		ProcessingLatencyMs:   roundTo(processingLatencyMs, 3),
	}
	if adv.ReasonCodes == nil {
		adv.ReasonCodes = []string{}
	}
	if c.SeasonalityPayload != nil {
		adv.Seasonality = c.SeasonalityPayload
	}
	if len(c.ChangePoints) > 0 {
		adv.ChangePoints = c.ChangePoints
	}
	if c.ChangePointDiagnostics != nil {
		adv.ChangePointDiagnostics = c.ChangePointDiagnostics
	}
	if len(c.MultivariateScores) > 0 || c.MultivariateDiagnostics != nil {
		adv.Multivariate = &schema.AdvancedMultivariate{
			Scores:      c.MultivariateScores,
			Diagnostics: c.MultivariateDiagnostics,
		}
		if adv.Multivariate.Scores == nil {
			adv.Multivariate.Scores = []schema.MultivariateScore{}
		}
	}
	if len(c.NewTalkers) > 0 || c.NewTalkerDiagnostics != nil {
		adv.NewTalkers = &schema.AdvancedNewTalkers{
			Entries:     c.NewTalkers,
			Diagnostics: c.NewTalkerDiagnostics,
		}
		if adv.NewTalkers.Entries == nil {
			adv.NewTalkers.Entries = []schema.NewTalker{}
		}
	}
	if len(c.AlertEvents) > 0 || c.AlertConfig != nil {
		adv.Alerts = &schema.AdvancedAlerts{
			Events: c.AlertEvents,
			Config: c.AlertConfig,
		}
		if adv.Alerts.Events == nil {
			adv.Alerts.Events = []schema.Alert{}
		}
	}
	resp.AdvancedDetection = adv
	return resp
}

func roundTo(v float64, places int) float64 {
	mult := 1.0
	for i := 0; i < places; i++ {
		mult *= 10
	}
	return float64(int64(v*mult+0.5)) / mult
}
