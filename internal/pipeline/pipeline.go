package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/NetCockpit/nc-analyzer/pkg/log"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
	"github.com/NetCockpit/nc-analyzer/pkg/timeutil"
)

// ErrInvalidRequest marks a stage failure as fatal to the whole request,
// rather than a recoverable single-detector failure. The baseline
// (legacy) detector wraps this when it is handed an empty metric stream
// or a malformed sample: with no metrics/baseline to build on, there is
// nothing left for the rest of the pipeline to analyze.
var ErrInvalidRequest = errors.New("invalid request")

// Detector is one pluggable analysis stage. Process receives the raw
// request, the context accumulated by every stage that already ran, and
// a settings view merged fresh for this one call — a detector must never
// retain or mutate that map beyond the call, so a per-request override
// never bleeds into a later, unrelated request sharing the same
// detector instance.
type Detector interface {
	Process(req *schema.Request, ctx *Context, settings map[string]interface{}) (Partial, error)
}

// Stage pairs a configured detector instance with the manifest identity
// used to match controls.disableDetectors / controls.detectorParams.
type Stage struct {
	ID       string
	Detector Detector
	Defaults map[string]interface{}
}

// Pipeline runs its stages, in manifest order, over each request.
type Pipeline struct {
	Stages []Stage
}

// New returns a Pipeline running the given stages in order.
func New(stages []Stage) *Pipeline {
	return &Pipeline{Stages: stages}
}

// Process runs every enabled stage over req and returns the assembled
// response. A stage that returns an error is recorded as a zero-score
// "detector-failure" and the pipeline continues with the remaining
// stages — one misbehaving detector never aborts the request — unless
// that error wraps ErrInvalidRequest, in which case the request as a
// whole is unanalyzable (e.g. the baseline detector was handed no
// metrics at all) and Process fails fatally instead of returning a
// partial result.
func (p *Pipeline) Process(req *schema.Request) (schema.Response, error) {
	start := time.Now()
	ctx := NewContext()

	disabled := req.DisabledDetectors()
	ctx.AlertConfig = req.EffectiveAlerts()

	for _, stage := range p.Stages {
		if disabled[stage.ID] {
			continue
		}
		settings := mergedSettings(stage.Defaults, req.DetectorOverride(stage.ID))

		partial, err := p.runStage(stage, req, ctx, settings)
		if err != nil {
			if errors.Is(err, ErrInvalidRequest) {
				return schema.Response{}, fmt.Errorf("detector %s: %w", stage.ID, err)
			}
			log.Warnf("detector %s failed: %v", stage.ID, err)
			ctx.AddScore(stage.ID, 0.0, nil, "detector-failure", []string{fmt.Sprintf("error:%s", stage.ID)})
			ctx.Settings[fmt.Sprintf("detector:%s", stage.ID)] = "error"
			ctx.Settings[fmt.Sprintf("detector:%s:message", stage.ID)] = err.Error()
			continue
		}
		ctx.Merge(partial)
	}

	ensureSummary(ctx, req)
	evaluateAlerts(ctx)

	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0
	return ctx.Serialize(latencyMs), nil
}

// runStage isolates a single detector call so a panicking detector is
// reported the same way as one returning an error, instead of taking
// down the whole request.
func (p *Pipeline) runStage(stage Stage, req *schema.Request, ctx *Context, settings map[string]interface{}) (partial Partial, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return stage.Detector.Process(req, ctx, settings)
}

// mergedSettings produces a fresh view combining defaults with a
// per-request override, never mutating either input map.
func mergedSettings(defaults map[string]interface{}, override map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(defaults)+len(override))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// ensureSummary backfills metrics, baseline and a minimal summary, each
// only if absent, from whatever raw samples survived sanitization, so
// a caller still gets a coherent response even if every detector was
// disabled or none of them produced metrics/baseline output themselves.
// Numeric coercion here never fails — unparseable fields default to
// zero — in contrast to the legacy detector's own strict parsing, which
// raises on the first bad sample.
func ensureSummary(ctx *Context, req *schema.Request) {
	sanitized := make([]schema.MetricSample, 0, len(req.Metrics))
	var bytesSeries, packetsSeries, flowsSeries []float64

	for _, metric := range req.Metrics {
		bytesVal := coerceFloat(metric["bytesPerSecond"])
		packetsVal := coerceFloat(metric["packetsPerSecond"])
		flowsVal := coerceFloat(metric["flowsPerSecond"])

		histogram := map[string]int64{}
		if raw, ok := metric["protocolHistogram"].(map[string]interface{}); ok {
			for k, v := range raw {
				if iv, ok := coerceInt(v); ok {
					histogram[k] = iv
				}
			}
		}

		tagMetrics := map[string]map[string]schema.TagStat{}
		if raw, ok := metric["tagMetrics"].(map[string]interface{}); ok {
			for tagType, entriesRaw := range raw {
				entries, ok := entriesRaw.(map[string]interface{})
				if !ok {
					continue
				}
				sanitizedEntries := map[string]schema.TagStat{}
				for tagValue, statsRaw := range entries {
					stats, ok := statsRaw.(map[string]interface{})
					if !ok {
						continue
					}
					sanitizedEntries[tagValue] = schema.TagStat{
						Bytes:   coerceFloat(stats["bytes"]),
						Packets: coerceFloat(stats["packets"]),
					}
				}
				if len(sanitizedEntries) > 0 {
					tagMetrics[tagType] = sanitizedEntries
				}
			}
		}

		window := "perSecond"
		if w, ok := metric["window"].(string); ok {
			window = w
		}

		sanitized = append(sanitized, schema.MetricSample{
			Timestamp:         timeutil.CoerceLenient(metric["timestamp"]),
			Window:            window,
			BytesPerSecond:    bytesVal,
			PacketsPerSecond:  packetsVal,
			FlowsPerSecond:    flowsVal,
			ProtocolHistogram: histogram,
			TagMetrics:        tagMetrics,
		})
		bytesSeries = append(bytesSeries, bytesVal)
		packetsSeries = append(packetsSeries, packetsVal)
		flowsSeries = append(flowsSeries, flowsVal)
	}

	if len(sanitized) > 0 && len(ctx.Metrics) == 0 {
		ctx.Merge(Partial{Metrics: sanitized})
	}
	if len(sanitized) > 0 && len(ctx.Baseline) == 0 {
		baseline := make([]schema.MetricSample, len(sanitized))
		for i, s := range sanitized {
			baseline[i] = schema.MetricSample{
				Timestamp:        s.Timestamp,
				Window:           s.Window,
				BytesPerSecond:   s.BytesPerSecond,
				PacketsPerSecond: s.PacketsPerSecond,
				FlowsPerSecond:   s.FlowsPerSecond,
			}
		}
		ctx.Merge(Partial{Baseline: baseline})
	}

	windowSeconds := 60
	zThreshold := 3.0
	if req.Params != nil {
		if req.Params.WindowSeconds > 0 {
			windowSeconds = int(req.Params.WindowSeconds)
		}
		if req.Params.ZThreshold > 0 {
			zThreshold = req.Params.ZThreshold
		}
	}

	if ctx.Summary == nil {
		totalPackets := len(req.Packets)
		var totalBytes float64
		for _, pkt := range req.Packets {
			length := coerceFloat(pkt["length"])
			if length > 0 {
				totalBytes += length
			}
		}
		summary := schema.Summary{
			TotalPackets:         totalPackets,
			TotalBytes:           totalBytes,
			MeanBytesPerSecond:   average(bytesSeries),
			MeanPacketsPerSecond: average(packetsSeries),
			MeanFlowsPerSecond:   average(flowsSeries),
			WindowSeconds:        windowSeconds,
			ZThreshold:           zThreshold,
		}
		ctx.Merge(Partial{Summary: &summary})
	}
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// coerceFloat never fails: unparseable or missing values default to 0,
// matching the backfill path's tolerance (as opposed to the legacy
// detector's strict per-sample parsing).
func coerceFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}

func coerceInt(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		var i int64
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i, true
		}
	}
	return 0, false
}
