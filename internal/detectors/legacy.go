package detectors

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
	"github.com/NetCockpit/nc-analyzer/pkg/humanbytes"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
	"github.com/NetCockpit/nc-analyzer/pkg/statutil"
	"github.com/NetCockpit/nc-analyzer/pkg/timeutil"
)

// legacyDetector is the baseline (phase 1-5) z-score/MAD/EWMA anomaly
// detector: the pipeline's only mandatory stage, it always contributes a
// constant "active" score and is the sole producer of metrics/baseline/
// anomalies/clusters/summary/settings unless ensureSummary has to
// backfill them because this stage was disabled.
type legacyDetector struct {
	defaults map[string]interface{}
}

func newLegacyDetector(config map[string]interface{}) pipeline.Detector {
	defaults := map[string]interface{}{
		"algorithm":     "zscore",
		"windowSeconds": 60.0,
		"zThreshold":    3.0,
	}
	for k, v := range config {
		defaults[k] = v
	}
	return &legacyDetector{defaults: defaults}
}

func (d *legacyDetector) Process(req *schema.Request, ctx *pipeline.Context, settings map[string]interface{}) (pipeline.Partial, error) {
	merged := map[string]interface{}{}
	for k, v := range d.defaults {
		merged[k] = v
	}
	for k, v := range settings {
		merged[k] = v
	}
	if req.Params != nil {
		if req.Params.WindowSeconds != 0 {
			merged["windowSeconds"] = req.Params.WindowSeconds
		}
		if req.Params.ZThreshold != 0 {
			merged["zThreshold"] = req.Params.ZThreshold
		}
		if req.Params.Algorithm != "" {
			merged["algorithm"] = req.Params.Algorithm
		}
		if req.Params.EWMAAlpha != 0 {
			merged["ewmaAlpha"] = req.Params.EWMAAlpha
		}
	}

	captureMode := "standard"
	payloadEnabled := false
	if req.PayloadConfig != nil {
		if req.PayloadConfig.CaptureMode != "" {
			captureMode = req.PayloadConfig.CaptureMode
		}
		payloadEnabled = req.PayloadConfig.PayloadInspectionEnabled
	}

	if len(req.Metrics) == 0 {
		return pipeline.Partial{}, fmt.Errorf("no metrics supplied: %w", pipeline.ErrInvalidRequest)
	}

	type row struct {
		ts          float64
		bytesVal    float64
		packetsVal  float64
		flowsVal    float64
		window      string
		histogram   map[string]interface{}
		tagMetrics  map[string]interface{}
	}
	rows := make([]row, 0, len(req.Metrics))
	for _, m := range req.Metrics {
		ts, err := timeutil.Parse(m["timestamp"])
		if err != nil {
			return pipeline.Partial{}, fmt.Errorf("invalid metric record: %w: %w", err, pipeline.ErrInvalidRequest)
		}
		bytesVal, err := strictFloat(m["bytesPerSecond"], 0.0)
		if err != nil {
			return pipeline.Partial{}, fmt.Errorf("invalid metric record: %w: %w", err, pipeline.ErrInvalidRequest)
		}
		packetsVal, err := strictFloat(m["packetsPerSecond"], 0.0)
		if err != nil {
			return pipeline.Partial{}, fmt.Errorf("invalid metric record: %w: %w", err, pipeline.ErrInvalidRequest)
		}
		flowsVal, err := strictFloat(m["flowsPerSecond"], 0.0)
		if err != nil {
			return pipeline.Partial{}, fmt.Errorf("invalid metric record: %w: %w", err, pipeline.ErrInvalidRequest)
		}
		window, _ := m["window"].(string)
		if window == "" {
			window = "perSecond"
		}
		histogram, _ := m["protocolHistogram"].(map[string]interface{})
		tagMetrics, _ := m["tagMetrics"].(map[string]interface{})
		rows = append(rows, row{ts, bytesVal, packetsVal, flowsVal, window, histogram, tagMetrics})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ts < rows[j].ts })

	times := make([]float64, len(rows))
	bytesSeries := make([]float64, len(rows))
	packetSeries := make([]float64, len(rows))
	flowSeries := make([]float64, len(rows))
	for i, r := range rows {
		times[i] = r.ts
		bytesSeries[i] = r.bytesVal
		packetSeries[i] = r.packetsVal
		flowSeries[i] = r.flowsVal
	}

	sampleInterval := 1.0
	if len(times) > 1 {
		diffs := make([]float64, len(times)-1)
		for i := 0; i < len(times)-1; i++ {
			diffs[i] = times[i+1] - times[i]
		}
		sampleInterval = math.Max(1.0, statutil.Median(diffs))
	}

	windowSeconds := settingFloat(merged, "windowSeconds", 60.0)
	zThreshold := settingFloat(merged, "zThreshold", 3.0)
	windowCount := int(math.Round(windowSeconds / sampleInterval))
	if windowCount < 3 {
		windowCount = 3
	}

	algorithm := settingString(merged, "algorithm", "zscore")
	ewmaAlpha := settingFloat(merged, "ewmaAlpha", 0.3)

	var byteAnomalies, packetAnomalies, flowAnomalies []schema.Anomaly
	var baselineBytes, baselinePackets, baselineFlows []float64

	if algorithm == "ewma" {
		baselineBytes = statutil.EWMA(bytesSeries, ewmaAlpha)
		baselinePackets = statutil.EWMA(packetSeries, ewmaAlpha)
		baselineFlows = statutil.EWMA(flowSeries, ewmaAlpha)
		byteAnomalies = detectAnomaliesEWMA(times, bytesSeries, baselineBytes, "bytesPerSecond", zThreshold, windowCount)
		packetAnomalies = detectAnomaliesEWMA(times, packetSeries, baselinePackets, "packetsPerSecond", zThreshold, windowCount)
		flowAnomalies = detectAnomaliesEWMA(times, flowSeries, baselineFlows, "flowsPerSecond", zThreshold, windowCount)
	} else {
		baselineBytes = statutil.SlidingBaseline(bytesSeries, windowCount)
		baselinePackets = statutil.SlidingBaseline(packetSeries, windowCount)
		baselineFlows = statutil.SlidingBaseline(flowSeries, windowCount)
		statsFn := statutil.RollingStats
		if algorithm == "mad" {
			statsFn = statutil.RollingStatsMAD
		}
		byteAnomalies = detectAnomalies(times, bytesSeries, baselineBytes, "bytesPerSecond", zThreshold, windowCount, statsFn)
		packetAnomalies = detectAnomalies(times, packetSeries, baselinePackets, "packetsPerSecond", zThreshold, windowCount, statsFn)
		flowAnomalies = detectAnomalies(times, flowSeries, baselineFlows, "flowsPerSecond", zThreshold, windowCount, statsFn)
	}

	tagMetricsList := make([]map[string]interface{}, len(rows))
	for i, r := range rows {
		tagMetricsList[i] = r.tagMetrics
	}
	tagAnomalies := detectTagAnomalies(times, tagMetricsList, windowCount, zThreshold, algorithm)

	var payloadSummary map[string]float64
	if payloadEnabled {
		payloadSummary = summarizePayload(req.Packets)
	}

	anomalies := make([]schema.Anomaly, 0, len(byteAnomalies)+len(packetAnomalies)+len(flowAnomalies)+len(tagAnomalies))
	anomalies = append(anomalies, byteAnomalies...)
	anomalies = append(anomalies, packetAnomalies...)
	anomalies = append(anomalies, flowAnomalies...)
	anomalies = append(anomalies, tagAnomalies...)

	clusters := buildClusters(anomalies)

	ctx.AddScore("legacy", 1.0, nil, "baseline-analyzer", []string{"legacy.detector.active"})

	metricsOut := make([]schema.MetricSample, len(rows))
	baselineOut := make([]schema.MetricSample, len(rows))
	for i, r := range rows {
		histogram := map[string]int64{}
		for k, v := range r.histogram {
			if iv, ok := asFloat(v); ok {
				histogram[k] = int64(iv)
			}
		}
		tagMetrics := map[string]map[string]schema.TagStat{}
		for tagType, entriesRaw := range r.tagMetrics {
			entries, ok := entriesRaw.(map[string]interface{})
			if !ok {
				continue
			}
			sanitized := map[string]schema.TagStat{}
			for tagValue, statsRaw := range entries {
				stats, ok := statsRaw.(map[string]interface{})
				if !ok {
					continue
				}
				sanitized[tagValue] = schema.TagStat{
					Bytes:   fieldFloat(stats, "bytes"),
					Packets: fieldFloat(stats, "packets"),
				}
			}
			tagMetrics[tagType] = sanitized
		}
		metricsOut[i] = schema.MetricSample{
			Timestamp:         timeutil.Format(r.ts),
			Window:            r.window,
			BytesPerSecond:    r.bytesVal,
			PacketsPerSecond:  r.packetsVal,
			FlowsPerSecond:    r.flowsVal,
			ProtocolHistogram: histogram,
			TagMetrics:        tagMetrics,
		}
		baselineOut[i] = schema.MetricSample{
			Timestamp:         timeutil.Format(r.ts),
			Window:            r.window,
			BytesPerSecond:    baselineBytes[i],
			PacketsPerSecond:  baselinePackets[i],
			FlowsPerSecond:    baselineFlows[i],
			ProtocolHistogram: map[string]int64{},
			TagMetrics:        map[string]map[string]schema.TagStat{},
		}
	}

	var totalBytes float64
	for _, pkt := range req.Packets {
		if v, ok := asFloat(pkt["length"]); ok && v > 0 {
			totalBytes += v
		}
	}

	summary := schema.Summary{
		TotalPackets:         len(req.Packets),
		TotalBytes:           totalBytes,
		MeanBytesPerSecond:   statutil.Mean(bytesSeries),
		MeanPacketsPerSecond: statutil.Mean(packetSeries),
		MeanFlowsPerSecond:   statutil.Mean(flowSeries),
		WindowSeconds:        int(windowSeconds),
		ZThreshold:           zThreshold,
	}

	partial := pipeline.Partial{
		Metrics:   metricsOut,
		Baseline:  baselineOut,
		Anomalies: anomalies,
		Clusters:  clusters,
		Summary:   &summary,
		Settings: map[string]interface{}{
			"captureMode":              captureMode,
			"payloadInspectionEnabled": payloadEnabled,
			"algorithm":                algorithm,
			"ewmaAlpha":                ewmaAlpha,
		},
	}
	if len(payloadSummary) > 0 {
		partial.PayloadSummary = payloadSummary
	}
	return partial, nil
}

// strictFloat mirrors float(m.get(key, fallback)): a missing key takes
// fallback without error, but a present, non-numeric value is an error —
// unlike the pipeline's lenient backfill coercion, which never fails.
func strictFloat(value interface{}, fallback float64) (float64, error) {
	if value == nil {
		return fallback, nil
	}
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse numeric field: %v", value)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported numeric field type: %T", value)
	}
}

func detectAnomalies(times, series, baseline []float64, metricName string, threshold float64, windowCount int, statsFn func([]float64) (float64, float64)) []schema.Anomaly {
	var out []schema.Anomaly
	for idx, value := range series {
		start := idx - windowCount
		if start < 0 {
			start = 0
		}
		window := series[start:idx]
		if len(window) < 3 {
			continue
		}
		mean, std := statsFn(window)
		if std <= 1e-9 {
			continue
		}
		z := (value - mean) / std
		if math.Abs(z) >= threshold {
			direction := "drop"
			if value >= mean {
				direction = "spike"
			}
			out = append(out, schema.Anomaly{
				ID:        uuid.NewString(),
				Timestamp: timeutil.Format(times[idx]),
				Metric:    metricName,
				Value:     value,
				Baseline:  baseline[idx],
				ZScore:    z,
				Direction: direction,
			})
		}
	}
	return out
}

func detectAnomaliesEWMA(times, series, baseline []float64, metricName string, threshold float64, windowCount int) []schema.Anomaly {
	var out []schema.Anomaly
	residuals := make([]float64, 0, len(series))
	for idx, value := range series {
		residual := value - baseline[idx]
		residuals = append(residuals, residual)
		start := idx - windowCount
		if start < 0 {
			start = 0
		}
		window := residuals[start:idx]
		if len(window) < 3 {
			continue
		}
		mean, std := statutil.RollingStats(window)
		if std <= 1e-9 {
			continue
		}
		score := math.Abs(residual-mean) / std
		if score >= threshold {
			direction := "drop"
			if residual >= 0 {
				direction = "spike"
			}
			out = append(out, schema.Anomaly{
				ID:        uuid.NewString(),
				Timestamp: timeutil.Format(times[idx]),
				Metric:    metricName,
				Value:     value,
				Baseline:  baseline[idx],
				ZScore:    score,
				Direction: direction,
			})
		}
	}
	return out
}

type tagKey struct{ tagType, tagValue string }

func detectTagAnomalies(times []float64, tagMetricsList []map[string]interface{}, windowCount int, zThreshold float64, algorithm string) []schema.Anomaly {
	history := map[tagKey][]float64{}
	statsFn := statutil.RollingStats
	if algorithm == "mad" {
		statsFn = statutil.RollingStatsMAD
	}
	var out []schema.Anomaly
	for idx, ts := range times {
		tagMetrics := tagMetricsList[idx]
		for tagType, entriesRaw := range tagMetrics {
			entries, ok := entriesRaw.(map[string]interface{})
			if !ok {
				continue
			}
			for tagValue, statsRaw := range entries {
				stats, ok := statsRaw.(map[string]interface{})
				if !ok {
					continue
				}
				value, ok := asFloat(stats["bytes"])
				if !ok {
					value = 0
				}
				key := tagKey{tagType, tagValue}
				h := append(history[key], value)
				maxHistory := windowCount * 4
				if windowCount+1 > maxHistory {
					maxHistory = windowCount + 1
				}
				if len(h) > maxHistory {
					h = h[len(h)-maxHistory:]
				}
				history[key] = h
				if len(h) < windowCount {
					continue
				}
				window := h[len(h)-windowCount:]
				mean, std := statsFn(window)
				if std <= 1e-9 {
					continue
				}
				z := (value - mean) / std
				if math.Abs(z) >= zThreshold {
					direction := "drop"
					if z > 0 {
						direction = "spike"
					}
					out = append(out, schema.Anomaly{
						ID:        uuid.NewString(),
						Timestamp: timeutil.Format(ts),
						Metric:    fmt.Sprintf("bytesPerSecond[%s]", tagType),
						Value:     value,
						Baseline:  mean,
						ZScore:    z,
						Direction: direction,
						TagType:   tagType,
						TagValue:  tagValue,
						Context: &schema.AnomalyContext{
							Bytes:    fmt.Sprintf("%.1f", value),
							Baseline: fmt.Sprintf("%.1f", mean),
						},
					})
				}
			}
		}
	}
	return out
}

func summarizePayload(packets []map[string]interface{}) map[string]float64 {
	var tlsClientHello, tlsServerHello, httpRequests float64
	var totalPayloadBytes float64
	for _, pkt := range packets {
		info, _ := pkt["info"].(string)
		lower := strings.ToLower(info)
		if v, ok := asFloat(pkt["length"]); ok && v > 0 {
			totalPayloadBytes += v
		}
		if strings.Contains(lower, "client hello") {
			tlsClientHello++
		}
		if strings.Contains(lower, "server hello") {
			tlsServerHello++
		}
		if strings.Contains(lower, "http") && (strings.Contains(lower, "get") || strings.Contains(lower, "post") || strings.Contains(lower, "put") || strings.Contains(lower, "head")) {
			httpRequests++
		}
	}
	out := map[string]float64{}
	if tlsClientHello > 0 {
		out["tlsClientHello"] = tlsClientHello
	}
	if tlsServerHello > 0 {
		out["tlsServerHello"] = tlsServerHello
	}
	if httpRequests > 0 {
		out["httpRequests"] = httpRequests
	}
	if totalPayloadBytes > 0 {
		out["observedPayloadBytes"] = totalPayloadBytes
	}
	return out
}

func buildClusters(anomalies []schema.Anomaly) []schema.Cluster {
	if len(anomalies) == 0 {
		return nil
	}
	type bucketKey struct{ keyType, keyValue string }
	buckets := map[bucketKey][]schema.Anomaly{}
	order := []bucketKey{}
	for _, a := range anomalies {
		keyType := "metric"
		keyValue := a.Metric
		if a.TagType != "" {
			keyType = a.TagType
			keyValue = a.TagValue
		}
		k := bucketKey{keyType, keyValue}
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], a)
	}

	clusters := make([]schema.Cluster, 0, len(buckets))
	for _, k := range order {
		items := buckets[k]
		ordered := append([]schema.Anomaly(nil), items...)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Timestamp < ordered[j].Timestamp })

		peak := ordered[0]
		for _, a := range ordered {
			if math.Abs(a.ZScore) > math.Abs(peak.ZScore) {
				peak = a
			}
		}
		peakZ := math.Abs(peak.ZScore)

		var bytesValues []float64
		for _, a := range ordered {
			if a.Context == nil {
				continue
			}
			if v, err := strconv.ParseFloat(a.Context.Bytes, 64); err == nil {
				bytesValues = append(bytesValues, v)
			}
		}
		var totalBytes *float64
		if len(bytesValues) > 0 {
			sum := 0.0
			for _, v := range bytesValues {
				sum += v
			}
			totalBytes = &sum
		}

		metricName := peak.Metric
		actor := metricName
		if k.keyType != "metric" {
			actor = k.keyValue
		}
		direction := peak.Direction

		var highlighted string
		if len(bytesValues) > 0 {
			max := bytesValues[0]
			for _, v := range bytesValues[1:] {
				if v > max {
					max = v
				}
			}
			highlighted = humanbytes.Format(max)
		} else {
			highlighted = fmt.Sprintf("%.1f", peak.Value)
		}
		narrative := fmt.Sprintf("%s experienced a %s peaking at %s (%.1fσ)", actor, direction, highlighted, peakZ)
		confidence := 0.35 + float64(len(ordered))/10.0 + peakZ/6.0
		if confidence > 1.0 {
			confidence = 1.0
		}

		anomalyIDs := make([]string, len(ordered))
		for i, a := range ordered {
			anomalyIDs[i] = a.ID
		}

		cluster := schema.Cluster{
			ID:             uuid.NewString(),
			Metric:         metricName,
			Window:         schema.ClusterWindow{LowerBound: ordered[0].Timestamp, UpperBound: ordered[len(ordered)-1].Timestamp},
			PeakTimestamp:  peak.Timestamp,
			PeakValue:      peak.Value,
			PeakZScore:     peakZ,
			TotalAnomalies: len(ordered),
			TotalBytes:     totalBytes,
			Confidence:     roundTo3(confidence),
			Narrative:      narrative,
			AnomalyIDs:     anomalyIDs,
		}
		if k.keyType != "metric" {
			cluster.TagType = k.keyType
			cluster.TagValue = k.keyValue
		}
		clusters = append(clusters, cluster)
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].PeakZScore > clusters[j].PeakZScore })
	return clusters
}

func roundTo3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
