package detectors

import (
	"math"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
	"github.com/NetCockpit/nc-analyzer/pkg/statutil"
	"github.com/NetCockpit/nc-analyzer/pkg/timeutil"
)

var newTalkerTagTypes = []string{"destination", "process", "port"}

type newTalkerDetector struct {
	settings map[string]interface{}
}

func newNewTalkerDetector(config map[string]interface{}) pipeline.Detector {
	settings := map[string]interface{}{
		"recentWindowSeconds": 180.0,
		"minBytes":            2048.0,
		"maxEntries":          10.0,
	}
	for k, v := range config {
		settings[k] = v
	}
	return &newTalkerDetector{settings: settings}
}

type tagInfo struct {
	identifier    string
	firstSeen     float64
	lastSeen      float64
	totalBytes    float64
	uniqueWindows int
	windowIDs     map[int]bool
}

func (d *newTalkerDetector) Process(req *schema.Request, ctx *pipeline.Context, overrides map[string]interface{}) (pipeline.Partial, error) {
	settings := map[string]interface{}{}
	for k, v := range d.settings {
		settings[k] = v
	}
	for k, v := range overrides {
		settings[k] = v
	}

	if len(req.Metrics) == 0 {
		diagnostics := &schema.NewTalkerDiagnostics{}
		ctx.AddScore("newtalker", 0.0, nil, "newtalker-no-metrics", []string{"newtalker.no-metrics"})
		return pipeline.Partial{NewTalkerDiagnostics: diagnostics}, nil
	}

	entries := collectTagEntries(req.Metrics)
	totalSeen := 0
	for _, tagMap := range entries {
		totalSeen += len(tagMap)
	}
	if totalSeen == 0 {
		diagnostics := &schema.NewTalkerDiagnostics{}
		ctx.AddScore("newtalker", 0.0, nil, "newtalker-none", []string{"newtalker.none"})
		return pipeline.Partial{NewTalkers: []schema.NewTalker{}, NewTalkerDiagnostics: diagnostics}, nil
	}

	recentWindow := settingFloat(settings, "recentWindowSeconds", 180.0)
	minBytes := settingFloat(settings, "minBytes", 2048.0)
	maxEntries := settingInt(settings, "maxEntries", 10)

	seriesEnd := math.Inf(-1)
	for _, tagMap := range entries {
		for _, tag := range tagMap {
			if tag.lastSeen > seriesEnd {
				seriesEnd = tag.lastSeen
			}
		}
	}
	recentCutoff := seriesEnd - recentWindow

	var talkers []schema.NewTalker

	for _, tagType := range newTalkerTagTypes {
		tagMap, ok := entries[tagType]
		if !ok {
			continue
		}
		totals := make([]float64, 0, len(tagMap))
		for _, tag := range tagMap {
			totals = append(totals, tag.totalBytes)
		}
		baselineEntropy := statutil.Entropy(totals)

		ids := make([]string, 0, len(tagMap))
		for id := range tagMap {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			tag := tagMap[id]
			if tag.totalBytes < minBytes {
				continue
			}
			if tag.firstSeen < recentCutoff && tag.uniqueWindows > 1 {
				continue
			}
			without := make([]float64, 0, len(tagMap)-1)
			for otherID, other := range tagMap {
				if otherID == id {
					continue
				}
				without = append(without, other.totalBytes)
			}
			entropyWithout := statutil.Entropy(without)
			delta := baselineEntropy - entropyWithout

			talkers = append(talkers, schema.NewTalker{
				ID:           uuid.NewString(),
				TagType:      tagType,
				TagValue:     tag.identifier,
				FirstSeen:    timeutil.Format(tag.firstSeen),
				LastSeen:     timeutil.Format(tag.lastSeen),
				TotalBytes:   tag.totalBytes,
				Samples:      tag.uniqueWindows,
				EntropyDelta: delta,
			})
		}
	}

	sort.SliceStable(talkers, func(i, j int) bool {
		if talkers[i].FirstSeen != talkers[j].FirstSeen {
			return talkers[i].FirstSeen < talkers[j].FirstSeen
		}
		return talkers[i].TotalBytes > talkers[j].TotalBytes
	})

	selected := talkers
	if len(selected) > maxEntries {
		selected = selected[:maxEntries]
	}

	diagnostics := &schema.NewTalkerDiagnostics{
		UniqueTagsEvaluated: totalSeen,
		Detected:            len(talkers),
		Returned:            len(selected),
	}

	if len(selected) == 0 {
		ctx.AddScore("newtalker", 0.0, nil, "newtalker-none", []string{"newtalker.none"})
		return pipeline.Partial{NewTalkers: []schema.NewTalker{}, NewTalkerDiagnostics: diagnostics}, nil
	}

	score := float64(len(selected)) / float64(maxEntries)
	if score > 1.0 {
		score = 1.0
	}
	ctx.AddScore("newtalker", score, nil, "newtalker-detected", []string{newTalkerReasonCode(len(selected))})

	return pipeline.Partial{NewTalkers: selected, NewTalkerDiagnostics: diagnostics}, nil
}

func newTalkerReasonCode(count int) string {
	return "newtalker.count:" + strconv.Itoa(count)
}

func collectTagEntries(metrics []map[string]interface{}) map[string]map[string]*tagInfo {
	entries := map[string]map[string]*tagInfo{}
	for _, tagType := range newTalkerTagTypes {
		entries[tagType] = map[string]*tagInfo{}
	}

	points := extractSortedPoints(metrics)
	for index, p := range points {
		tagMetrics, ok := p.record["tagMetrics"].(map[string]interface{})
		if !ok {
			continue
		}
		for _, tagType := range newTalkerTagTypes {
			tagValuesRaw, ok := tagMetrics[tagType]
			if !ok {
				continue
			}
			tagValues, ok := tagValuesRaw.(map[string]interface{})
			if !ok {
				continue
			}
			tagMap := entries[tagType]
			for identifier, statsRaw := range tagValues {
				stats, ok := statsRaw.(map[string]interface{})
				if !ok {
					continue
				}
				bytesValue := fieldFloat(stats, "bytes")
				info, ok := tagMap[identifier]
				if !ok {
					info = &tagInfo{identifier: identifier, firstSeen: p.ts, lastSeen: p.ts, windowIDs: map[int]bool{}}
					tagMap[identifier] = info
				}
				if bytesValue > 0 {
					info.totalBytes += bytesValue
				}
				if p.ts > info.lastSeen {
					info.lastSeen = p.ts
				}
				if !info.windowIDs[index] {
					info.windowIDs[index] = true
					info.uniqueWindows++
				}
			}
		}
	}
	return entries
}
