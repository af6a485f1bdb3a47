package detectors

import (
	"sort"

	"github.com/NetCockpit/nc-analyzer/pkg/timeutil"
)

func settingFloat(settings map[string]interface{}, key string, fallback float64) float64 {
	switch v := settings[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func settingInt(settings map[string]interface{}, key string, fallback int) int {
	switch v := settings[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func settingString(settings map[string]interface{}, key string, fallback string) string {
	if v, ok := settings[key].(string); ok {
		return v
	}
	return fallback
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// timeseriesPoint pairs a successfully-parsed timestamp with its
// originating raw record, mirroring the reference detectors' pattern of
// silently skipping any record whose timestamp can't be parsed instead
// of failing the whole request.
type timeseriesPoint struct {
	ts     float64
	record map[string]interface{}
}

func extractSortedPoints(metrics []map[string]interface{}) []timeseriesPoint {
	points := make([]timeseriesPoint, 0, len(metrics))
	for _, m := range metrics {
		ts, err := timeutil.Parse(m["timestamp"])
		if err != nil {
			continue
		}
		points = append(points, timeseriesPoint{ts: ts, record: m})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].ts < points[j].ts })
	return points
}

func fieldFloat(record map[string]interface{}, key string) float64 {
	v, ok := asFloat(record[key])
	if !ok {
		return 0
	}
	return v
}
