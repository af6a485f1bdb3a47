// Package timeutil normalizes the two timestamp shapes the pipeline
// accepts on the wire (numeric epoch seconds, or ISO-8601 with an
// optional trailing "Z") into a single epoch-seconds representation, and
// renders results back out in one canonical form.
package timeutil

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Parse accepts a JSON-decoded timestamp value (float64, int, or string)
// and returns the epoch seconds it represents. Strings are tried first
// as RFC3339 with an optional trailing "Z" stripped before parsing as a
// timezone-naive instant in UTC, matching the reference implementation's
// use of datetime.fromisoformat.
func Parse(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return parseString(v)
	default:
		return 0, fmt.Errorf("unsupported timestamp type: %T", value)
	}
}

func parseString(value string) (float64, error) {
	trimmed := strings.TrimSuffix(value, "Z")
	layouts := []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return float64(t.UTC().Unix()) + float64(t.Nanosecond())/1e9, nil
		}
	}
	return 0, fmt.Errorf("cannot parse timestamp: %s", value)
}

// Format renders epoch seconds as millisecond-precision UTC ISO-8601
// with a trailing "Z", the canonical form every response timestamp uses.
func Format(epochSeconds float64) string {
	t := time.UnixMicro(int64(math.Round(epochSeconds * 1e6))).UTC()
	return t.Format("2006-01-02T15:04:05.000") + "Z"
}

// CoerceLenient mirrors the pipeline's backfill-path timestamp handling:
// it never fails, falling back to the value's string form when it is
// neither numeric nor a string.
func CoerceLenient(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return Format(v)
	case int:
		return Format(float64(v))
	case int64:
		return Format(float64(v))
	default:
		if value == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	}
}
