package pipeline

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/google/uuid"

	"github.com/NetCockpit/nc-analyzer/pkg/log"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
	"github.com/NetCockpit/nc-analyzer/pkg/timeutil"
)

func nowSeconds() float64 {
	return float64(time.Now().UTC().UnixNano()) / 1e9
}

const defaultScoreThreshold = 0.9

// evaluateAlerts synthesizes one alert per component score crossing the
// configured threshold. Severity uses an inclusive boundary: a score
// that lands exactly on threshold+0.2 is "critical", not "warning".
//
// When alerts.conditions names an expr-lang expression for a
// destination, that destination is evaluated against its own expression
// (with `score` and `detector` bound) instead of the flat
// scoreThreshold — an enrichment over the flat-threshold-only reference
// behavior, letting one request route different destinations at
// different sensitivities.
func evaluateAlerts(ctx *Context) {
	cfg := ctx.AlertConfig
	threshold := defaultScoreThreshold
	var destinations []string
	var conditions map[string]string
	if cfg != nil {
		if cfg.ScoreThreshold > 0 {
			threshold = cfg.ScoreThreshold
		}
		destinations = cfg.Destinations
		conditions = cfg.Conditions
	}

	for _, entry := range ctx.ComponentScores {
		matched, effectiveThreshold := matchesAlert(entry, threshold, destinations, conditions)
		if !matched {
			continue
		}
		severity := "warning"
		if entry.Score >= effectiveThreshold+0.2 {
			severity = "critical"
		}
		ctx.AlertEvents = append(ctx.AlertEvents, schema.Alert{
			ID:           uuid.NewString(),
			Timestamp:    timeutil.Format(nowSeconds()),
			Detector:     entry.Detector,
			Score:        entry.Score,
			Severity:     severity,
			Destinations: destinations,
			Message:      fmt.Sprintf("Detector %s score %.2f exceeded threshold %.2f", entry.Detector, entry.Score, effectiveThreshold),
		})
	}
}

// matchesAlert reports whether a component score should fire, and the
// threshold used for the severity boundary and the rendered message.
// That threshold is always flatThreshold, including when a destination's
// condition expression decided the match.
func matchesAlert(entry schema.ComponentScore, flatThreshold float64, destinations []string, conditions map[string]string) (bool, float64) {
	if len(conditions) == 0 {
		return entry.Score >= flatThreshold, flatThreshold
	}
	for _, dest := range destinations {
		exprSrc, ok := conditions[dest]
		if !ok {
			if entry.Score >= flatThreshold {
				return true, flatThreshold
			}
			continue
		}
		ok, err := evalCondition(exprSrc, entry)
		if err != nil {
			log.Warnf("alert condition for destination %s is invalid: %v", dest, err)
			continue
		}
		if ok {
			return true, flatThreshold
		}
	}
	return false, flatThreshold
}

func evalCondition(source string, entry schema.ComponentScore) (bool, error) {
	env := map[string]interface{}{
		"score":    entry.Score,
		"detector": entry.Detector,
		"label":    entry.Label,
	}
	program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	result, _ := out.(bool)
	return result, nil
}
