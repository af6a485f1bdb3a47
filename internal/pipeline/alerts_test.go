package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

func TestEvaluateAlertsFlatThreshold(t *testing.T) {
	ctx := NewContext()
	ctx.AlertConfig = &schema.AlertsConfig{ScoreThreshold: 0.8, Destinations: []string{"ops@example.com"}}
	ctx.ComponentScores = []schema.ComponentScore{{Detector: "legacy", Score: 0.95}}

	evaluateAlerts(ctx)
	require.Len(t, ctx.AlertEvents, 1)
	assert.Equal(t, "warning", ctx.AlertEvents[0].Severity)
}

func TestEvaluateAlertsWarningBoundary(t *testing.T) {
	ctx := NewContext()
	ctx.AlertConfig = &schema.AlertsConfig{ScoreThreshold: 0.5}
	ctx.ComponentScores = []schema.ComponentScore{{Detector: "legacy", Score: 0.6}}

	evaluateAlerts(ctx)
	require.Len(t, ctx.AlertEvents, 1)
	assert.Equal(t, "warning", ctx.AlertEvents[0].Severity)
}

func TestEvaluateAlertsSkipsBelowThreshold(t *testing.T) {
	ctx := NewContext()
	ctx.AlertConfig = &schema.AlertsConfig{ScoreThreshold: 0.9}
	ctx.ComponentScores = []schema.ComponentScore{{Detector: "legacy", Score: 0.1}}

	evaluateAlerts(ctx)
	assert.Empty(t, ctx.AlertEvents)
}

func TestEvaluateAlertsPerDestinationCondition(t *testing.T) {
	ctx := NewContext()
	ctx.AlertConfig = &schema.AlertsConfig{
		ScoreThreshold: 0.9,
		Destinations:   []string{"soc@example.com"},
		Conditions:     map[string]string{"soc@example.com": `detector == "legacy" && score >= 0.2`},
	}
	ctx.ComponentScores = []schema.ComponentScore{{Detector: "legacy", Score: 0.3}}

	evaluateAlerts(ctx)
	require.Len(t, ctx.AlertEvents, 1)
	assert.Equal(t, "legacy", ctx.AlertEvents[0].Detector)
}

func TestEvalConditionInvalidExpressionIsTreatedAsNoMatch(t *testing.T) {
	ok, err := evalCondition("score >>> 1", schema.ComponentScore{Score: 1})
	assert.Error(t, err)
	assert.False(t, ok)
}
