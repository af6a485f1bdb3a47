package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

func TestContextMergeAppendsListsAndReplacesSingles(t *testing.T) {
	ctx := NewContext()
	ctx.Merge(Partial{
		Anomalies: []schema.Anomaly{{ID: "a1"}},
		Summary:   &schema.Summary{TotalPackets: 1},
	})
	ctx.Merge(Partial{
		Anomalies: []schema.Anomaly{{ID: "a2"}},
		Summary:   &schema.Summary{TotalPackets: 2},
	})

	assert.Len(t, ctx.Anomalies, 2)
	require.NotNil(t, ctx.Summary)
	assert.Equal(t, 2, ctx.Summary.TotalPackets)
}

func TestContextMergeLeavesPointerFieldsWhenNil(t *testing.T) {
	ctx := NewContext()
	diag := &schema.ChangePointDiagnostics{Detected: 1}
	ctx.Merge(Partial{ChangePointDiagnostics: diag})
	ctx.Merge(Partial{})

	require.NotNil(t, ctx.ChangePointDiagnostics)
	assert.Equal(t, 1, ctx.ChangePointDiagnostics.Detected)
}

func TestAddScoreDedupesReasonCodesGlobally(t *testing.T) {
	ctx := NewContext()
	ctx.AddScore("legacy", 1.0, nil, "baseline", []string{"r1", "r2"})
	ctx.AddScore("seasonality", 0.5, nil, "season", []string{"r2", "r3"})

	assert.Equal(t, []string{"r1", "r2", "r3"}, ctx.ReasonCodes)
	require.Len(t, ctx.ComponentScores, 2)
}

func TestSerializeOmitsAdvancedSectionsWhenAbsent(t *testing.T) {
	ctx := NewContext()
	resp := ctx.Serialize(1.234)

	assert.Nil(t, resp.MultivariateScores)
	assert.Nil(t, resp.AdvancedDetection.Multivariate)
	assert.Nil(t, resp.AdvancedDetection.NewTalkers)
	assert.Nil(t, resp.AdvancedDetection.Alerts)
	assert.Equal(t, "phase6.6", resp.AdvancedDetection.Phase)
	assert.Equal(t, 1.234, resp.AdvancedDetection.ProcessingLatencyMs)
}

func TestSerializeIncludesMultivariateWhenDiagnosticsPresent(t *testing.T) {
	ctx := NewContext()
	ctx.MultivariateDiagnostics = &schema.MultivariateDiagnostics{EvaluatedPoints: 3}
	resp := ctx.Serialize(0)

	require.NotNil(t, resp.AdvancedDetection.Multivariate)
	assert.Equal(t, 3, resp.AdvancedDetection.Multivariate.Diagnostics.EvaluatedPoints)
	assert.Empty(t, resp.AdvancedDetection.Multivariate.Scores)
}
