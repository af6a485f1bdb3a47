package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifestValidEntries(t *testing.T) {
	raw := []byte(`{
		"detectors": [
			{"id": "legacy", "class": "LegacyAnomalyDetector"},
			{"id": "seasonality", "class": "SeasonalityDetector", "enabled": false, "config": {"minSamples": 30}}
		]
	}`)

	m, err := ParseManifest(raw)
	require.NoError(t, err)
	require.Len(t, m.Detectors, 2)
	assert.True(t, m.Detectors[0].IsEnabled())
	assert.False(t, m.Detectors[1].IsEnabled())
}

func TestParseManifestRejectsUnknownField(t *testing.T) {
	raw := []byte(`{"detectors": [{"id": "legacy", "class": "LegacyAnomalyDetector", "bogus": true}]}`)
	_, err := ParseManifest(raw)
	assert.Error(t, err)
}

func TestParseManifestRequiresDetectorsKey(t *testing.T) {
	_, err := ParseManifest([]byte(`{}`))
	assert.Error(t, err)
}

func TestDefaultManifestBuildsPipeline(t *testing.T) {
	p, err := BuildPipeline(DefaultManifest())
	require.NoError(t, err)
	assert.Len(t, p.Stages, 5)
}

func TestBuildPipelineRejectsUnknownClass(t *testing.T) {
	m := Manifest{Detectors: []DetectorConfig{{ID: "x", Class: "NotARealDetector"}}}
	_, err := BuildPipeline(m)
	assert.Error(t, err)
}

func TestParseManifestYAMLValidEntries(t *testing.T) {
	raw := []byte(`
detectors:
  - id: legacy
    class: LegacyAnomalyDetector
  - id: seasonality
    class: SeasonalityDetector
    enabled: false
    config:
      minSamples: 30
`)

	m, err := ParseManifestYAML(raw)
	require.NoError(t, err)
	require.Len(t, m.Detectors, 2)
	assert.True(t, m.Detectors[0].IsEnabled())
	assert.False(t, m.Detectors[1].IsEnabled())
}

func TestParseManifestYAMLRejectsUnknownField(t *testing.T) {
	raw := []byte("detectors:\n  - id: legacy\n    class: LegacyAnomalyDetector\n    bogus: true\n")
	_, err := ParseManifestYAML(raw)
	assert.Error(t, err)
}
