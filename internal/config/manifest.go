// Package config loads the detector manifest that drives an
// AnalyzerPipeline: an ordered list of detector stages, each naming the
// registry class that implements it and its default configuration. This
// replaces the reference pipeline's ad-hoc YAML-like manifest read
// straight off disk with a validated, typed equivalent.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DetectorConfig is one manifest entry: an instance of Class identified
// by ID, configured with Config and run unless Enabled is explicitly
// false.
type DetectorConfig struct {
	ID      string                 `json:"id"`
	Class   string                 `json:"class"`
	Enabled *bool                  `json:"enabled,omitempty"`
	Config  map[string]interface{} `json:"config,omitempty"`
}

// IsEnabled reports whether this stage should run; a manifest entry with
// no explicit "enabled" field defaults to enabled.
func (d DetectorConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Manifest is the ordered set of detector stages a pipeline runs.
type Manifest struct {
	Detectors []DetectorConfig `json:"detectors"`
}

// DefaultManifest mirrors the reference deployment's stage order: the
// legacy baseline detector always runs first since every later stage's
// diagnostics assume it has already populated metrics/baseline, followed
// by the three advanced-detection stages and finally the new-talker
// scan, which benefits from seeing the complete window.
func DefaultManifest() Manifest {
	return Manifest{
		Detectors: []DetectorConfig{
			{ID: "legacy", Class: "LegacyAnomalyDetector"},
			{ID: "seasonality", Class: "SeasonalityDetector"},
			{ID: "changepoint", Class: "ChangePointDetector"},
			{ID: "multivariate", Class: "MultivariateDetector"},
			{ID: "newtalker", Class: "NewTalkerDetector"},
		},
	}
}

// LoadManifest reads and validates a manifest file from path. Both JSON
// and YAML manifests are accepted, chosen by file extension, since
// operators hand-editing a detector manifest tend to prefer YAML while
// the service that generates one programmatically emits JSON.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("config: reading manifest %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseManifestYAML(raw)
	default:
		return ParseManifest(raw)
	}
}

// ParseManifest validates and decodes raw manifest JSON.
func ParseManifest(raw []byte) (Manifest, error) {
	if err := ValidateManifest(raw); err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("config: decoding manifest: %w", err)
	}
	return m, nil
}

// ParseManifestYAML decodes a YAML manifest by re-encoding it as JSON
// and running it through the same schema validation every manifest is
// held to, regardless of source format.
func ParseManifestYAML(raw []byte) (Manifest, error) {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return Manifest{}, fmt.Errorf("config: decoding YAML manifest: %w", err)
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return Manifest{}, fmt.Errorf("config: converting YAML manifest to JSON: %w", err)
	}
	return ParseManifest(asJSON)
}
