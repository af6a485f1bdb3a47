package config

import (
	"fmt"

	"github.com/NetCockpit/nc-analyzer/internal/detectors"
	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
)

// BuildPipeline constructs a pipeline.Pipeline from a manifest, resolving
// each entry's class through the detector registry. Entries with
// enabled=false are kept out of the stage list entirely rather than
// filtered per-request, since a manifest-disabled stage is a deployment
// decision and controls.disableDetectors is the per-request one.
func BuildPipeline(m Manifest) (*pipeline.Pipeline, error) {
	stages := make([]pipeline.Stage, 0, len(m.Detectors))
	for _, entry := range m.Detectors {
		if !entry.IsEnabled() {
			continue
		}
		det, err := detectors.Build(entry.Class, entry.Config)
		if err != nil {
			return nil, fmt.Errorf("config: building stage %s: %w", entry.ID, err)
		}
		stages = append(stages, pipeline.Stage{
			ID:       entry.ID,
			Detector: det,
			Defaults: entry.Config,
		})
	}
	return pipeline.New(stages), nil
}
