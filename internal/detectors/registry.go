// Package detectors implements the pluggable analysis stages wired
// together by internal/pipeline. Where the reference implementation
// dispatched to a detector class by dynamically importing a module and
// calling getattr on it, Go has no equivalent runtime hook — the
// registry below is the compile-time substitute: a fixed table mapping
// a manifest entry's class name to a constructor, resolved once at
// startup instead of once per request.
package detectors

import (
	"fmt"

	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
)

// Constructor builds a detector instance from its manifest config.
type Constructor func(config map[string]interface{}) pipeline.Detector

// Registry maps a manifest entry's "class" field to its constructor.
var Registry = map[string]Constructor{
	"LegacyAnomalyDetector":  newLegacyDetector,
	"SeasonalityDetector":    newSeasonalityDetector,
	"ChangePointDetector":    newChangePointDetector,
	"MultivariateDetector":   newMultivariateDetector,
	"NewTalkerDetector":      newNewTalkerDetector,
}

// Build looks up and constructs the detector named by class, returning
// an error if no such class is registered.
func Build(class string, config map[string]interface{}) (pipeline.Detector, error) {
	ctor, ok := Registry[class]
	if !ok {
		return nil, fmt.Errorf("detectors: unknown class %q", class)
	}
	return ctor(config), nil
}
