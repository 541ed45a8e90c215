package analysis

import (
	"convolens/internal/config"
	"convolens/internal/stage"
)

// NewRegistry wires the built-in stages, honoring the configured
// disabled list.
func NewRegistry(cfg *config.Config) (*stage.Registry, error) {
	registry, err := stage.NewRegistry(
		SpeakerStatsStage{},
		EmotionStage{},
		PersuasionStage{},
		TacticsStage{},
		InfluenceStage{},
	)
	if err != nil {
		return nil, err
	}
	if len(cfg.Analysis.DisabledStages) > 0 {
		registry = registry.Without(cfg.Analysis.DisabledStages...)
	}
	return registry, nil
}
