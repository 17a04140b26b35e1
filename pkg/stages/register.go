package stages

import (
	"github.com/askiada/go-argpipe/pkg/pipeline"
)

// Factories returns the factories of the built-in action stages, by key.
func Factories() map[string]pipeline.ActionStageFactory {
	return map[string]pipeline.ActionStageFactory{
		"$filter": NewFilter,
		"$count":  NewCount,
		"$first":  NewFirst,
	}
}

// Register adds the built-in action stages to reg.
func Register(reg *pipeline.ActionStageRegistry) error {
	return reg.RegisterAll(Factories())
}

// NewRegistry returns a registry holding the built-in action stages.
func NewRegistry() (*pipeline.ActionStageRegistry, error) {
	reg := pipeline.NewActionStageRegistry()
	err := Register(reg)
	if err != nil {
		return nil, err
	}

	return reg, nil
}
