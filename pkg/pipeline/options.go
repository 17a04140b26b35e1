package pipeline

import (
	"go.uber.org/zap"

	"github.com/askiada/go-argpipe/pkg/mapping"
	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

// ManagerOption configures a Manager.
type ManagerOption func(m *Manager)

// WithMode sets the execution mode, serialized by default.
func WithMode(mode model.Mode) ManagerOption {
	return func(m *Manager) {
		m.mode = mode
	}
}

// WithLogger sets the logger of the manager and its stages.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithActionStages replaces DefaultActionStages.
func WithActionStages(registry *ActionStageRegistry) ManagerOption {
	return func(m *Manager) {
		m.actionStages = registry
	}
}

// WithExternalProvider sets the provider consulted for unknown actions and for the input stage.
func WithExternalProvider(provider ExternalProvider) ManagerOption {
	return func(m *Manager) {
		m.external = provider
	}
}

// WithObjectMapper sets the mapper used by action stages for the objects the generic rules cannot map.
func WithObjectMapper(mapper mapping.ObjectMapper) ManagerOption {
	return func(m *Manager) {
		m.mapper = mapper
	}
}

// WithPipelineOptions adds observers of the pipeline, such as measures and drawers.
func WithPipelineOptions(opts ...model.PipelineOption) ManagerOption {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// WithExitHandler registers a function receiving the objects leaving the pipeline.
func WithExitHandler(fn func(o any)) ManagerOption {
	return func(m *Manager) {
		m.exitHandlers = append(m.exitHandlers, fn)
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) ManagerOption {
	return func(m *Manager) {
		m.runID = id
	}
}
