package pipeline

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

// ActionStagePrefix starts the name of every built-in action stage.
const ActionStagePrefix = "$"

// ActionStageFactory builds an action stage from the tokens following its key.
type ActionStageFactory func(args []string) (Stage, error)

// ActionStageRegistry maps "$" prefixed keys to action stage factories.
type ActionStageRegistry struct {
	mu        sync.RWMutex
	factories map[string]ActionStageFactory
}

// DefaultActionStages is the process wide registry used by managers created without one.
var DefaultActionStages = NewActionStageRegistry()

// NewActionStageRegistry creates an empty registry.
func NewActionStageRegistry() *ActionStageRegistry {
	return &ActionStageRegistry{factories: make(map[string]ActionStageFactory)}
}

// NormalizeActionStageKey lower-cases key and adds the "$" prefix when missing.
func NormalizeActionStageKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if !strings.HasPrefix(key, ActionStagePrefix) {
		key = ActionStagePrefix + key
	}

	return key
}

// Register adds a factory. A key can only be registered once.
func (r *ActionStageRegistry) Register(key string, factory ActionStageFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key = NormalizeActionStageKey(key)
	if _, ok := r.factories[key]; ok {
		return errors.Wrapf(ErrDuplicateActionStage, "%q", key)
	}
	r.factories[key] = factory

	return nil
}

// RegisterAll adds every factory of the map, or none of them when one key is already taken.
func (r *ActionStageRegistry) RegisterAll(factories map[string]ActionStageFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := make(map[string]ActionStageFactory, len(factories))
	for key, factory := range factories {
		key = NormalizeActionStageKey(key)
		if _, ok := r.factories[key]; ok {
			return errors.Wrapf(ErrDuplicateActionStage, "%q", key)
		}
		if _, ok := normalized[key]; ok {
			return errors.Wrapf(ErrDuplicateActionStage, "%q given twice", key)
		}
		normalized[key] = factory
	}
	for key, factory := range normalized {
		r.factories[key] = factory
	}

	return nil
}

// Keys lists the registered keys.
func (r *ActionStageRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.factories))
	for key := range r.factories {
		keys = append(keys, key)
	}

	return keys
}

// TryCreate builds the stage registered under tokens[0].
// It returns false when tokens do not name an action stage.
func (r *ActionStageRegistry) TryCreate(tokens []string) (Stage, bool, error) {
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], ActionStagePrefix) {
		return nil, false, nil
	}

	key := NormalizeActionStageKey(tokens[0])
	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	stage, err := factory(append([]string(nil), tokens[1:]...))
	if err != nil {
		return nil, true, errors.Wrapf(err, "unable to create action stage %s", key)
	}
	stage.Base().setName(key)
	stage.Base().info.Kind = model.ActionStageKind

	return stage, true, nil
}
