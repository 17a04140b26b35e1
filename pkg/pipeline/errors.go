package pipeline

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	ErrDrainRequested       = errors.New("stage does not accept objects once a drain was requested")
	ErrAlreadyDraining      = errors.New("drain was already requested")
	ErrRootAccept           = errors.New("root stage does not accept objects")
	ErrPipelineDraining     = errors.New("pipeline is draining")
	ErrUnexpectedAction     = errors.New("unexpected pipeline action")
	ErrDuplicateActionStage = errors.New("action stage already registered")
	ErrEmptyStage           = errors.New("pipeline stage has no tokens")
	ErrNextStageSet         = errors.New("next stage already set")
	ErrManagerSet           = errors.New("stage already belongs to a manager")
	ErrDefinitionMustBeSet  = errors.New("definition must be set")
)

// asyncErrors collects the errors raised by stage workers.
type asyncErrors struct {
	mu   sync.Mutex
	list []error
}

func (ae *asyncErrors) add(err error) {
	if err == nil {
		return
	}

	ae.mu.Lock()
	defer ae.mu.Unlock()
	ae.list = append(ae.list, err)
}

// take returns the collected errors and resets the list.
// A single error is returned as is, several are combined.
func (ae *asyncErrors) take() error {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	err := multierr.Combine(ae.list...)
	ae.list = nil

	return err
}
