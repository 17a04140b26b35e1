package pipeline

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

// RootStage stands for the action at the head of a pipeline. The action itself runs outside of
// the stage and pushes its objects through it, so the stage never holds any work.
type RootStage struct {
	base           *BaseStage
	drainRequested atomic.Bool
}

// NewRootStage creates the root stage for the given command tokens.
func NewRootStage(tokens []string) *RootStage {
	root := &RootStage{}
	root.base = NewBaseStage(root, model.RootStageKind, "", tokens)
	root.base.drained.Store(true)

	return root
}

func (r *RootStage) Base() *BaseStage { return r.base }

// Accept always fails: nothing is upstream of the root stage.
func (r *RootStage) Accept(any) error {
	return errors.Wrapf(ErrRootAccept, "stage %s", r.base.Name())
}

// Drain fires the drained handlers, which starts the drain of the next stage.
func (r *RootStage) Drain() error {
	if !r.drainRequested.CompareAndSwap(false, true) {
		return errors.Wrapf(ErrAlreadyDraining, "stage %s", r.base.Name())
	}
	r.base.MarkDrained()

	return nil
}

var _ Stage = (*RootStage)(nil)
