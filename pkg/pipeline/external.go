package pipeline

import (
	"context"

	"github.com/askiada/go-argpipe/pkg/command"
)

// ExternalProvider creates stages for actions living outside of the definition.
type ExternalProvider interface {
	// TryLoadOutputStage returns a stage consuming pipeline objects, or false when tokens
	// do not name an external action.
	TryLoadOutputStage(tokens []string) (Stage, bool, error)
	// TryLoadInputStage returns a stage producing the objects of the first pipeline element,
	// or false when the pipeline has no external input.
	TryLoadInputStage(def *command.Definition, tokens []string) (Stage, bool, error)
}

// Producer is implemented by input stages. Produce pushes every input object and returns once
// the input is exhausted.
type Producer interface {
	Produce(ctx context.Context) error
}
