package stages

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-argpipe/pkg/pipeline"
)

var ErrUnexpectedArguments = errors.New("unexpected arguments")

type count struct {
	n int
}

func (c *count) Process(context.Context, any, func(any) error) error {
	c.n++
	return nil
}

func (c *count) BeforeDrained(_ context.Context, emit func(any) error) error {
	return emit(c.n)
}

// NewCount creates a stage emitting the number of objects it received, once drained.
func NewCount(args []string) (pipeline.Stage, error) {
	if len(args) > 0 {
		return nil, errors.Wrapf(ErrUnexpectedArguments, "$count takes no argument, got %v", args)
	}

	return pipeline.NewInProcessStage(args, &count{}), nil
}
