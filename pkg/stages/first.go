package stages

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shayne/yargs"

	"github.com/askiada/go-argpipe/pkg/pipeline"
)

type firstArgs struct {
	Count int `flag:"count" short:"n" default:"1" help:"number of objects to keep"`
}

type first struct {
	limit int
	seen  int
}

func (f *first) Process(_ context.Context, o any, emit func(any) error) error {
	if f.seen >= f.limit {
		return nil
	}
	f.seen++

	return emit(o)
}

// NewFirst creates a stage passing the first --count objects and dropping the others.
func NewFirst(args []string) (pipeline.Stage, error) {
	res, err := yargs.ParseFlags[firstArgs](args)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse $first arguments")
	}
	if len(res.Args) > 0 || len(res.RemainingArgs) > 0 {
		return nil, errors.Wrapf(ErrUnexpectedArguments, "$first: %v", append(res.Args, res.RemainingArgs...))
	}
	if res.Flags.Count < 0 {
		return nil, errors.Errorf("$first: count must not be negative, got %d", res.Flags.Count)
	}

	return pipeline.NewInProcessStage(args, &first{limit: res.Flags.Count}), nil
}
