package pipeline

import (
	"context"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/askiada/go-argpipe/pkg/command"
)

// PipeIndicator separates the stages of an argument pipeline.
const PipeIndicator = "=>"

// Hook runs command lines made of "=>" separated actions.
type Hook struct {
	definition *command.Definition
	opts       []ManagerOption
}

// NewHook creates a hook running the actions of def. The options apply to every manager it creates.
func NewHook(def *command.Definition, opts ...ManagerOption) *Hook {
	return &Hook{definition: def, opts: opts}
}

// HasPipe reports whether args contain the pipe indicator.
func HasPipe(args []string) bool {
	for _, arg := range args {
		if arg == PipeIndicator {
			return true
		}
	}

	return false
}

// SplitStages cuts args on the pipe indicator. Every stage must have at least one token.
func SplitStages(args []string) ([][]string, error) {
	if len(args) == 0 {
		return nil, ErrEmptyStage
	}

	groups := [][]string{{}}
	for _, arg := range args {
		if arg == PipeIndicator {
			groups = append(groups, []string{})
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], arg)
	}
	for i, group := range groups {
		if len(group) == 0 {
			return nil, errors.Wrapf(ErrEmptyStage, "stage %d", i)
		}
	}

	return groups, nil
}

// ExecuteLine splits line with shell quoting rules and executes it.
func (h *Hook) ExecuteLine(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return errors.Wrap(err, "unable to split command line")
	}

	return h.Execute(ctx, args)
}

// Execute runs args. Without pipe indicator the root action runs alone and its objects leave
// right away; otherwise every stage is created first, the root action runs and the pipeline is
// drained.
func (h *Hook) Execute(ctx context.Context, args []string) error {
	groups, err := SplitStages(args)
	if err != nil {
		return err
	}

	mgr, err := NewManager(ctx, h.definition, h.opts...)
	if err != nil {
		return err
	}

	if provider := mgr.ExternalProvider(); provider != nil {
		input, ok, err := provider.TryLoadInputStage(h.definition, groups[0])
		if err != nil {
			return errors.Wrap(err, "unable to load input stage")
		}
		if ok {
			return runWithInput(ctx, mgr, input, groups)
		}
	}

	return h.runWithRoot(ctx, mgr, groups)
}

func (h *Hook) runWithRoot(ctx context.Context, mgr *Manager, groups [][]string) error {
	if h.definition == nil {
		return ErrDefinitionMustBeSet
	}

	act, rest, err := h.definition.Resolve(groups[0])
	if err != nil {
		if errors.Is(err, command.ErrUnknownAction) {
			return errors.Wrapf(ErrUnexpectedAction, "%q", groups[0][0])
		}
		return err
	}
	err = act.Validate(rest)
	if err != nil {
		return err
	}

	for _, group := range groups {
		_, err := mgr.CreateNextStage(group)
		if err != nil {
			return err
		}
	}

	root := mgr.Stages()[0]
	runErr := act.Invoke(ctx, command.Invocation{Tokens: rest}, command.EmitterFunc(root.Base().Push))
	if runErr != nil {
		runErr = errors.Wrapf(runErr, "root action %s", act.Name())
	}

	return multierr.Append(runErr, mgr.Drain(true))
}

func runWithInput(ctx context.Context, mgr *Manager, input Stage, groups [][]string) error {
	producer, ok := input.(Producer)
	if !ok {
		return errors.Errorf("input stage %s does not produce objects", input.Base().Name())
	}

	err := mgr.AppendStage(input)
	if err != nil {
		return err
	}
	for _, group := range groups {
		_, err := mgr.CreateNextStage(group)
		if err != nil {
			return err
		}
	}

	runErr := producer.Produce(ctx)
	if runErr != nil {
		runErr = errors.Wrapf(runErr, "input stage %s", input.Base().Name())
	}

	return multierr.Append(runErr, mgr.Drain(true))
}
