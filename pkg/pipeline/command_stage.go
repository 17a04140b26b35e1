package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-argpipe/pkg/command"
	"github.com/askiada/go-argpipe/pkg/mapping"
)

// commandProcessor maps every object into an invocation of a definition action.
type commandProcessor struct {
	action *command.Action
	tokens []string
	mapper mapping.ObjectMapper
}

func (p *commandProcessor) Process(ctx context.Context, o any, emit func(any) error) error {
	inv, err := mapping.Map(p.action, p.tokens, o, p.mapper)
	if err != nil {
		return errors.Wrapf(err, "unable to map object for %s", p.action.Name())
	}

	return p.action.Invoke(ctx, inv, command.EmitterFunc(emit))
}

// NewCommandStage creates a stage running an action of def for every accepted object.
// The arguments given in tokens are checked before the stage is returned.
func NewCommandStage(def *command.Definition, tokens []string, mapper mapping.ObjectMapper) (*InProcessStage, error) {
	if def == nil {
		return nil, ErrDefinitionMustBeSet
	}

	act, rest, err := def.Resolve(tokens)
	if err != nil {
		return nil, errors.Wrap(err, "unable to resolve stage action")
	}
	err = act.Validate(rest)
	if err != nil {
		return nil, err
	}

	processor := &commandProcessor{action: act, tokens: rest, mapper: mapper}

	return NewInProcessStage(tokens, processor, StageName(act.Name())), nil
}
