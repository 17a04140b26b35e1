package command

import (
	"context"
	"reflect"

	"github.com/pkg/errors"
	"github.com/shayne/yargs"
)

// Handler is the function run by an action for every invocation.
type Handler[A any] func(ctx context.Context, args A, out Emitter) error

// Action is a named, typed command handler.
type Action struct {
	name        string
	description string
	aliases     []string
	arguments   []Argument
	target      int
	parse       func(tokens []string) error
	run         func(ctx context.Context, inv Invocation, out Emitter) error
}

// ActionOption configures an Action.
type ActionOption func(a *Action)

// WithDescription sets the help line of the action.
func WithDescription(description string) ActionOption {
	return func(a *Action) {
		a.description = description
	}
}

// WithAliases adds alternative names for the action.
func WithAliases(aliases ...string) ActionOption {
	return func(a *Action) {
		a.aliases = append(a.aliases, aliases...)
	}
}

// NewAction creates an action whose arguments are described by the struct A.
func NewAction[A any](name string, handler Handler[A], opts ...ActionOption) (*Action, error) {
	if name == "" {
		return nil, errors.Wrap(ErrNoAction, "action name is empty")
	}

	var zero A
	arguments, target, err := argumentsOf(reflect.TypeOf(zero))
	if err != nil {
		return nil, errors.Wrapf(err, "action %s", name)
	}

	act := &Action{
		name:      name,
		arguments: arguments,
		target:    target,
	}
	for _, opt := range opts {
		opt(act)
	}

	act.parse = func(tokens []string) error {
		_, err := parseArguments[A](name, tokens)
		return err
	}
	act.run = func(ctx context.Context, inv Invocation, out Emitter) error {
		args, err := parseArguments[A](name, inv.Tokens)
		if err != nil {
			return err
		}
		if inv.HasDirect {
			err = act.setTarget(reflect.ValueOf(&args).Elem(), inv.Direct)
			if err != nil {
				return err
			}
		}

		return handler(ctx, args, out)
	}

	return act, nil
}

// MustNewAction is like NewAction but panics on invalid argument structs.
func MustNewAction[A any](name string, handler Handler[A], opts ...ActionOption) *Action {
	act, err := NewAction(name, handler, opts...)
	if err != nil {
		panic(err)
	}

	return act
}

func parseArguments[A any](name string, tokens []string) (A, error) {
	var zero A
	res, err := yargs.ParseFlags[A](tokens)
	if err != nil {
		return zero, errors.Wrapf(err, "unable to parse arguments of %s", name)
	}

	extra := make([]string, 0, len(res.Args)+len(res.RemainingArgs))
	extra = append(extra, res.Args...)
	extra = append(extra, res.RemainingArgs...)
	if len(extra) > 0 {
		return zero, errors.Wrapf(ErrUnexpectedArguments, "%s: %v", name, extra)
	}

	return res.Flags, nil
}

func (a *Action) setTarget(args reflect.Value, direct any) error {
	target, ok := a.Target()
	if !ok {
		return errors.Wrap(ErrNoTarget, a.name)
	}

	field := args.FieldByIndex(target.index)
	value := reflect.ValueOf(direct)
	if !value.IsValid() {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if !value.Type().AssignableTo(field.Type()) {
		return errors.Wrapf(ErrTargetType, "%s: %s is not assignable to %s", a.name, value.Type(), field.Type())
	}
	field.Set(value)

	return nil
}

// Name returns the canonical name of the action.
func (a *Action) Name() string { return a.name }

// Description returns the help line of the action.
func (a *Action) Description() string { return a.description }

// Aliases returns the alternative names of the action.
func (a *Action) Aliases() []string { return append([]string(nil), a.aliases...) }

// Arguments returns the arguments of the action in declaration order.
func (a *Action) Arguments() []Argument { return append([]Argument(nil), a.arguments...) }

// Target returns the argument receiving whole pipeline objects, if any.
func (a *Action) Target() (Argument, bool) {
	if a.target < 0 {
		return Argument{}, false
	}

	return a.arguments[a.target], true
}

// Validate parses tokens without running the action.
func (a *Action) Validate(tokens []string) error {
	return a.parse(tokens)
}

// Invoke parses the invocation tokens, assigns the pipeline target and runs the handler.
func (a *Action) Invoke(ctx context.Context, inv Invocation, out Emitter) error {
	return a.run(ctx, inv, out)
}
