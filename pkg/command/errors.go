package command

import "github.com/pkg/errors"

var (
	ErrDuplicateAction     = errors.New("action already defined")
	ErrMultipleTargets     = errors.New("more than one pipeline target argument")
	ErrInvalidArguments    = errors.New("action arguments must be a struct")
	ErrUnknownAction       = errors.New("unknown action")
	ErrNoAction            = errors.New("no action given")
	ErrUnexpectedArguments = errors.New("unexpected positional arguments")
	ErrNoTarget            = errors.New("action has no pipeline target argument")
	ErrTargetType          = errors.New("pipeline target value has the wrong type")
)
