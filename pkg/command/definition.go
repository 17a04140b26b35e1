package command

import (
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shayne/yargs"
)

// Definition is the named set of actions a program exposes.
type Definition struct {
	name    string
	actions []*Action
	byName  map[string]*Action
	help    yargs.HelpConfig
}

// NewDefinition creates a definition holding the given actions.
func NewDefinition(name string, actions ...*Action) (*Definition, error) {
	def := &Definition{
		name:   name,
		byName: make(map[string]*Action),
		help: yargs.HelpConfig{
			Command:     yargs.CommandInfo{Name: name},
			SubCommands: make(map[string]yargs.SubCommandInfo),
		},
	}
	for _, act := range actions {
		err := def.Add(act)
		if err != nil {
			return nil, err
		}
	}

	return def, nil
}

// Add registers an action. Names and aliases are unique regardless of case.
func (d *Definition) Add(act *Action) error {
	names := append([]string{act.Name()}, act.Aliases()...)
	for _, name := range names {
		if existing, ok := d.byName[strings.ToLower(name)]; ok {
			return errors.Wrapf(ErrDuplicateAction, "%s conflicts with %s", name, existing.Name())
		}
	}
	for _, name := range names {
		d.byName[strings.ToLower(name)] = act
	}
	d.actions = append(d.actions, act)
	d.help.SubCommands[act.Name()] = yargs.SubCommandInfo{
		Name:        act.Name(),
		Description: act.Description(),
		Aliases:     act.Aliases(),
	}

	return nil
}

// Name returns the program name.
func (d *Definition) Name() string { return d.name }

// Actions returns the actions sorted by name.
func (d *Definition) Actions() []*Action {
	out := append([]*Action(nil), d.actions...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })

	return out
}

// HelpConfig describes the definition for yargs.
func (d *Definition) HelpConfig() yargs.HelpConfig {
	return d.help
}

// FindAction looks an action up by name or alias, ignoring case.
func (d *Definition) FindAction(name string) (*Action, bool) {
	act, ok := d.byName[strings.ToLower(name)]

	return act, ok
}

// Resolve finds the action named by the first token and returns a copy of the remaining tokens,
// empty but never nil.
func (d *Definition) Resolve(tokens []string) (*Action, []string, error) {
	if len(tokens) == 0 {
		return nil, nil, ErrNoAction
	}

	tokens = yargs.ApplyAliases(tokens, d.help)
	act, ok := d.FindAction(tokens[0])
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnknownAction, "%q", tokens[0])
	}

	return act, slices.Clone(tokens[1:]), nil
}
