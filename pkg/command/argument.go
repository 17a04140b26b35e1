package command

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Argument describes one field of an action argument struct.
type Argument struct {
	Name    string
	Short   string
	Field   string
	Aliases []string
	Help    string
	Default string
	Extract string
	Type    reflect.Type
	Target  bool

	index []int
}

// Matches reports whether name designates the argument, ignoring case.
func (a Argument) Matches(name string) bool {
	if name == "" {
		return false
	}
	for _, candidate := range a.Names() {
		if strings.EqualFold(candidate, name) {
			return true
		}
	}

	return false
}

// Names lists every name the argument answers to: flag, short flag, field and aliases.
func (a Argument) Names() []string {
	names := []string{a.Name}
	if a.Short != "" {
		names = append(names, a.Short)
	}
	if a.Field != "" && !strings.EqualFold(a.Field, a.Name) {
		names = append(names, a.Field)
	}

	return append(names, a.Aliases...)
}

// Flag renders value as a single --name=value token.
func (a Argument) Flag(value string) string {
	return "--" + a.Name + "=" + value
}

// IsSupplied reports whether tokens already set the argument.
func (a Argument) IsSupplied(tokens []string) bool {
	for _, token := range tokens {
		if token == "--" {
			return false
		}
		if !strings.HasPrefix(token, "-") {
			continue
		}
		name := strings.TrimLeft(token, "-")
		if idx := strings.Index(name, "="); idx > 0 {
			name = name[:idx]
		}
		if name == a.Name || (a.Short != "" && name == a.Short) {
			return true
		}
	}

	return false
}

// IsPrimitive reports whether the argument is a string, boolean or numeric scalar.
func (a Argument) IsPrimitive() bool {
	if a.Type == nil {
		return false
	}
	switch a.Type.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func argumentsOf(t reflect.Type) ([]Argument, int, error) {
	if t.Kind() != reflect.Struct {
		return nil, -1, errors.Wrapf(ErrInvalidArguments, "got %s", t)
	}

	target := -1
	args := make([]Argument, 0, t.NumField())
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		arg := Argument{
			Name:    field.Tag.Get("flag"),
			Short:   field.Tag.Get("short"),
			Field:   field.Name,
			Help:    field.Tag.Get("help"),
			Default: field.Tag.Get("default"),
			Extract: field.Tag.Get("extract"),
			Type:    field.Type,
			Target:  field.Tag.Get("pipe") == "target",
			index:   field.Index,
		}
		if arg.Name == "" {
			arg.Name = strings.ToLower(field.Name)
		}
		if aliases := field.Tag.Get("aliases"); aliases != "" {
			for _, alias := range strings.Split(aliases, ",") {
				if alias = strings.TrimSpace(alias); alias != "" {
					arg.Aliases = append(arg.Aliases, alias)
				}
			}
		}
		if arg.Target {
			if target >= 0 {
				return nil, -1, errors.Wrapf(ErrMultipleTargets, "%s and %s", args[target].Field, field.Name)
			}
			target = len(args)
		}
		args = append(args, arg)
	}

	return args, target, nil
}
