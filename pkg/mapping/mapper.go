package mapping

import (
	"reflect"

	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map"

	"github.com/askiada/go-argpipe/pkg/command"
)

var ErrUnmappable = errors.New("object cannot be mapped to the pipeline target")

// ObjectMapper converts objects the generic rules cannot handle.
type ObjectMapper interface {
	// MapDirectTarget converts o into a value assignable to desired.
	// It returns false when it does not know how to convert o.
	MapDirectTarget(desired reflect.Type, o any) (any, bool, error)
	// ExtractArgument returns the textual value of arg taken from o.
	ExtractArgument(o any, arg command.Argument) (string, bool, error)
}

// Map builds the invocation of act for the object o, starting from the stage tokens.
// A nil mapper only disables the custom conversions.
func Map(act *command.Action, tokens []string, o any, mapper ObjectMapper) (command.Invocation, error) {
	inv := command.Invocation{Tokens: append([]string(nil), tokens...)}

	if target, ok := act.Target(); ok {
		if target.IsSupplied(tokens) || o == nil {
			return inv, nil
		}
		return mapDirect(inv, target, o, mapper)
	}

	tokensOut, err := Shred(act, tokens, o, mapper)
	if err != nil {
		return inv, err
	}
	inv.Tokens = tokensOut

	return inv, nil
}

func mapDirect(inv command.Invocation, target command.Argument, o any, mapper ObjectMapper) (command.Invocation, error) {
	if reflect.TypeOf(o).AssignableTo(target.Type) {
		inv.Direct = o
		inv.HasDirect = true
		return inv, nil
	}

	if target.IsPrimitive() {
		if value, ok := Format(o); ok {
			inv.Tokens = append(inv.Tokens, target.Flag(value))
			return inv, nil
		}
	}

	if mapper != nil {
		mapped, ok, err := mapper.MapDirectTarget(target.Type, o)
		if err != nil {
			return inv, errors.Wrapf(err, "unable to map %T to %s", o, target.Name)
		}
		if ok {
			if mapped != nil && !reflect.TypeOf(mapped).AssignableTo(target.Type) {
				return inv, errors.Wrapf(ErrUnmappable, "mapper returned %T for %s (%s)", mapped, target.Name, target.Type)
			}
			inv.Direct = mapped
			inv.HasDirect = true
			return inv, nil
		}
	}

	return inv, errors.Wrapf(ErrUnmappable, "%T to %s (%s)", o, target.Name, target.Type)
}

// Shred appends one --name=value token per argument of act found among the properties of o.
// Arguments already present in tokens keep their command line value.
func Shred(act *command.Action, tokens []string, o any, mapper ObjectMapper) ([]string, error) {
	out := append([]string(nil), tokens...)
	if o == nil {
		return out, nil
	}

	props := Properties(o)
	for _, arg := range act.Arguments() {
		if arg.Target || arg.IsSupplied(tokens) {
			continue
		}

		value, ok := extract(props, arg)
		if !ok && mapper != nil {
			var err error
			value, ok, err = mapper.ExtractArgument(o, arg)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to extract %s from %T", arg.Name, o)
			}
		}
		if ok {
			out = append(out, arg.Flag(value))
		}
	}

	return out, nil
}

func extract(props *orderedmap.OrderedMap, arg command.Argument) (string, bool) {
	if props.Len() == 0 {
		return "", false
	}

	names := arg.Names()
	if arg.Extract != "" {
		names = []string{arg.Extract}
	}
	for _, name := range names {
		if value, ok := Lookup(props, name); ok {
			return Format(value)
		}
	}

	return "", false
}
