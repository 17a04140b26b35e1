package stages

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shayne/yargs"

	"github.com/askiada/go-argpipe/pkg/mapping"
	"github.com/askiada/go-argpipe/pkg/pipeline"
)

// SelfProperty designates the object itself in a $filter expression.
const SelfProperty = "."

var ErrUnknownOperator = errors.New("unknown filter operator")

type filterArgs struct {
	Not        bool `flag:"not" help:"keep the objects not matching the expression"`
	IgnoreCase bool `flag:"ignore-case" short:"i" help:"compare strings without case"`
}

type operator string

const (
	opEqual        operator = "=="
	opNotEqual     operator = "!="
	opGreater      operator = ">"
	opLess         operator = "<"
	opGreaterEqual operator = ">="
	opLessEqual    operator = "<="
	opContains     operator = "contains"
)

// Word forms avoid shell redirections.
var operators = map[string]operator{
	"==": opEqual, "=": opEqual, "eq": opEqual,
	"!=": opNotEqual, "ne": opNotEqual,
	">": opGreater, "gt": opGreater,
	"<": opLess, "lt": opLess,
	">=": opGreaterEqual, "ge": opGreaterEqual,
	"<=": opLessEqual, "le": opLessEqual,
	"contains": opContains, "~": opContains,
}

type filter struct {
	property   string
	op         operator
	value      string
	not        bool
	ignoreCase bool
}

// NewFilter creates a stage keeping the objects matching "<property> <operator> <value>".
// The expression is always the last three arguments, so operands may start with a dash.
// Flags come before it.
func NewFilter(args []string) (pipeline.Stage, error) {
	if len(args) < 3 {
		return nil, errors.Errorf("$filter expects <property> <operator> <value>, got %v", args)
	}
	split := len(args) - 3
	expr := args[split:]

	res, err := yargs.ParseFlags[filterArgs](args[:split])
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse $filter arguments")
	}
	if extra := append(append([]string{}, res.Args...), res.RemainingArgs...); len(extra) > 0 {
		return nil, errors.Errorf("$filter expects <property> <operator> <value>, got extra arguments %v", extra)
	}

	op, ok := operators[strings.ToLower(expr[1])]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownOperator, "%q", expr[1])
	}

	f := &filter{
		property:   expr[0],
		op:         op,
		value:      expr[2],
		not:        res.Flags.Not,
		ignoreCase: res.Flags.IgnoreCase,
	}

	return pipeline.NewInProcessStage(args, f), nil
}

func (f *filter) Process(_ context.Context, o any, emit func(any) error) error {
	if f.matches(o) == f.not {
		return nil
	}

	return emit(o)
}

func (f *filter) matches(o any) bool {
	value := o
	if f.property != SelfProperty {
		var ok bool
		value, ok = mapping.Lookup(mapping.Properties(o), f.property)
		if !ok {
			return false
		}
	}

	text, ok := mapping.Format(value)
	if !ok {
		return false
	}
	want := f.value
	if f.ignoreCase {
		text = strings.ToLower(text)
		want = strings.ToLower(want)
	}

	if f.op == opContains {
		return strings.Contains(text, want)
	}

	cmp := strings.Compare(text, want)
	left, errL := strconv.ParseFloat(text, 64)
	right, errR := strconv.ParseFloat(want, 64)
	if errL == nil && errR == nil {
		switch {
		case left < right:
			cmp = -1
		case left > right:
			cmp = 1
		default:
			cmp = 0
		}
	}

	switch f.op {
	case opEqual:
		return cmp == 0
	case opNotEqual:
		return cmp != 0
	case opGreater:
		return cmp > 0
	case opLess:
		return cmp < 0
	case opGreaterEqual:
		return cmp >= 0
	case opLessEqual:
		return cmp <= 0
	default:
		return false
	}
}
