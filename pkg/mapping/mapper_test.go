package mapping_test

import (
	"context"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-argpipe/pkg/command"
	"github.com/askiada/go-argpipe/pkg/mapping"
)

type person struct {
	Name    string
	Age     int
	Address string
	secret  string
}

type file struct {
	Path string
	Size int64
}

func (f file) PipelineProperties() []mapping.Property {
	return []mapping.Property{{Name: "FullName", Value: f.Path}, {Name: "Bytes", Value: f.Size}}
}

type greetArgs struct {
	Name     string        `flag:"name" short:"n"`
	Age      int           `flag:"age"`
	Location string        `flag:"location" aliases:"address"`
	Size     int64         `flag:"size" extract:"Bytes"`
	Timeout  time.Duration `flag:"timeout"`
}

type squareArgs struct {
	Value int `flag:"value" pipe:"target"`
}

type personArgs struct {
	Who *person `flag:"who" pipe:"target"`
}

func noop[A any](_ context.Context, _ A, _ command.Emitter) error { return nil }

func TestShred(t *testing.T) {
	t.Parallel()

	greet := command.MustNewAction("greet", noop[greetArgs])

	tcs := map[string]struct {
		tokens []string
		object any
		want   []string
	}{
		"struct fields match names and aliases": {
			object: person{Name: "Ann", Age: 31, Address: "Leeds", secret: "x"},
			want:   []string{"--name=Ann", "--age=31", "--location=Leeds"},
		},
		"command line wins": {
			tokens: []string{"-n", "Bob"},
			object: &person{Name: "Ann", Age: 31},
			want:   []string{"-n", "Bob", "--age=31", "--location="},
		},
		"map keys ignore case": {
			object: map[string]any{"NAME": "Zed", "timeout": 2 * time.Second, "other": true},
			want:   []string{"--name=Zed", "--timeout=2s"},
		},
		"property source with extract": {
			object: file{Path: "/tmp/a", Size: 42},
			want:   []string{"--size=42"},
		},
		"unmatched object": {
			tokens: []string{"--age", "3"},
			object: 12,
			want:   []string{"--age", "3"},
		},
		"nil object": {
			object: nil,
			want:   []string{},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			inv, err := mapping.Map(greet, tc.tokens, tc.object, nil)
			require.NoError(t, err)
			assert.False(t, inv.HasDirect)
			if diff := cmp.Diff(tc.want, inv.Tokens, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
			require.NoError(t, greet.Validate(inv.Tokens))
		})
	}
}

type upperMapper struct{}

func (upperMapper) MapDirectTarget(desired reflect.Type, o any) (any, bool, error) {
	if s, ok := o.(string); ok && desired == reflect.TypeOf(&person{}) {
		return &person{Name: s}, true, nil
	}
	if _, ok := o.(bool); ok {
		return nil, false, errors.New("booleans are not people")
	}

	return nil, false, nil
}

func (upperMapper) ExtractArgument(o any, arg command.Argument) (string, bool, error) {
	if n, ok := o.(int); ok && arg.Name == "age" {
		return strconv.Itoa(n), true, nil
	}

	return "", false, nil
}

func TestMapDirectTarget(t *testing.T) {
	t.Parallel()

	square := command.MustNewAction("square", noop[squareArgs])
	who := command.MustNewAction("who", noop[personArgs])

	tcs := map[string]struct {
		action     *command.Action
		tokens     []string
		object     any
		mapper     mapping.ObjectMapper
		wantTokens []string
		wantDirect any
		wantErr    error
	}{
		"assignable": {
			action:     square,
			object:     5,
			wantDirect: 5,
		},
		"primitive conversion": {
			action:     square,
			object:     "6",
			wantTokens: []string{"--value=6"},
		},
		"int64 conversion": {
			action:     square,
			object:     int64(8),
			wantTokens: []string{"--value=8"},
		},
		"target on command line": {
			action:     square,
			tokens:     []string{"--value", "2"},
			object:     5,
			wantTokens: []string{"--value", "2"},
		},
		"pointer assignable": {
			action:     who,
			object:     &person{Name: "Ann"},
			wantDirect: &person{Name: "Ann"},
		},
		"custom mapper": {
			action:     who,
			object:     "Bob",
			mapper:     upperMapper{},
			wantDirect: &person{Name: "Bob"},
		},
		"unmappable": {
			action:  who,
			object:  3.5,
			mapper:  upperMapper{},
			wantErr: mapping.ErrUnmappable,
		},
		"unmappable without mapper": {
			action:  who,
			object:  "Bob",
			wantErr: mapping.ErrUnmappable,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			inv, err := mapping.Map(tc.action, tc.tokens, tc.object, tc.mapper)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr))
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.wantTokens, inv.Tokens, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tc.wantDirect != nil, inv.HasDirect)
			assert.Equal(t, tc.wantDirect, inv.Direct)
		})
	}
}

func TestMapperErrors(t *testing.T) {
	t.Parallel()

	who := command.MustNewAction("who", noop[personArgs])
	_, err := mapping.Map(who, nil, true, upperMapper{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, mapping.ErrUnmappable))

	greet := command.MustNewAction("greet", noop[greetArgs])
	inv, err := mapping.Map(greet, nil, 40, upperMapper{})
	require.NoError(t, err)
	assert.Equal(t, []string{"--age=40"}, inv.Tokens)
}
