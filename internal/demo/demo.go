// Package demo holds the actions of the argpipe command line.
package demo

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-argpipe/pkg/command"
	"github.com/askiada/go-argpipe/pkg/mapping"
)

// ErrInvalidStep is returned by seq for a step lower than 1.
var ErrInvalidStep = errors.New("step must be positive")

// Person is emitted by the people action.
type Person struct {
	Name string
	Age  int
	City string
}

// FileEntry is emitted by the ls action.
type FileEntry struct {
	Name    string
	Path    string
	Size    int64
	IsDir   bool
	ModTime time.Time
}

type seqArgs struct {
	From int `flag:"from" default:"1" help:"first number"`
	To   int `flag:"to" default:"10" help:"last number"`
	Step int `flag:"step" default:"1" help:"increment"`
}

type squareArgs struct {
	Value int `flag:"value" short:"v" pipe:"target" help:"number to square"`
}

type greetArgs struct {
	Name     string `flag:"name" aliases:"who,person" help:"who to greet"`
	Greeting string `flag:"greeting" default:"hello"`
}

type lsArgs struct {
	Path string `flag:"path" default:"." aliases:"dir,directory" help:"directory to list"`
	All  bool   `flag:"all" short:"a" help:"include hidden files"`
}

type sleepArgs struct {
	Duration time.Duration `flag:"duration" short:"d" default:"100ms"`
	Value    any           `flag:"value" pipe:"target"`
}

// Definition returns the actions of the demo program.
func Definition() (*command.Definition, error) {
	seq, err := command.NewAction("seq", seq, command.WithDescription("emit a sequence of numbers"))
	if err != nil {
		return nil, err
	}
	square, err := command.NewAction("square", square, command.WithDescription("square numbers"))
	if err != nil {
		return nil, err
	}
	people, err := command.NewAction("people", people, command.WithDescription("emit a few people"))
	if err != nil {
		return nil, err
	}
	greet, err := command.NewAction("greet", greet,
		command.WithDescription("greet someone"),
		command.WithAliases("hi"),
	)
	if err != nil {
		return nil, err
	}
	ls, err := command.NewAction("ls", ls,
		command.WithDescription("list a directory"),
		command.WithAliases("dir"),
	)
	if err != nil {
		return nil, err
	}
	sleep, err := command.NewAction("sleep", sleep, command.WithDescription("wait, then pass objects on"))
	if err != nil {
		return nil, err
	}

	return command.NewDefinition("argpipe", seq, square, people, greet, ls, sleep)
}

func seq(_ context.Context, args seqArgs, out command.Emitter) error {
	if args.Step < 1 {
		return errors.Wrapf(ErrInvalidStep, "got %d", args.Step)
	}
	for i := args.From; i <= args.To; i += args.Step {
		if err := out.Emit(i); err != nil {
			return err
		}
	}

	return nil
}

func square(_ context.Context, args squareArgs, out command.Emitter) error {
	return out.Emit(args.Value * args.Value)
}

func people(_ context.Context, _ struct{}, out command.Emitter) error {
	for _, p := range []Person{
		{Name: "Ada", Age: 36, City: "London"},
		{Name: "Grace", Age: 85, City: "Arlington"},
		{Name: "Linus", Age: 21, City: "Helsinki"},
	} {
		if err := out.Emit(p); err != nil {
			return err
		}
	}

	return nil
}

func greet(_ context.Context, args greetArgs, out command.Emitter) error {
	name := args.Name
	if name == "" {
		name = "world"
	}

	return out.Emit(args.Greeting + " " + name)
}

func ls(_ context.Context, args lsArgs, out command.Emitter) error {
	entries, err := os.ReadDir(args.Path)
	if err != nil {
		return errors.Wrapf(err, "unable to list %s", args.Path)
	}

	for _, entry := range entries {
		if !args.All && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return errors.Wrapf(err, "unable to stat %s", entry.Name())
		}
		err = out.Emit(FileEntry{
			Name:    entry.Name(),
			Path:    filepath.Join(args.Path, entry.Name()),
			Size:    info.Size(),
			IsDir:   entry.IsDir(),
			ModTime: info.ModTime(),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func sleep(ctx context.Context, args sleepArgs, out command.Emitter) error {
	timer := time.NewTimer(args.Duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "sleep interrupted")
	case <-timer.C:
	}
	if args.Value == nil {
		return nil
	}

	return out.Emit(args.Value)
}

// Mapper maps the demo objects the generic rules do not handle.
// A FileEntry given to a numeric target is its size, and to a string target its path.
type Mapper struct{}

// MapDirectTarget converts a FileEntry for a numeric or string target.
func (Mapper) MapDirectTarget(desired reflect.Type, o any) (any, bool, error) {
	entry, ok := o.(FileEntry)
	if !ok {
		return nil, false, nil
	}

	switch desired.Kind() {
	case reflect.Int, reflect.Int64:
		return reflect.ValueOf(entry.Size).Convert(desired).Interface(), true, nil
	case reflect.String:
		return reflect.ValueOf(entry.Path).Convert(desired).Interface(), true, nil
	default:
		return nil, false, nil
	}
}

// ExtractArgument greets a person in the language of their city.
func (Mapper) ExtractArgument(o any, arg command.Argument) (string, bool, error) {
	p, ok := o.(Person)
	if !ok || !arg.Matches("greeting") {
		return "", false, nil
	}
	greeting, ok := greetings[p.City]

	return greeting, ok, nil
}

var greetings = map[string]string{
	"London":    "hello",
	"Arlington": "howdy",
	"Helsinki":  "hei",
}

var _ mapping.ObjectMapper = Mapper{}
