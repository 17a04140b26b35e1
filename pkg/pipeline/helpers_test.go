package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-argpipe/pkg/command"
	"github.com/askiada/go-argpipe/pkg/pipeline"
)

var errBoom = errors.New("boom")

type recorder struct {
	mu    sync.Mutex
	items []any
}

func (r *recorder) add(o any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, o)
}

func (r *recorder) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]any(nil), r.items...)
}

type seqArgs struct {
	From int `flag:"from" default:"1"`
	To   int `flag:"to" default:"3"`
}

type valueArgs struct {
	Value int    `flag:"value" pipe:"target"`
	Tag   string `flag:"tag"`
	On    int    `flag:"on"`
}

type person struct {
	Name string
	Age  int
}

type greetArgs struct {
	Name     string `flag:"name"`
	Greeting string `flag:"greeting" default:"hello"`
}

// testDefinition returns the actions used by the pipeline tests.
// mark appends "tag:value" to events, fail fails on the value given with --on.
func testDefinition(t *testing.T, events *recorder) *command.Definition {
	t.Helper()

	seq := command.MustNewAction("seq", func(_ context.Context, args seqArgs, out command.Emitter) error {
		for i := args.From; i <= args.To; i++ {
			err := out.Emit(i)
			if err != nil {
				return err
			}
		}
		return nil
	})
	square := command.MustNewAction("square", func(_ context.Context, args valueArgs, out command.Emitter) error {
		return out.Emit(args.Value * args.Value)
	})
	mark := command.MustNewAction("mark", func(_ context.Context, args valueArgs, out command.Emitter) error {
		events.add(fmt.Sprintf("%s:%d", args.Tag, args.Value))
		return out.Emit(args.Value)
	})
	fail := command.MustNewAction("fail", func(_ context.Context, args valueArgs, out command.Emitter) error {
		if args.Value == args.On {
			return errors.Wrapf(errBoom, "value %d", args.Value)
		}
		return out.Emit(args.Value)
	})
	explode := command.MustNewAction("explode", func(_ context.Context, args valueArgs, _ command.Emitter) error {
		panic(fmt.Sprintf("cannot handle %d", args.Value))
	})
	people := command.MustNewAction("people", func(_ context.Context, _ struct{}, out command.Emitter) error {
		for _, p := range []person{{Name: "Ann", Age: 31}, {Name: "Bob", Age: 25}} {
			err := out.Emit(p)
			if err != nil {
				return err
			}
		}
		return nil
	})
	greet := command.MustNewAction("greet", func(_ context.Context, args greetArgs, out command.Emitter) error {
		return out.Emit(args.Greeting + " " + args.Name)
	}, command.WithAliases("hi"))

	def, err := command.NewDefinition("test", seq, square, mark, fail, explode, people, greet)
	require.NoError(t, err)

	return def
}

func newManager(t *testing.T, def *command.Definition, out *recorder, opts ...pipeline.ManagerOption) *pipeline.Manager {
	t.Helper()

	opts = append([]pipeline.ManagerOption{pipeline.WithExitHandler(out.add)}, opts...)
	mgr, err := pipeline.NewManager(context.Background(), def, opts...)
	require.NoError(t, err)

	return mgr
}

// runPipeline builds the stages, runs the root action like the hook does and drains.
func runPipeline(t *testing.T, mgr *pipeline.Manager, stages ...[]string) error {
	t.Helper()

	for _, tokens := range stages {
		_, err := mgr.CreateNextStage(tokens)
		require.NoError(t, err)
	}
	act, rest, err := mgr.Definition().Resolve(stages[0])
	require.NoError(t, err)
	root := mgr.Stages()[0]
	err = act.Invoke(context.Background(), command.Invocation{Tokens: rest}, command.EmitterFunc(root.Base().Push))
	require.NoError(t, err)

	return mgr.Drain(true)
}

func waitDrained(t *testing.T, stage pipeline.Stage) <-chan struct{} {
	t.Helper()
	done := make(chan struct{})
	stage.Base().OnDrained(func(pipeline.Stage) { close(done) })

	return done
}

func requireClosed(t *testing.T, c <-chan struct{}) {
	t.Helper()
	select {
	case <-c:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out")
	}
}
