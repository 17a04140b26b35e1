package pipeline_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-argpipe/pkg/pipeline"
)

type counter struct {
	n int
}

func (c *counter) Process(_ context.Context, _ any, _ func(any) error) error {
	c.n++
	return nil
}

func (c *counter) BeforeDrained(_ context.Context, emit func(any) error) error {
	return emit(c.n)
}

func identity() pipeline.Processor {
	return pipeline.ProcessorFunc(func(_ context.Context, o any, emit func(any) error) error {
		return emit(o)
	})
}

func TestInProcessStageFIFO(t *testing.T) {
	t.Parallel()

	out := &recorder{}
	stage := pipeline.NewInProcessStage([]string{"identity"}, identity())
	stage.Base().OnObjectExited(func(_ pipeline.Stage, o any) { out.add(o) })
	done := waitDrained(t, stage)

	want := []any{}
	for i := range 100 {
		require.NoError(t, stage.Accept(i))
		want = append(want, i)
	}
	require.NoError(t, stage.Drain())
	requireClosed(t, done)

	assert.True(t, stage.Base().IsDrained())
	assert.Equal(t, want, out.all())
	assert.Equal(t, 0, stage.Pending())
}

func TestInProcessStageDrain(t *testing.T) {
	t.Parallel()

	stage := pipeline.NewInProcessStage([]string{"identity", "--x"}, identity())
	drained := 0
	stage.Base().OnDrained(func(pipeline.Stage) { drained++ })

	require.NoError(t, stage.Drain())
	assert.True(t, stage.Base().IsDrained(), "a stage without worker drains synchronously")
	assert.Equal(t, 1, drained)

	err := stage.Drain()
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrAlreadyDraining))

	err = stage.Accept(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrDrainRequested))
	assert.Equal(t, 1, drained)
	assert.Equal(t, []string{"identity", "--x"}, stage.Base().CmdLineArgs())
}

func TestInProcessStageBeforeDrained(t *testing.T) {
	t.Parallel()

	out := &recorder{}
	stage := pipeline.NewInProcessStage([]string{"$count"}, &counter{})
	stage.Base().OnObjectExited(func(_ pipeline.Stage, o any) {
		assert.False(t, stage.Base().IsDrained())
		out.add(o)
	})
	done := waitDrained(t, stage)

	for i := range 7 {
		require.NoError(t, stage.Accept(i))
	}
	require.NoError(t, stage.Drain())
	requireClosed(t, done)
	assert.Equal(t, []any{7}, out.all())
}

func TestInProcessStageChained(t *testing.T) {
	t.Parallel()

	out := &recorder{}
	first := pipeline.NewInProcessStage([]string{"first"}, identity())
	second := pipeline.NewInProcessStage([]string{"second"}, &counter{})
	require.NoError(t, first.Base().SetNextStage(second))
	require.Error(t, first.Base().SetNextStage(second))
	second.Base().OnObjectExited(func(_ pipeline.Stage, o any) { out.add(o) })
	first.Base().OnDrained(func(pipeline.Stage) { assert.NoError(t, second.Drain()) })
	done := waitDrained(t, second)

	for i := range 5 {
		require.NoError(t, first.Accept(i))
	}
	require.NoError(t, first.Drain())
	requireClosed(t, done)
	assert.Equal(t, []any{5}, out.all())
}

func TestInProcessStageUnhandledError(t *testing.T) {
	t.Parallel()

	failing := pipeline.ProcessorFunc(func(_ context.Context, o any, _ func(any) error) error {
		if o == 2 {
			panic("two")
		}
		return errors.Wrapf(errBoom, "object %v", o)
	})
	errs := &recorder{}
	stage := pipeline.NewInProcessStage([]string{"fail"}, failing)
	stage.Base().OnUnhandledError(func(_ pipeline.Stage, err error) { errs.add(err) })
	done := waitDrained(t, stage)

	require.NoError(t, stage.Accept(1))
	require.NoError(t, stage.Accept(2))
	require.NoError(t, stage.Drain())
	requireClosed(t, done)

	got := errs.all()
	require.Len(t, got, 2)
	assert.True(t, errors.Is(got[0].(error), errBoom))
	assert.Contains(t, got[1].(error).Error(), "panic: two")
}

type failingDrain struct{}

func (failingDrain) Process(context.Context, any, func(any) error) error { return nil }

func (failingDrain) BeforeDrained(context.Context, func(any) error) error { return errBoom }

func TestInProcessStageNoErrorHandler(t *testing.T) {
	t.Parallel()

	stage := pipeline.NewInProcessStage([]string{"drain"}, failingDrain{})
	assert.Panics(t, func() { _ = stage.Drain() })
}

func TestRootStage(t *testing.T) {
	t.Parallel()

	root := pipeline.NewRootStage([]string{"seq", "--to", "3"})
	assert.True(t, root.Base().IsDrained())
	assert.Equal(t, "seq", root.Base().Name())

	err := root.Accept(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrRootAccept))

	fired := 0
	root.Base().OnDrained(func(pipeline.Stage) { fired++ })
	require.NoError(t, root.Drain())
	err = root.Drain()
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrAlreadyDraining))
	assert.Equal(t, 1, fired)
}

func TestBaseStageRunsEveryHandler(t *testing.T) {
	t.Parallel()

	out := &recorder{}
	stage := pipeline.NewInProcessStage([]string{"identity"}, identity())
	stage.Base().OnObjectExited(func(_ pipeline.Stage, o any) { out.add("first") })
	stage.Base().OnObjectExited(func(_ pipeline.Stage, o any) { out.add("second") })
	stage.Base().OnUnhandledError(func(pipeline.Stage, error) { out.add("error 1") })
	stage.Base().OnUnhandledError(func(pipeline.Stage, error) { out.add("error 2") })
	stage.Base().OnDrained(func(pipeline.Stage) { out.add("drained 1") })
	done := waitDrained(t, stage)

	require.NoError(t, stage.Accept(1))
	require.NoError(t, stage.Drain())
	requireClosed(t, done)

	stage.Base().ReportError(errBoom)
	stage.Base().MarkDrained()

	assert.Equal(t, []any{"first", "second", "drained 1", "error 1", "error 2"}, out.all())
}
