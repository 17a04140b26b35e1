package pipeline_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-argpipe/pkg/pipeline"
	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

func countFactory(args []string) (pipeline.Stage, error) {
	if len(args) > 0 {
		return nil, errors.Errorf("unexpected arguments %v", args)
	}

	return pipeline.NewInProcessStage(args, &counter{}), nil
}

func TestNormalizeActionStageKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$filter", pipeline.NormalizeActionStageKey("Filter"))
	assert.Equal(t, "$filter", pipeline.NormalizeActionStageKey("$FILTER"))
	assert.Equal(t, "$count", pipeline.NormalizeActionStageKey(" count "))
}

func TestActionStageRegistryRegister(t *testing.T) {
	t.Parallel()

	reg := pipeline.NewActionStageRegistry()
	require.NoError(t, reg.Register("Count", countFactory))

	err := reg.Register("$count", countFactory)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrDuplicateActionStage))

	err = reg.RegisterAll(map[string]pipeline.ActionStageFactory{
		"first": countFactory,
		"COUNT": countFactory,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrDuplicateActionStage))
	assert.ElementsMatch(t, []string{"$count"}, reg.Keys(), "a failed batch registers nothing")

	err = reg.RegisterAll(map[string]pipeline.ActionStageFactory{
		"first":  countFactory,
		"$First": countFactory,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrDuplicateActionStage))

	require.NoError(t, reg.RegisterAll(map[string]pipeline.ActionStageFactory{"first": countFactory, "last": countFactory}))
	assert.ElementsMatch(t, []string{"$count", "$first", "$last"}, reg.Keys())
}

func TestActionStageRegistryTryCreate(t *testing.T) {
	t.Parallel()

	reg := pipeline.NewActionStageRegistry()
	require.NoError(t, reg.Register("count", countFactory))

	tcs := map[string]struct {
		tokens  []string
		wantOK  bool
		wantErr bool
	}{
		"registered":        {tokens: []string{"$count"}, wantOK: true},
		"case insensitive":  {tokens: []string{"$COUNT"}, wantOK: true},
		"without prefix":    {tokens: []string{"count"}},
		"unknown":           {tokens: []string{"$sum"}},
		"empty":             {tokens: nil},
		"factory rejection": {tokens: []string{"$count", "extra"}, wantOK: true, wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			stage, ok, err := reg.TryCreate(tc.tokens)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if !tc.wantOK {
				assert.Nil(t, stage)
				return
			}
			info := stage.Base().Info()
			assert.Equal(t, "$count", info.Name)
			assert.Equal(t, model.StageKind(model.ActionStageKind), info.Kind)
		})
	}
}

func TestManagerActionStage(t *testing.T) {
	t.Parallel()

	reg := pipeline.NewActionStageRegistry()
	require.NoError(t, reg.Register("count", countFactory))

	out := &recorder{}
	mgr := newManager(t, testDefinition(t, &recorder{}), out, pipeline.WithActionStages(reg))
	err := runPipeline(t, mgr, []string{"seq", "--to", "6"}, []string{"$Count"}, []string{"square"})
	require.NoError(t, err)
	assert.Equal(t, []any{36}, out.all())
}

func TestDefaultActionStages(t *testing.T) {
	t.Parallel()

	mgr, err := pipeline.NewManager(context.Background(), testDefinition(t, &recorder{}))
	require.NoError(t, err)
	_, err = mgr.CreateNextStage([]string{"seq"})
	require.NoError(t, err)

	_, err = mgr.CreateNextStage([]string{"$never-registered"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrUnexpectedAction))
}
