package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-argpipe/internal/config"
	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

const sample = `
mode: parallel
log:
  level: debug
  development: true
aliases:
  evens: seq --to 10 => $filter . gt 5
  hello:
    - greet
    - --greeting
    - good morning
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "argpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "parallel", cfg.Mode)
	assert.Equal(t, config.LogConfig{Level: "debug", Development: true}, cfg.Log)
	assert.Equal(t, config.Alias{"seq", "--to", "10", "=>", "$filter", ".", "gt", "5"}, cfg.Aliases["evens"])
	assert.Equal(t, config.Alias{"greet", "--greeting", "good morning"}, cfg.Aliases["hello"])

	mode, err := cfg.PipelineMode()
	require.NoError(t, err)
	assert.Equal(t, model.ParallelStages, mode)
}

func TestParseInvalidAlias(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte("aliases:\n  bad:\n    key: value\n"))
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("ARGPIPE_MODE", "serialized")
	t.Setenv("ARGPIPE_LOG_LEVEL", "warn")

	cfg, err := config.Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "serialized", cfg.Mode)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Len(t, cfg.Aliases, 2)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("ARGPIPE_LOG_DEV", "true")

	cfg, err := config.Load("")
	require.NoError(t, err)

	mode, err := cfg.PipelineMode()
	require.NoError(t, err)
	assert.Equal(t, model.SerializedStages, mode)
	assert.True(t, cfg.Log.Development)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "mode: sideways\n"))
	assert.ErrorIs(t, err, model.ErrUnknownMode)

	t.Setenv("ARGPIPE_LOG_DEV", "maybe")
	_, err = config.Load("")
	assert.Error(t, err)
}

func TestExpandAliases(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(sample))
	require.NoError(t, err)

	tcs := map[string]struct {
		args []string
		want []string
	}{
		"no alias": {
			args: []string{"seq", "=>", "square"},
			want: []string{"seq", "=>", "square"},
		},
		"head alias": {
			args: []string{"evens", "=>", "square"},
			want: []string{"seq", "--to", "10", "=>", "$filter", ".", "gt", "5", "=>", "square"},
		},
		"stage alias keeps arguments": {
			args: []string{"people", "=>", "hello", "--name", "Ann"},
			want: []string{"people", "=>", "greet", "--greeting", "good morning", "--name", "Ann"},
		},
		"argument named like an alias": {
			args: []string{"greet", "--name", "hello"},
			want: []string{"greet", "--name", "hello"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, cfg.ExpandAliases(tc.args, "=>"))
		})
	}
}
