package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--no-color", "--log-level", "error"}, args...))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(&bytes.Buffer{})
	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func TestRootPipelines(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args []string
		want string
	}{
		"root only":     {args: []string{"seq", "--to", "3"}, want: "1\n2\n3\n"},
		"serialized":    {args: []string{"seq", "--to", "3", "=>", "square"}, want: "1\n4\n9\n"},
		"parallel":      {args: []string{"--mode", "parallel", "seq", "--to", "3", "=>", "square"}, want: "1\n4\n9\n"},
		"filter":        {args: []string{"seq", "--to", "5", "=>", "$filter", ".", "gt", "3"}, want: "4\n5\n"},
		"count":         {args: []string{"seq", "--to", "5", "=>", "$count"}, want: "5\n"},
		"first":         {args: []string{"seq", "=>", "$first", "-n", "2"}, want: "1\n2\n"},
		"external":      {args: []string{"seq", "--to", "2", "=>", "!cat"}, want: "1\n2\n"},
		"struct output": {args: []string{"people", "=>", "$first"}, want: "Name: Ada  Age: 36  City: London\n"},
		"shredding":     {args: []string{"people", "=>", "greet"}, want: "hello Ada\nhowdy Grace\nhei Linus\n"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			stdout, _, err := execute(t, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, stdout)
		})
	}
}

func TestRootErrors(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "nope", "=>", "square")
	assert.Error(t, err)

	_, _, err = execute(t, "seq", "=>")
	assert.Error(t, err)

	_, _, err = execute(t, "--mode", "sideways", "seq")
	assert.Error(t, err)
}

func TestRootList(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "--list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "greet (hi)")
	assert.Contains(t, stdout, "$count")
	assert.Contains(t, stdout, "$filter")
}

func TestRootMeasureAndMetrics(t *testing.T) {
	t.Parallel()

	_, stderr, err := execute(t, "--measure", "--metrics", "seq", "--to", "3", "=>", "square")
	require.NoError(t, err)
	assert.Contains(t, stderr, "STAGE")
	assert.Contains(t, stderr, "#1 square")
	assert.Contains(t, stderr, `argpipe_stage_objects_total{stage="#1 square"} 3`)
}

func TestRootDraw(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "pipeline.dot")
	_, _, err := execute(t, "--draw", file, "seq", "--to", "3", "=>", "square")
	require.NoError(t, err)

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "digraph")
	assert.Contains(t, string(content), `"#0 seq" -> "#1 square"`)
}

func TestRootConfigAliases(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "argpipe.yaml")
	require.NoError(t, os.WriteFile(file, []byte("mode: parallel\naliases:\n  big: $filter . ge 3\n"), 0o600))

	stdout, _, err := execute(t, "--config", file, "seq", "--to", "4", "=>", "big")
	require.NoError(t, err)
	assert.Equal(t, "3\n4\n", stdout)
}

func TestPrinterRender(t *testing.T) {
	t.Parallel()

	p := newPrinter(&bytes.Buffer{}, true)
	assert.Equal(t, "42", p.render(42))
	assert.Equal(t, "text", p.render("text"))
	assert.Equal(t, "a: 1  b: x", p.render(map[string]any{"b": "x", "a": 1}))
	assert.Equal(t, "[1 2]", p.render([]int{1, 2}))
}
