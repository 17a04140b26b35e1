package external

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-argpipe/pkg/command"
	"github.com/askiada/go-argpipe/pkg/pipeline"
)

const (
	// ProgramPrefix marks the tokens of an external stage.
	ProgramPrefix = "!"
	// InputEnv tells an argpipe process how to read its standard input.
	InputEnv = "ARGPIPE_INPUT"
	// JSONLines is the only supported value of InputEnv.
	JSONLines = "jsonl"
)

// ProcessProvider creates external stages backed by operating system processes.
type ProcessProvider struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	getenv   func(string) string
	lookPath func(string) (string, error)
}

// Option configures a ProcessProvider.
type Option func(p *ProcessProvider)

// WithStdin sets where the input stage reads from.
func WithStdin(r io.Reader) Option {
	return func(p *ProcessProvider) {
		p.stdin = r
	}
}

// WithStdout sets where the output of a last external stage is copied.
func WithStdout(w io.Writer) Option {
	return func(p *ProcessProvider) {
		p.stdout = w
	}
}

// WithStderr sets where the standard error of processes is copied.
func WithStderr(w io.Writer) Option {
	return func(p *ProcessProvider) {
		p.stderr = w
	}
}

// WithGetenv replaces os.Getenv.
func WithGetenv(getenv func(string) string) Option {
	return func(p *ProcessProvider) {
		p.getenv = getenv
	}
}

// NewProcessProvider creates a provider using the standard streams of the current process.
func NewProcessProvider(opts ...Option) *ProcessProvider {
	p := &ProcessProvider{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// TryLoadOutputStage returns a process stage when the first token starts with "!".
// Both "!prog args" and "! prog args" are accepted.
func (p *ProcessProvider) TryLoadOutputStage(tokens []string) (pipeline.Stage, bool, error) {
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], ProgramPrefix) {
		return nil, false, nil
	}

	argv := append([]string{strings.TrimPrefix(tokens[0], ProgramPrefix)}, tokens[1:]...)
	if argv[0] == "" {
		argv = argv[1:]
	}
	if len(argv) == 0 {
		return nil, false, ErrNoProgram
	}

	path, err := p.lookPath(argv[0])
	if err != nil {
		return nil, false, errors.Wrapf(err, "unable to find program %s", argv[0])
	}

	return newProcessStage(tokens, path, argv, p.stdout, p.stderr), true, nil
}

// TryLoadInputStage returns a stage reading JSON lines from the standard input when
// ARGPIPE_INPUT=jsonl is set.
func (p *ProcessProvider) TryLoadInputStage(_ *command.Definition, _ []string) (pipeline.Stage, bool, error) {
	switch value := p.getenv(InputEnv); value {
	case "":
		return nil, false, nil
	case JSONLines:
		return NewInputStage(p.stdin), true, nil
	default:
		return nil, false, errors.Errorf("unsupported %s value %q", InputEnv, value)
	}
}

var _ pipeline.ExternalProvider = (*ProcessProvider)(nil)
