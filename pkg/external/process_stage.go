package external

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-argpipe/pkg/pipeline"
	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

// ProcessStage feeds the accepted objects to a process and pushes what it prints.
// The process starts with the first object, or on drain when no object came.
type ProcessStage struct {
	base   *pipeline.BaseStage
	path   string
	argv   []string
	stdout io.Writer
	stderr io.Writer

	mu             sync.Mutex
	started        bool
	startErr       error
	drainRequested bool
	cmd            *exec.Cmd
	stdin          io.WriteCloser
	copiers        *errgroup.Group
}

func newProcessStage(tokens []string, path string, argv []string, stdout, stderr io.Writer) *ProcessStage {
	s := &ProcessStage{
		path:   path,
		argv:   argv,
		stdout: stdout,
		stderr: stderr,
	}
	s.base = pipeline.NewBaseStage(s, model.ExternalStageKind, ProgramPrefix+argv[0], tokens)

	return s
}

func (s *ProcessStage) Base() *pipeline.BaseStage { return s.base }

// Accept writes o as one JSON line to the standard input of the process.
func (s *ProcessStage) Accept(o any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drainRequested {
		return errors.Wrapf(pipeline.ErrDrainRequested, "stage %s", s.base.Name())
	}

	err := s.start()
	if err != nil {
		return err
	}

	line, err := sonic.Marshal(o)
	if err != nil {
		return errors.Wrapf(err, "stage %s: unable to encode object", s.base.Name())
	}
	_, err = s.stdin.Write(append(line, '\n'))
	if err != nil {
		return errors.Wrapf(err, "stage %s: unable to write object", s.base.Name())
	}

	return nil
}

// Drain closes the standard input of the process. The stage is drained once the process exited
// and its output was consumed.
func (s *ProcessStage) Drain() error {
	s.mu.Lock()
	if s.drainRequested {
		s.mu.Unlock()
		return errors.Wrapf(pipeline.ErrAlreadyDraining, "stage %s", s.base.Name())
	}
	s.drainRequested = true

	err := s.start()
	if err != nil {
		s.mu.Unlock()
		s.base.ReportError(err)
		s.base.MarkDrained()

		return nil
	}
	closeErr := s.stdin.Close()
	s.mu.Unlock()

	go func() {
		err := multierr.Combine(closeErr, s.wait())
		if err != nil {
			s.base.ReportError(errors.Wrapf(err, "stage %s", s.base.Name()))
		}
		s.base.MarkDrained()
	}()

	return nil
}

// start must be called with the lock held. A failed start is not retried: every later call
// returns the same error.
func (s *ProcessStage) start() error {
	if !s.started {
		s.started = true
		s.startErr = s.launch()
	}

	return s.startErr
}

func (s *ProcessStage) launch() error {
	cmd := exec.CommandContext(s.base.Context(), s.path, s.argv[1:]...) //nolint:gosec // the user names the program
	cmd.Env = append(os.Environ(), InputEnv+"="+JSONLines)
	cmd.Stderr = s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrapf(err, "stage %s: unable to open stdin", s.base.Name())
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrapf(err, "stage %s: unable to open stdout", s.base.Name())
	}

	err = cmd.Start()
	if err != nil {
		return errors.Wrapf(err, "stage %s: unable to start %s", s.base.Name(), s.path)
	}
	s.base.Logger().Debug("process started", zap.String("path", s.path), zap.Int("pid", cmd.Process.Pid))

	s.cmd = cmd
	s.stdin = stdin
	s.copiers = &errgroup.Group{}
	s.copiers.Go(func() error {
		return s.copyOutput(stdout)
	})

	return nil
}

// wait returns once the output is consumed and the process exited.
func (s *ProcessStage) wait() error {
	copyErr := s.copiers.Wait()
	waitErr := s.cmd.Wait()
	if waitErr != nil {
		waitErr = errors.Wrapf(waitErr, "%s failed", s.path)
	}

	return multierr.Append(copyErr, waitErr)
}

// copyOutput pushes every output line downstream, or copies it when the stage is the last one.
func (s *ProcessStage) copyOutput(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	for scanner.Scan() {
		if s.base.NextStage() == nil {
			_, err := fmt.Fprintf(s.stdout, "%s\n", scanner.Bytes())
			if err != nil {
				s.base.ReportError(errors.Wrapf(err, "stage %s: unable to copy output", s.base.Name()))
			}
			continue
		}

		err := s.base.Push(decodeLine(scanner.Bytes()))
		if err != nil {
			s.base.ReportError(err)
		}
	}

	return errors.Wrap(scanner.Err(), "unable to read process output")
}

// decodeLine returns the JSON value of line, or line itself as a string.
func decodeLine(line []byte) any {
	trimmed := bytes.TrimSpace(line)
	var o any
	if len(trimmed) > 0 && sonic.Unmarshal(trimmed, &o) == nil {
		return o
	}

	return string(line)
}

var _ pipeline.Stage = (*ProcessStage)(nil)
