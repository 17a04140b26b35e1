package external

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/askiada/go-argpipe/pkg/pipeline"
	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

const maxLineSize = 1 << 20

// InputStage pushes the JSON lines read from a reader into the pipeline.
type InputStage struct {
	base           *pipeline.BaseStage
	r              io.Reader
	drainRequested atomic.Bool
}

// NewInputStage creates an input stage reading r.
func NewInputStage(r io.Reader) *InputStage {
	s := &InputStage{r: r}
	s.base = pipeline.NewBaseStage(s, model.InputStageKind, "stdin", nil)

	return s
}

func (s *InputStage) Base() *pipeline.BaseStage { return s.base }

// Accept always fails.
func (s *InputStage) Accept(any) error {
	return errors.Wrapf(ErrInputAccept, "stage %s", s.base.Name())
}

// Drain marks the stage drained. It must be called once Produce returned.
func (s *InputStage) Drain() error {
	if !s.drainRequested.CompareAndSwap(false, true) {
		return errors.Wrapf(pipeline.ErrAlreadyDraining, "stage %s", s.base.Name())
	}
	s.base.MarkDrained()

	return nil
}

// Produce decodes every non blank line and pushes it. It stops on the first invalid line.
func (s *InputStage) Produce(ctx context.Context) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "input interrupted")
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var o any
		err := sonic.Unmarshal(raw, &o)
		if err != nil {
			return errors.Wrapf(err, "unable to decode input line %d", line)
		}
		err = s.base.Push(o)
		if err != nil {
			return errors.Wrapf(err, "unable to push input line %d", line)
		}
	}

	return errors.Wrap(scanner.Err(), "unable to read input")
}

var (
	_ pipeline.Stage    = (*InputStage)(nil)
	_ pipeline.Producer = (*InputStage)(nil)
)
