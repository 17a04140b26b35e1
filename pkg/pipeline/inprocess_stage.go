package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/ef-ds/deque"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

// Processor handles the objects accepted by an InProcessStage, one at a time.
type Processor interface {
	Process(ctx context.Context, o any, emit func(any) error) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, o any, emit func(any) error) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, o any, emit func(any) error) error {
	return f(ctx, o, emit)
}

// BeforeDrainer is implemented by processors that emit objects once all the input was seen.
type BeforeDrainer interface {
	BeforeDrained(ctx context.Context, emit func(any) error) error
}

type queued struct {
	o  any
	at time.Time
}

// InProcessStage runs its processor on a dedicated goroutine, started with the first object.
type InProcessStage struct {
	base      *BaseStage
	processor Processor

	mu             sync.Mutex
	cond           *sync.Cond
	queue          deque.Deque
	started        bool
	drainRequested bool
}

// StageOption configures an InProcessStage.
type StageOption func(s *InProcessStage)

// StageName overrides the display name of the stage.
func StageName(name string) StageOption {
	return func(s *InProcessStage) {
		s.base.setName(name)
	}
}

// StageKind overrides the kind reported to pipeline options.
func StageKind(kind string) StageOption {
	return func(s *InProcessStage) {
		s.base.info.Kind = model.StageKind(kind)
	}
}

// NewInProcessStage creates a stage running processor for every accepted object.
func NewInProcessStage(tokens []string, processor Processor, opts ...StageOption) *InProcessStage {
	s := &InProcessStage{processor: processor}
	s.cond = sync.NewCond(&s.mu)
	s.base = NewBaseStage(s, model.InProcessStageKind, "", tokens)
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *InProcessStage) Base() *BaseStage { return s.base }

// Accept queues o. The accept and the drain request are ordered by the stage lock: an object is
// either queued before the drain request and processed, or rejected with ErrDrainRequested.
func (s *InProcessStage) Accept(o any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drainRequested {
		return errors.Wrapf(ErrDrainRequested, "stage %s", s.base.Name())
	}

	s.queue.PushBack(queued{o: o, at: time.Now()})
	if !s.started {
		s.started = true
		go s.run()
	}
	s.cond.Signal()

	return nil
}

// Drain requests the worker to stop once the queue is empty.
// A stage which never accepted anything is drained before Drain returns.
func (s *InProcessStage) Drain() error {
	s.mu.Lock()
	if s.drainRequested {
		s.mu.Unlock()
		return errors.Wrapf(ErrAlreadyDraining, "stage %s", s.base.Name())
	}
	s.drainRequested = true
	started := s.started
	s.cond.Signal()
	s.mu.Unlock()

	if !started {
		s.finish()
	}

	return nil
}

// Pending returns the number of queued objects.
func (s *InProcessStage) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queue.Len()
}

func (s *InProcessStage) run() {
	for {
		s.mu.Lock()
		for s.queue.Len() == 0 && !s.drainRequested {
			s.cond.Wait()
		}
		if s.queue.Len() == 0 {
			s.mu.Unlock()
			break
		}
		item, _ := s.queue.PopFront()
		s.mu.Unlock()

		s.process(item.(queued))
	}

	s.finish()
}

func (s *InProcessStage) process(item queued) {
	start := time.Now()
	err := safeCall(func() error {
		return s.processor.Process(s.base.Context(), item.o, s.base.Push)
	})
	if err != nil {
		s.base.Logger().Debug("object failed", zap.Error(err))
		s.base.ReportError(errors.Wrapf(err, "stage %s", s.base.Name()))
		return
	}

	if m := s.base.Manager(); m != nil {
		m.observeOutput(s, start.Sub(item.at), time.Since(start))
	}
}

func (s *InProcessStage) finish() {
	if bd, ok := s.processor.(BeforeDrainer); ok {
		err := safeCall(func() error {
			return bd.BeforeDrained(s.base.Context(), s.base.Push)
		})
		if err != nil {
			s.base.ReportError(errors.Wrapf(err, "stage %s before drained", s.base.Name()))
		}
	}
	s.base.MarkDrained()
}

// safeCall turns a panic of fn into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rErr, ok := r.(error); ok {
				err = errors.Wrap(rErr, "panic")
				return
			}
			err = errors.Errorf("panic: %v", r)
		}
	}()

	return fn()
}

var _ Stage = (*InProcessStage)(nil)
