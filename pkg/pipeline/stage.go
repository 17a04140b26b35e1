package pipeline

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

// Stage is one "=>" separated element of an argument pipeline.
type Stage interface {
	// Base gives access to the state shared by every stage.
	Base() *BaseStage
	// Accept queues an object for the stage.
	Accept(o any) error
	// Drain signals that no more objects will be accepted.
	Drain() error
}

// BaseStage holds the identity, links and event handlers of a stage.
type BaseStage struct {
	self   Stage
	mu     sync.RWMutex
	info   *model.StageInfo
	tokens []string

	next    Stage
	manager *Manager

	drained   atomic.Bool
	drainOnce sync.Once

	drainedHandlers []func(Stage)
	errorHandlers   []func(Stage, error)
	exitHandlers    []func(Stage, any)
}

// NewBaseStage creates the base of self. Name defaults to the first token.
func NewBaseStage(self Stage, kind string, name string, tokens []string) *BaseStage {
	tokens = append([]string(nil), tokens...)
	if name == "" && len(tokens) > 0 {
		name = tokens[0]
	}

	return &BaseStage{
		self:   self,
		tokens: tokens,
		info: &model.StageInfo{
			Kind:   model.StageKind(kind),
			Name:   name,
			Tokens: tokens,
		},
	}
}

// Index is the position of the stage in its pipeline.
func (b *BaseStage) Index() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.info.Index
}

// Name is the display name of the stage.
func (b *BaseStage) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.info.Name
}

// CmdLineArgs returns a copy of the tokens the stage was built from.
func (b *BaseStage) CmdLineArgs() []string {
	return append([]string(nil), b.tokens...)
}

// Info describes the stage for pipeline options.
func (b *BaseStage) Info() *model.StageInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	info := *b.info
	info.Tokens = b.CmdLineArgs()

	return &info
}

// NextStage returns the downstream stage, nil for the last one.
func (b *BaseStage) NextStage() Stage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.next
}

// Manager returns the manager owning the stage, nil for a standalone stage.
func (b *BaseStage) Manager() *Manager {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.manager
}

// IsDrained reports whether the stage finished all its work.
func (b *BaseStage) IsDrained() bool {
	return b.drained.Load()
}

// SetNextStage links the stage to its downstream stage. It can only be done once.
func (b *BaseStage) SetNextStage(next Stage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.next != nil {
		return errors.Wrapf(ErrNextStageSet, "stage %s", b.info.Name)
	}
	b.next = next

	return nil
}

func (b *BaseStage) bind(m *Manager, index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.manager != nil {
		return errors.Wrapf(ErrManagerSet, "stage %s", b.info.Name)
	}
	b.manager = m
	b.info.Index = index

	return nil
}

func (b *BaseStage) setName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info.Name = name
}

// OnDrained registers a handler called once the stage is drained.
func (b *BaseStage) OnDrained(fn func(Stage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drainedHandlers = append(b.drainedHandlers, fn)
}

// OnUnhandledError registers a handler for errors raised while the stage has no manager.
func (b *BaseStage) OnUnhandledError(fn func(Stage, error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorHandlers = append(b.errorHandlers, fn)
}

// OnObjectExited registers a handler for objects emitted by a stage without next stage or manager.
func (b *BaseStage) OnObjectExited(fn func(Stage, any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exitHandlers = append(b.exitHandlers, fn)
}

// Context returns the context stage work runs with.
func (b *BaseStage) Context() context.Context {
	if m := b.Manager(); m != nil {
		return m.ctx
	}

	return context.Background()
}

// Logger returns the logger of the owning manager, a no-op logger otherwise.
func (b *BaseStage) Logger() *zap.Logger {
	m := b.Manager()
	if m == nil {
		return zap.NewNop()
	}

	return m.logger.With(zap.String("stage", b.Name()), zap.Int("index", b.Index()))
}

// Push hands an object emitted by the stage to the rest of the pipeline.
func (b *BaseStage) Push(o any) error {
	if m := b.Manager(); m != nil {
		return m.Push(o, b.self)
	}
	if next := b.NextStage(); next != nil {
		return next.Accept(o)
	}
	b.exit(o)

	return nil
}

func (b *BaseStage) exit(o any) {
	b.mu.RLock()
	handlers := slices.Clone(b.exitHandlers)
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(b.self, o)
	}
}

// ReportError forwards an asynchronous error to the manager or to the unhandled error handlers.
// It panics when nobody can receive the error.
func (b *BaseStage) ReportError(err error) {
	if err == nil {
		return
	}
	if m := b.Manager(); m != nil {
		m.BubbleAsyncError(err)
		return
	}

	b.mu.RLock()
	handlers := slices.Clone(b.errorHandlers)
	b.mu.RUnlock()
	if len(handlers) == 0 {
		panic(errors.Wrapf(err, "unhandled error in stage %s", b.Name()))
	}
	for _, fn := range handlers {
		fn(b.self, err)
	}
}

// MarkDrained flags the stage as drained and runs the drained handlers.
// Only the first call runs the handlers.
func (b *BaseStage) MarkDrained() {
	b.drained.Store(true)
	b.drainOnce.Do(func() {
		b.mu.RLock()
		handlers := slices.Clone(b.drainedHandlers)
		b.mu.RUnlock()
		for _, fn := range handlers {
			fn(b.self)
		}
	})
}
