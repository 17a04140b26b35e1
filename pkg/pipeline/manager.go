package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/ef-ds/deque"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/askiada/go-argpipe/pkg/command"
	"github.com/askiada/go-argpipe/pkg/mapping"
	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

// Manager owns the stages of one argument pipeline and routes objects between them.
type Manager struct {
	ctx          context.Context
	runID        string
	mode         model.Mode
	logger       *zap.Logger
	definition   *command.Definition
	actionStages *ActionStageRegistry
	external     ExternalProvider
	mapper       mapping.ObjectMapper
	opts         []model.PipelineOption
	exitHandlers []func(any)
	startTime    time.Time

	mu           sync.Mutex
	stages       []Stage
	draining     bool
	drainedCount int
	done         chan struct{}
	finishOnce   sync.Once
	result       error

	pendingMu sync.Mutex
	pending   map[int]*deque.Deque

	errs *asyncErrors
}

// NewManager creates a manager resolving stage actions against def.
func NewManager(ctx context.Context, def *command.Definition, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		ctx:          ctx,
		runID:        uuid.NewString(),
		mode:         model.SerializedStages,
		logger:       zap.NewNop(),
		definition:   def,
		actionStages: DefaultActionStages,
		startTime:    time.Now(),
		done:         make(chan struct{}),
		pending:      make(map[int]*deque.Deque),
		errs:         &asyncErrors{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("run_id", m.runID))

	for _, opt := range m.opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return m, nil
}

// RunID identifies the pipeline run in logs.
func (m *Manager) RunID() string { return m.runID }

// Mode returns the execution mode.
func (m *Manager) Mode() model.Mode { return m.mode }

// Definition returns the definition actions are resolved against.
func (m *Manager) Definition() *command.Definition { return m.definition }

// ExternalProvider returns the provider of external stages, if any.
func (m *Manager) ExternalProvider() ExternalProvider { return m.external }

// Stages returns the stages in pipeline order.
func (m *Manager) Stages() []Stage {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Stage(nil), m.stages...)
}

// Len returns the number of stages.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.stages)
}

// CreateNextStage builds the stage described by tokens and appends it to the pipeline.
//
// The first stage is the root stage. Other tokens are tried, in order, as a registered action
// stage, an action of the definition and an external stage.
func (m *Manager) CreateNextStage(tokens []string) (Stage, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyStage
	}

	stage, err := m.resolveStage(tokens)
	if err != nil {
		return nil, err
	}

	err = m.AppendStage(stage)
	if err != nil {
		return nil, err
	}

	return stage, nil
}

func (m *Manager) resolveStage(tokens []string) (Stage, error) {
	if m.Len() == 0 {
		return NewRootStage(tokens), nil
	}

	if m.actionStages != nil {
		stage, ok, err := m.actionStages.TryCreate(tokens)
		if err != nil {
			return nil, err
		}
		if ok {
			return stage, nil
		}
	}

	if m.definition != nil {
		if _, ok := m.definition.FindAction(tokens[0]); ok {
			return NewCommandStage(m.definition, tokens, m.mapper)
		}
	}

	if m.external != nil {
		stage, ok, err := m.external.TryLoadOutputStage(tokens)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to load external stage %q", tokens[0])
		}
		if ok {
			return stage, nil
		}
	}

	return nil, errors.Wrapf(ErrUnexpectedAction, "%q", tokens[0])
}

// AppendStage adds an already built stage at the end of the pipeline.
func (m *Manager) AppendStage(stage Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draining {
		return errors.Wrapf(ErrPipelineDraining, "unable to append stage %s", stage.Base().Name())
	}

	base := stage.Base()
	err := base.bind(m, len(m.stages))
	if err != nil {
		return err
	}

	parent := model.StartStage
	if len(m.stages) > 0 {
		tail := m.stages[len(m.stages)-1]
		err = tail.Base().SetNextStage(stage)
		if err != nil {
			return err
		}
		parent = tail.Base().Info()
	}
	base.OnDrained(m.onStageDrained)
	m.stages = append(m.stages, stage)

	info := base.Info()
	for _, opt := range m.opts {
		err := opt.PrepareStage(parent, info)
		if err != nil {
			return errors.Wrap(err, "unable to run prepare stage function")
		}
	}
	m.logger.Debug("stage added",
		zap.String("stage", info.Name),
		zap.Int("index", info.Index),
		zap.String("kind", string(info.Kind)),
		zap.Strings("tokens", info.Tokens),
	)

	return nil
}

// Push routes an object emitted by current.
// Parallel pipelines hand it to the next stage right away, serialized pipelines hold it
// until current is drained. Objects emitted by the last stage leave the pipeline.
func (m *Manager) Push(o any, current Stage) error {
	next := current.Base().NextStage()
	if next == nil {
		m.exit(o)
		return nil
	}

	if m.mode == model.ParallelStages {
		return next.Accept(o)
	}

	index := next.Base().Index()
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	queue, ok := m.pending[index]
	if !ok {
		queue = deque.New()
		m.pending[index] = queue
	}
	queue.PushBack(o)

	return nil
}

func (m *Manager) exit(o any) {
	if len(m.exitHandlers) == 0 {
		m.logger.Debug("object left the pipeline", zap.Any("object", o))
		return
	}
	for _, fn := range m.exitHandlers {
		fn(o)
	}
}

func (m *Manager) flushPending(next Stage) {
	index := next.Base().Index()
	m.pendingMu.Lock()
	queue := m.pending[index]
	delete(m.pending, index)
	m.pendingMu.Unlock()
	if queue == nil {
		return
	}

	for queue.Len() > 0 {
		o, _ := queue.PopFront()
		err := next.Accept(o)
		if err != nil {
			m.BubbleAsyncError(err)
		}
	}
}

func (m *Manager) onStageDrained(stage Stage) {
	base := stage.Base()
	info := base.Info()
	elapsed := time.Since(m.startTime)
	m.logger.Debug("stage drained", zap.String("stage", info.Name), zap.Int("index", info.Index), zap.Duration("elapsed", elapsed))
	for _, opt := range m.opts {
		err := opt.OnStageDrained(info, elapsed)
		if err != nil {
			m.BubbleAsyncError(errors.Wrap(err, "unable to run stage drained function"))
		}
	}

	if next := base.NextStage(); next != nil {
		if m.mode == model.SerializedStages {
			m.flushPending(next)
		}
		err := next.Drain()
		if err != nil {
			m.BubbleAsyncError(err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.drainedCount++
	if m.draining && m.drainedCount == len(m.stages) {
		close(m.done)
	}
}

func (m *Manager) observeOutput(stage Stage, wait, computation time.Duration) {
	if len(m.opts) == 0 {
		return
	}

	info := stage.Base().Info()
	parent := model.StartStage
	if info.Index > 0 {
		m.mu.Lock()
		parent = m.stages[info.Index-1].Base().Info()
		m.mu.Unlock()
	}
	for _, opt := range m.opts {
		err := opt.OnStageOutput(parent, info, wait, computation)
		if err != nil {
			m.BubbleAsyncError(errors.Wrap(err, "unable to run stage output function"))
		}
	}
}

// BubbleAsyncError records an error raised by a stage worker.
// Errors are returned by the blocking drain.
func (m *Manager) BubbleAsyncError(err error) {
	if err == nil {
		return
	}
	m.logger.Warn("stage error", zap.Error(err))
	m.errs.add(err)
}

// Drain starts draining the pipeline from its first stage.
// With block set, it waits until every stage is drained and returns the stage errors.
func (m *Manager) Drain(block bool) error {
	err := m.startDrain()
	if err != nil {
		return err
	}
	if !block {
		return nil
	}

	return m.Wait(context.Background())
}

// DrainContext is the blocking Drain which gives up waiting when ctx is done.
// Stages keep running in the background after ctx is done.
func (m *Manager) DrainContext(ctx context.Context) error {
	err := m.startDrain()
	if err != nil {
		return err
	}

	return m.Wait(ctx)
}

func (m *Manager) startDrain() error {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return ErrPipelineDraining
	}
	m.draining = true
	if len(m.stages) == 0 || m.drainedCount == len(m.stages) {
		close(m.done)
		m.mu.Unlock()
		return nil
	}
	first := m.stages[0]
	m.mu.Unlock()

	m.logger.Debug("draining pipeline", zap.Int("stages", m.Len()), zap.Stringer("mode", m.mode))
	err := first.Drain()
	if err != nil {
		return errors.Wrap(err, "unable to drain first stage")
	}

	return nil
}

// Done is closed once every stage is drained.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until every stage is drained, then finishes the pipeline options and returns
// the errors raised by the stages. A single error is returned unchanged.
// Later calls return the same result.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "pipeline drain interrupted")
	case <-m.done:
	}

	m.finishOnce.Do(func() {
		m.result = multierr.Append(m.errs.take(), m.finishRun())
	})

	return m.result
}

// IsDrained reports whether every stage is drained.
func (m *Manager) IsDrained() bool {
	for _, stage := range m.Stages() {
		if !stage.Base().IsDrained() {
			return false
		}
	}

	return true
}

func (m *Manager) finishRun() error {
	for _, opt := range m.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}
