package recompute

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/domain/entity"
	domainerror "github.com/finance-tracker/insights/internal/domain/error"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// DefaultBufferSize is the subscriber channel capacity used when none is configured.
const DefaultBufferSize = 16

// Controller serializes the runs of one analytics session. Every Start tags
// its run with a new generation and supersedes the run in flight; events of
// a superseded generation are never published once the newer run started.
type Controller struct {
	id         uuid.UUID
	bufferSize int
	logger     *slog.Logger

	// generation is only written under mu; readers outside mu may see a
	// newer value, never a torn one.
	generation atomic.Uint64

	mu          sync.Mutex
	ctx         context.Context
	stop        context.CancelFunc
	cancelRun   context.CancelFunc
	status      Status
	subscribers map[int]*subscriber
	nextSubID   int
	closed      bool

	wg sync.WaitGroup
}

// NewController creates an idle controller. bufferSize is the capacity of each
// subscriber channel; values below one fall back to DefaultBufferSize.
func NewController(id uuid.UUID, bufferSize int) *Controller {
	if bufferSize < 1 {
		bufferSize = DefaultBufferSize
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		id:          id,
		bufferSize:  bufferSize,
		logger:      slog.Default().With("sessionID", id.String()),
		ctx:         ctx,
		stop:        stop,
		status:      Status{State: StateIdle},
		subscribers: make(map[int]*subscriber),
	}
}

// ID returns the session ID of the controller.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Generation returns the generation of the latest run.
func (c *Controller) Generation() uint64 {
	return c.generation.Load()
}

// Status returns a snapshot of the latest run.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RunState reports the state of the run tagged gen. Runs older than the
// latest one are superseded.
func (c *Controller) RunState(gen uint64) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch latest := c.generation.Load(); {
	case gen == 0 || gen > latest:
		return StateIdle
	case gen < latest:
		return StateSuperseded
	default:
		return c.status.State
	}
}

// Subscribe registers a consumer of events. The returned function
// unsubscribes; the channel is closed on unsubscribe or Close. Starting a run
// purges queued events of older runs, but events already buffered in the
// channel stay there; consumers skip them with Stale.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := newSubscriber(c.bufferSize)
	if c.closed {
		s.close()
		return s.out, func() {}
	}
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = s

	return s.out, func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
		s.close()
	}
}

// Stale reports whether ev belongs to a run that a newer one has replaced.
func (c *Controller) Stale(ev Event) bool {
	return ev.Generation < c.generation.Load()
}

// Start computes the request over an in-memory snapshot.
func (c *Controller) Start(l *entity.Ledger, req Request) (uint64, error) {
	return c.StartLoad(Snapshot(l), req)
}

// StartLoad begins a new run that first loads its snapshot with load. The run
// in flight, if any, is cancelled and marked superseded. It returns the
// generation of the new run.
func (c *Controller) StartLoad(load LoadFunc, req Request) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, domainerror.NewAnalyticsError(
			domainerror.ErrCodeSessionClosed,
			"Recompute session is closed",
			domainerror.ErrSessionClosed,
		)
	}

	if c.cancelRun != nil {
		c.cancelRun()
	}
	if c.status.State == StateComputing {
		c.logger.Debug("Superseding recompute run", "generation", c.status.Generation)
	}

	gen := c.generation.Add(1)
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelRun = cancel
	now := time.Now()
	c.status = Status{
		Generation: gen,
		State:      StateComputing,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	for _, s := range c.subscribers {
		s.dropBefore(gen)
	}

	c.wg.Add(1)
	go c.run(ctx, gen, load, req)
	return gen, nil
}

// Cancel stops the run of the given generation if it is still the latest and
// in flight. It reports whether a run was cancelled.
func (c *Controller) Cancel(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation.Load() || c.status.State != StateComputing {
		return false
	}
	c.cancelRun()
	c.status.State = StateCancelled
	c.status.UpdatedAt = time.Now()
	c.logger.Info("Recompute run cancelled", "generation", gen)
	return true
}

// Close cancels the run in flight, closes every subscriber and waits for the
// run goroutine to return. Closing twice is a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stop()
	if c.status.State == StateComputing {
		c.status.State = StateCancelled
	}
	for id, s := range c.subscribers {
		s.close()
		delete(c.subscribers, id)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// Watch restarts the computation with a fresh snapshot on every change the
// source delivers for userID. It blocks until ctx is done or the source
// closes its channel.
func (c *Controller) Watch(ctx context.Context, source adapter.ChangeSource, userID uuid.UUID, load LoadFunc, req Request) error {
	changes, err := source.Changes(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to ledger changes: %w", err)
	}

	for change := range changes {
		gen, err := c.StartLoad(load, req)
		if err != nil {
			return err
		}
		c.logger.Debug("Ledger changed, recompute started",
			"userID", change.UserID.String(),
			"generation", gen,
		)
	}
	return ctx.Err()
}

func (c *Controller) run(ctx context.Context, gen uint64, load LoadFunc, req Request) {
	defer c.wg.Done()
	startTime := time.Now()

	snapshot, err := load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("Failed to load ledger snapshot", "generation", gen, "error", err.Error())
		c.fail(gen, domainerror.NewAnalyticsError(
			domainerror.ErrCodeLedgerUnavailable,
			"Failed to load ledger",
			fmt.Errorf("%w: %w", domainerror.ErrLedgerUnavailable, err),
		))
		return
	}

	progress := func(phase ledger.Phase, fraction float64) bool {
		if ctx.Err() != nil {
			return false
		}
		return c.publish(gen, Event{Generation: gen, Kind: EventProgress, Phase: phase, Fraction: fraction})
	}

	result, completed := ledger.Compute(snapshot, req.Query, req.Options, progress)
	if !completed {
		return
	}
	if c.finish(gen, &result) {
		c.logger.Debug("Recompute run finished", "generation", gen, "duration", time.Since(startTime).String())
	}
}

// publish delivers ev when gen is still the latest run in flight.
func (c *Controller) publish(gen uint64, ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.current(gen) {
		return false
	}
	c.status.Phase = ev.Phase
	c.status.Fraction = ev.Fraction
	c.status.UpdatedAt = time.Now()
	for _, s := range c.subscribers {
		s.push(ev)
	}
	return true
}

func (c *Controller) finish(gen uint64, result *valueobject.Insights) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.current(gen) {
		return false
	}
	c.status.State = StateFinished
	c.status.Fraction = 1
	c.status.Result = result
	c.status.UpdatedAt = time.Now()
	ev := Event{Generation: gen, Kind: EventFinished, Phase: c.status.Phase, Fraction: 1, Result: result}
	for _, s := range c.subscribers {
		s.push(ev)
	}
	return true
}

func (c *Controller) fail(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.current(gen) {
		return
	}
	c.status.State = StateFailed
	c.status.Err = err
	c.status.UpdatedAt = time.Now()
	ev := Event{Generation: gen, Kind: EventFailed, Phase: c.status.Phase, Fraction: c.status.Fraction, Err: err}
	for _, s := range c.subscribers {
		s.push(ev)
	}
}

// current must be called with mu held.
func (c *Controller) current(gen uint64) bool {
	return !c.closed && gen == c.generation.Load() && c.status.State == StateComputing
}
