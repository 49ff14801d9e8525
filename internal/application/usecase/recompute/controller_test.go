package recompute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/domain/entity"
	domainerror "github.com/finance-tracker/insights/internal/domain/error"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

var may2024 = entity.MonthKey{Year: 2024, Month: time.May}

func testLedger() *entity.Ledger {
	checking := &entity.Account{
		ID:                     uuid.New(),
		Name:                   "Checking",
		Type:                   entity.AccountTypeChecking,
		IsVisibleToCurrentUser: true,
		OpeningBalance:         decimal.NewFromInt(100),
	}
	var txs []*entity.Transaction
	for d := 1; d <= 28; d += 3 {
		txs = append(txs, &entity.Transaction{
			ID:                   uuid.New(),
			Title:                "Coffee",
			Amount:               decimal.NewFromInt(-4),
			Date:                 time.Date(2024, time.May, d, 9, 0, 0, 0, time.UTC),
			Account:              checking,
			FactorInCalculations: true,
			Active:               true,
		})
	}
	return entity.NewLedger([]*entity.Account{checking}, nil, nil, nil, txs, time.UTC)
}

func testRequest() Request {
	return Request{Query: ledger.Query{Months: []entity.MonthKey{may2024}, Scope: valueobject.AllAccounts}}
}

// waitFor reads events until one satisfies match or the timeout expires.
func waitFor(t *testing.T, events <-chan Event, match func(Event) bool) (Event, []Event) {
	t.Helper()
	var seen []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("event channel closed before the expected event")
			}
			seen = append(seen, ev)
			if match(ev) {
				return ev, seen
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestController_ProgressIsMonotonic(t *testing.T) {
	c := NewController(uuid.New(), 1)
	defer c.Close()
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	gen, err := c.Start(testLedger(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	finished, seen := waitFor(t, events, Event.Terminal)
	if finished.Kind != EventFinished || finished.Generation != gen {
		t.Fatalf("expected finished event for generation %d, got %s for %d", gen, finished.Kind, finished.Generation)
	}
	if finished.Result == nil {
		t.Fatal("expected a result on the finished event")
	}
	if finished.Result.Summary.TransactionCount != 10 {
		t.Errorf("expected 10 transactions, got %d", finished.Result.Summary.TransactionCount)
	}

	last := 0.0
	for _, ev := range seen {
		if ev.Fraction < last {
			t.Fatalf("progress went backwards: %v then %v", last, ev.Fraction)
		}
		last = ev.Fraction
	}

	status := c.Status()
	if status.State != StateFinished || status.Fraction != 1 {
		t.Errorf("expected finished status at 1, got %s at %v", status.State, status.Fraction)
	}
}

func TestController_SupersededRunPublishesNothing(t *testing.T) {
	c := NewController(uuid.New(), 4)
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	release := make(chan struct{})
	snapshot := testLedger()
	slowLoad := func(context.Context) (*entity.Ledger, error) {
		<-release
		return snapshot, nil
	}

	first, err := c.StartLoad(slowLoad, testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Start(snapshot, testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second <= first {
		t.Fatalf("expected generation to increase, got %d then %d", first, second)
	}

	finished, seen := waitFor(t, events, Event.Terminal)
	if finished.Generation != second || finished.Kind != EventFinished {
		t.Fatalf("expected generation %d to finish, got %s for %d", second, finished.Kind, finished.Generation)
	}

	close(release)
	c.Close()
	for ev := range events {
		seen = append(seen, ev)
	}

	for _, ev := range seen {
		if ev.Generation == first {
			t.Errorf("superseded generation published a %s event", ev.Kind)
		}
	}
	if got := c.RunState(first); got != StateSuperseded {
		t.Errorf("expected the first run to be superseded, got %s", got)
	}
}

func TestController_LoadFailureIsReported(t *testing.T) {
	c := NewController(uuid.New(), 4)
	defer c.Close()
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	loadErr := errors.New("connection refused")
	gen, _ := c.StartLoad(func(context.Context) (*entity.Ledger, error) {
		return nil, loadErr
	}, testRequest())

	failed, _ := waitFor(t, events, Event.Terminal)
	if failed.Kind != EventFailed || failed.Generation != gen {
		t.Fatalf("expected failed event for generation %d, got %s", gen, failed.Kind)
	}
	if !errors.Is(failed.Err, domainerror.ErrLedgerUnavailable) || !errors.Is(failed.Err, loadErr) {
		t.Errorf("expected the load error to be wrapped, got %v", failed.Err)
	}
	if c.Status().State != StateFailed {
		t.Errorf("expected failed state, got %s", c.Status().State)
	}
}

func TestController_Cancel(t *testing.T) {
	c := NewController(uuid.New(), 4)
	defer c.Close()

	loading := make(chan struct{})
	gen, _ := c.StartLoad(func(ctx context.Context) (*entity.Ledger, error) {
		close(loading)
		<-ctx.Done()
		return nil, ctx.Err()
	}, testRequest())
	<-loading

	if !c.Cancel(gen) {
		t.Fatal("expected the run in flight to be cancelled")
	}
	if c.Cancel(gen) {
		t.Error("expected a second cancel to be a no-op")
	}
	if got := c.RunState(gen); got != StateCancelled {
		t.Errorf("expected cancelled state, got %s", got)
	}
}

func TestController_StartAfterClose(t *testing.T) {
	c := NewController(uuid.New(), 4)
	c.Close()

	_, err := c.Start(testLedger(), testRequest())
	if !errors.Is(err, domainerror.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}

	events, _ := c.Subscribe()
	if _, ok := <-events; ok {
		t.Error("expected a closed channel from a closed controller")
	}
}

type fakeSource struct {
	ch chan adapter.LedgerChange
}

func (f *fakeSource) Changes(context.Context, uuid.UUID) (<-chan adapter.LedgerChange, error) {
	return f.ch, nil
}

func TestController_Watch(t *testing.T) {
	c := NewController(uuid.New(), 4)
	defer c.Close()
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	userID := uuid.New()
	source := &fakeSource{ch: make(chan adapter.LedgerChange, 1)}
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(context.Background(), source, userID, Snapshot(testLedger()), testRequest())
	}()

	source.ch <- adapter.LedgerChange{UserID: userID, ChangedAt: time.Now()}
	finished, _ := waitFor(t, events, Event.Terminal)
	if finished.Kind != EventFinished {
		t.Errorf("expected finished event, got %s", finished.Kind)
	}

	close(source.ch)
	if err := <-done; err != nil {
		t.Errorf("expected Watch to return cleanly, got %v", err)
	}
}

func TestSubscriber_DropBeforePurgesTerminalEvents(t *testing.T) {
	s := &subscriber{notify: make(chan struct{}, 1)}
	s.push(Event{Generation: 1, Kind: EventProgress, Fraction: 0.5})
	s.push(Event{Generation: 1, Kind: EventFinished, Fraction: 1})
	s.push(Event{Generation: 2, Kind: EventProgress, Fraction: 0.1})

	s.dropBefore(2)

	if len(s.pending) != 1 {
		t.Fatalf("expected one queued event, got %d", len(s.pending))
	}
	if ev := s.pending[0]; ev.Generation != 2 || ev.Kind != EventProgress {
		t.Errorf("expected progress of generation 2 to stay queued, got %s for %d", ev.Kind, ev.Generation)
	}
}

func TestController_FinishedEventOfReplacedRunIsStale(t *testing.T) {
	c := NewController(uuid.New(), 1)
	defer c.Close()
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	first, err := c.Start(testLedger(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for c.Status().State != StateFinished {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the first run to finish")
		}
		time.Sleep(5 * time.Millisecond)
	}

	release := make(chan struct{})
	defer close(release)
	second, err := c.StartLoad(func(ctx context.Context) (*entity.Ledger, error) {
		select {
		case <-release:
			return testLedger(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.mu.Lock()
	for _, s := range c.subscribers {
		s.mu.Lock()
		for _, ev := range s.pending {
			if ev.Generation == first {
				t.Errorf("a %s event of generation %d is still queued", ev.Kind, first)
			}
		}
		s.mu.Unlock()
	}
	c.mu.Unlock()

	quiet := time.After(100 * time.Millisecond)
	for {
		select {
		case ev := <-events:
			if ev.Generation < second && !c.Stale(ev) {
				t.Errorf("expected the %s event of generation %d to be stale", ev.Kind, ev.Generation)
			}
		case <-quiet:
			return
		}
	}
}
