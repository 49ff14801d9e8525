package recompute

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/domain/entity"
	domainerror "github.com/finance-tracker/insights/internal/domain/error"
)

type countingRepository struct {
	loads atomic.Int32
}

func (r *countingRepository) LoadLedger(context.Context, uuid.UUID, []entity.MonthKey) (*entity.Ledger, error) {
	r.loads.Add(1)
	return testLedger(), nil
}

func TestRegistry(t *testing.T) {
	repo := &countingRepository{}
	registry := NewRegistry(repo, 4)
	defer registry.Close()

	owner := uuid.New()
	session := registry.Create(owner, testRequest())

	t.Run("Get returns the owner's session", func(t *testing.T) {
		got, err := registry.Get(owner, session.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != session {
			t.Error("expected the created session")
		}
	})

	t.Run("Get hides sessions of other users", func(t *testing.T) {
		_, err := registry.Get(uuid.New(), session.ID)
		if !errors.Is(err, domainerror.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Recompute loads a fresh snapshot", func(t *testing.T) {
		events, unsubscribe := session.Controller.Subscribe()
		defer unsubscribe()

		if _, err := session.Recompute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		finished, _ := waitFor(t, events, Event.Terminal)
		if finished.Kind != EventFinished {
			t.Fatalf("expected finished event, got %s", finished.Kind)
		}
		if repo.loads.Load() != 1 {
			t.Errorf("expected 1 load, got %d", repo.loads.Load())
		}
	})

	t.Run("Remove closes the session", func(t *testing.T) {
		if err := registry.Remove(owner, session.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if registry.Len() != 0 {
			t.Errorf("expected no sessions, got %d", registry.Len())
		}
		if _, err := session.Recompute(); !errors.Is(err, domainerror.ErrSessionClosed) {
			t.Errorf("expected ErrSessionClosed, got %v", err)
		}
	})
}

func TestRegistry_WatchRecomputesTheChangedUser(t *testing.T) {
	repo := &countingRepository{}
	registry := NewRegistry(repo, 4)
	defer registry.Close()

	alice := registry.Create(uuid.New(), testRequest())
	bob := registry.Create(uuid.New(), testRequest())
	events, unsubscribe := alice.Controller.Subscribe()
	defer unsubscribe()

	source := &fakeSource{ch: make(chan adapter.LedgerChange, 1)}
	done := make(chan error, 1)
	go func() { done <- registry.Watch(context.Background(), source) }()

	source.ch <- adapter.LedgerChange{UserID: alice.UserID, ChangedAt: time.Now()}
	waitFor(t, events, Event.Terminal)
	close(source.ch)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bob.Controller.Generation() != 0 {
		t.Error("expected the other user's session to stay idle")
	}
	if repo.loads.Load() != 1 {
		t.Errorf("expected 1 load, got %d", repo.loads.Load())
	}
}
