// Package recompute runs insights computations for long-lived analytics
// sessions. Each session owns a Controller that restarts the computation when
// the query or the ledger changes and publishes progress to its subscribers.
package recompute

import (
	"context"
	"time"

	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// State is the lifecycle state of the latest run of a controller.
type State string

const (
	StateIdle       State = "idle"
	StateComputing  State = "computing"
	StateFinished   State = "finished"
	StateSuperseded State = "superseded"
	StateCancelled  State = "cancelled"
	StateFailed     State = "failed"
)

// EventKind distinguishes the events a controller publishes.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventFinished EventKind = "finished"
	EventFailed   EventKind = "failed"
)

// Event is one notification of a run. Result is set on finished events and
// Err on failed ones.
type Event struct {
	Generation uint64
	Kind       EventKind
	Phase      ledger.Phase
	Fraction   float64
	Result     *valueobject.Insights
	Err        error
}

// Terminal reports whether the event ends its run.
func (e Event) Terminal() bool {
	return e.Kind == EventFinished || e.Kind == EventFailed
}

// Status is a snapshot of the latest run of a controller.
type Status struct {
	Generation uint64
	State      State
	Phase      ledger.Phase
	Fraction   float64
	Result     *valueobject.Insights
	Err        error
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// Request describes what a run computes.
type Request struct {
	Query   ledger.Query
	Options ledger.ComputeOptions
}

// LoadFunc fetches a fresh ledger snapshot for a run. It receives the run's
// context, which is cancelled when the run is superseded.
type LoadFunc func(ctx context.Context) (*entity.Ledger, error)

// Snapshot returns a LoadFunc that always yields l.
func Snapshot(l *entity.Ledger) LoadFunc {
	return func(context.Context) (*entity.Ledger, error) {
		return l, nil
	}
}
