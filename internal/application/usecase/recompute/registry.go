package recompute

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/domain/entity"
	domainerror "github.com/finance-tracker/insights/internal/domain/error"
)

// Session is one analytics view kept open by a user.
type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Request    Request
	CreatedAt  time.Time
	Controller *Controller

	repo adapter.LedgerRepository
}

// Load fetches a fresh snapshot covering the session's months.
func (s *Session) Load(ctx context.Context) (*entity.Ledger, error) {
	return s.repo.LoadLedger(ctx, s.UserID, s.Request.Query.Months)
}

// Recompute starts a new run of the session over a fresh snapshot.
func (s *Session) Recompute() (uint64, error) {
	return s.Controller.StartLoad(s.Load, s.Request)
}

// Registry is an in-memory store of the open sessions.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID]*Session
	repo       adapter.LedgerRepository
	bufferSize int
}

// NewRegistry creates an empty registry whose sessions load snapshots from repo.
func NewRegistry(repo adapter.LedgerRepository, bufferSize int) *Registry {
	return &Registry{
		sessions:   make(map[uuid.UUID]*Session),
		repo:       repo,
		bufferSize: bufferSize,
	}
}

// Create opens a session for the user. The session is idle until Recompute is called.
func (r *Registry) Create(userID uuid.UUID, req Request) *Session {
	id := uuid.New()
	s := &Session{
		ID:         id,
		UserID:     userID,
		Request:    req,
		CreatedAt:  time.Now(),
		Controller: NewController(id, r.bufferSize),
		repo:       r.repo,
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s
}

// Get returns the user's session with the given ID. Sessions of other users
// are reported as not found.
func (r *Registry) Get(userID, id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok || s.UserID != userID {
		return nil, domainerror.NewAnalyticsError(
			domainerror.ErrCodeSessionNotFound,
			"Recompute session not found",
			domainerror.ErrSessionNotFound,
		)
	}
	return s, nil
}

// Remove closes and forgets the user's session.
func (r *Registry) Remove(userID, id uuid.UUID) error {
	s, err := r.Get(userID, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	s.Controller.Close()
	return nil
}

// ForUser returns the open sessions of the user.
func (r *Registry) ForUser(userID uuid.UUID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Watch recomputes every open session of a user whenever the source reports
// a change of that user's ledger. It blocks until ctx is done or the source
// closes its channel.
func (r *Registry) Watch(ctx context.Context, source adapter.ChangeSource) error {
	changes, err := source.Changes(ctx, uuid.Nil)
	if err != nil {
		return fmt.Errorf("failed to subscribe to ledger changes: %w", err)
	}

	for change := range changes {
		for _, s := range r.ForUser(change.UserID) {
			if _, err := s.Recompute(); err != nil {
				slog.Warn("Failed to recompute session after ledger change",
					"sessionID", s.ID.String(),
					"userID", change.UserID.String(),
					"error", err.Error(),
				)
			}
		}
	}
	return ctx.Err()
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Controller.Close()
	}
}
