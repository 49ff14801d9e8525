package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finance-tracker/insights/internal/application/usecase/insights"
	"github.com/finance-tracker/insights/internal/application/usecase/recompute"
	domainerror "github.com/finance-tracker/insights/internal/domain/error"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/integration/entrypoint/dto"
)

// SessionController handles recompute session endpoints.
type SessionController struct {
	registry *recompute.Registry
}

// NewSessionController creates a new session controller instance.
func NewSessionController(registry *recompute.Registry) *SessionController {
	return &SessionController{
		registry: registry,
	}
}

// Create handles POST /insights/sessions requests. The session starts its
// first run immediately.
func (c *SessionController) Create(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req dto.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid request body",
			Code:    string(domainerror.ErrCodeInvalidRequest),
			Details: err.Error(),
		})
		return
	}

	metric, err := insights.ParseMetric(req.Metric)
	if err != nil {
		handleAnalyticsError(ctx, err)
		return
	}
	query, err := insights.BuildQuery(insights.QueryInput{
		UserID:               userID,
		Months:               req.Months,
		CategoryIDs:          req.Categories,
		GroupIDs:             req.Groups,
		IncludeUncategorized: req.IncludeUncategorized,
		Scope:                req.Scope,
		SelectedIDs:          req.Selected,
	})
	if err != nil {
		handleAnalyticsError(ctx, err)
		return
	}

	session := c.registry.Create(userID, recompute.Request{
		Query:   query,
		Options: ledger.ComputeOptions{Metric: metric},
	})
	if _, err := session.Recompute(); err != nil {
		handleAnalyticsError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.ToSessionResponse(session, session.Controller.Status()))
}

// Get handles GET /insights/sessions/:id requests.
func (c *SessionController) Get(ctx *gin.Context) {
	session, ok := c.session(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, dto.ToSessionResponse(session, session.Controller.Status()))
}

// Recompute handles POST /insights/sessions/:id/recompute requests. The run in
// flight, if any, is superseded.
func (c *SessionController) Recompute(ctx *gin.Context) {
	session, ok := c.session(ctx)
	if !ok {
		return
	}

	generation, err := session.Recompute()
	if err != nil {
		handleAnalyticsError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.RecomputeResponse{
		ID:         session.ID.String(),
		Generation: generation,
		State:      string(session.Controller.RunState(generation)),
	})
}

// Delete handles DELETE /insights/sessions/:id requests. The run in flight is
// cancelled and the session closed.
func (c *SessionController) Delete(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := sessionID(ctx)
	if !ok {
		return
	}

	if err := c.registry.Remove(userID, id); err != nil {
		handleAnalyticsError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Events handles GET /insights/sessions/:id/events requests with a
// server-sent event stream. The stream ends after the next finished or failed
// event unless follow=true, in which case it lasts until the client leaves or
// the session closes.
func (c *SessionController) Events(ctx *gin.Context) {
	session, ok := c.session(ctx)
	if !ok {
		return
	}
	follow, _ := strconv.ParseBool(ctx.Query("follow"))

	events, unsubscribe := session.Controller.Subscribe()
	defer unsubscribe()

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Status(http.StatusOK)

	if status := session.Controller.Status(); !follow && status.State != recompute.StateComputing {
		if ev, ok := settled(status); ok {
			ctx.SSEvent(string(ev.Kind), dto.ToEventResponse(ev))
			ctx.Writer.Flush()
		}
		return
	}

	requestCtx := ctx.Request.Context()
	for {
		select {
		case <-requestCtx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if session.Controller.Stale(ev) {
				continue
			}
			ctx.SSEvent(string(ev.Kind), dto.ToEventResponse(ev))
			ctx.Writer.Flush()
			if ev.Terminal() && !follow {
				return
			}
		}
	}
}

// settled returns the terminal event of a finished or failed run. Cancelled
// and idle runs have none.
func settled(status recompute.Status) (recompute.Event, bool) {
	switch status.State {
	case recompute.StateFinished:
		return recompute.Event{
			Generation: status.Generation,
			Kind:       recompute.EventFinished,
			Phase:      status.Phase,
			Fraction:   status.Fraction,
			Result:     status.Result,
		}, true
	case recompute.StateFailed:
		return recompute.Event{
			Generation: status.Generation,
			Kind:       recompute.EventFailed,
			Phase:      status.Phase,
			Fraction:   status.Fraction,
			Err:        status.Err,
		}, true
	}
	return recompute.Event{}, false
}

func (c *SessionController) session(ctx *gin.Context) (*recompute.Session, bool) {
	userID, ok := currentUser(ctx)
	if !ok {
		return nil, false
	}
	id, ok := sessionID(ctx)
	if !ok {
		return nil, false
	}

	session, err := c.registry.Get(userID, id)
	if err != nil {
		handleAnalyticsError(ctx, err)
		return nil, false
	}
	return session, true
}

func sessionID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid session ID",
			Code:  string(domainerror.ErrCodeInvalidIdentifier),
		})
		return uuid.Nil, false
	}
	return id, true
}
