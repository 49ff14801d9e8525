package dto

import (
	"time"

	"github.com/finance-tracker/insights/internal/application/usecase/recompute"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// CreateSessionRequest represents the request body for opening a recompute session.
type CreateSessionRequest struct {
	Months               []string `json:"months"`
	Categories           []string `json:"categories"`
	Groups               []string `json:"groups"`
	IncludeUncategorized bool     `json:"include_uncategorized"`
	Scope                string   `json:"scope"`
	Selected             []string `json:"selected"`
	Metric               string   `json:"metric"`
}

// SessionResponse represents a recompute session and its latest run.
type SessionResponse struct {
	ID         string            `json:"id"`
	Months     []string          `json:"months"`
	Scope      string            `json:"scope"`
	Metric     string            `json:"metric"`
	Generation uint64            `json:"generation"`
	State      string            `json:"state"`
	Phase      string            `json:"phase,omitempty"`
	Progress   float64           `json:"progress"`
	Error      string            `json:"error,omitempty"`
	Result     *InsightsResponse `json:"result,omitempty"`
	CreatedAt  string            `json:"created_at"`
	UpdatedAt  *string           `json:"updated_at,omitempty"`
}

// RecomputeResponse represents the run started by a recompute request.
type RecomputeResponse struct {
	ID         string `json:"id"`
	Generation uint64 `json:"generation"`
	State      string `json:"state"`
}

// InsightsResponse represents a complete insights result.
type InsightsResponse struct {
	Summary    SummaryResponseItem       `json:"summary"`
	Chart      []ChartRowResponse        `json:"chart"`
	Balances   []DayBalanceResponse      `json:"balances"`
	Cumulative []CumulativeTotalResponse `json:"cumulative"`
}

// EventResponse represents one recompute event streamed to a client.
type EventResponse struct {
	Generation uint64            `json:"generation"`
	Kind       string            `json:"kind"`
	Phase      string            `json:"phase,omitempty"`
	Progress   float64           `json:"progress"`
	Error      string            `json:"error,omitempty"`
	Result     *InsightsResponse `json:"result,omitempty"`
}

// ToInsightsResponse converts a computation result to its DTO.
func ToInsightsResponse(result *valueobject.Insights) *InsightsResponse {
	if result == nil {
		return nil
	}
	return &InsightsResponse{
		Summary:    ToSummaryResponseItem(result.Summary),
		Chart:      ToChartRows(result.Chart),
		Balances:   ToDayBalances(result.Balances),
		Cumulative: ToCumulativeTotals(result.Cumulative),
	}
}

// ToSessionResponse converts a session and its status to SessionResponse DTO.
func ToSessionResponse(session *recompute.Session, status recompute.Status) SessionResponse {
	metric := string(session.Request.Options.Metric)
	response := SessionResponse{
		ID:         session.ID.String(),
		Months:     monthStrings(session.Request.Query.Months),
		Scope:      session.Request.Query.Scope.String(),
		Metric:     metric,
		Generation: status.Generation,
		State:      string(status.State),
		Phase:      string(status.Phase),
		Progress:   status.Fraction,
		Result:     ToInsightsResponse(status.Result),
		CreatedAt:  session.CreatedAt.UTC().Format(time.RFC3339),
	}
	if status.Err != nil {
		response.Error = status.Err.Error()
	}
	if !status.UpdatedAt.IsZero() {
		updated := status.UpdatedAt.UTC().Format(time.RFC3339)
		response.UpdatedAt = &updated
	}
	return response
}

// ToEventResponse converts a recompute event to its DTO.
func ToEventResponse(ev recompute.Event) EventResponse {
	response := EventResponse{
		Generation: ev.Generation,
		Kind:       string(ev.Kind),
		Phase:      string(ev.Phase),
		Progress:   ev.Fraction,
		Result:     ToInsightsResponse(ev.Result),
	}
	if ev.Err != nil {
		response.Error = ev.Err.Error()
	}
	return response
}
