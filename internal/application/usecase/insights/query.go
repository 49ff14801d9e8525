// Package insights contains the insights use cases: summary, chart data,
// end-of-day balances and cumulative totals over a fresh ledger snapshot.
package insights

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/domain/entity"
	domainerror "github.com/finance-tracker/insights/internal/domain/error"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// QueryInput carries the raw query parameters shared by every insights use case.
// List values may hold comma-separated items.
type QueryInput struct {
	UserID               uuid.UUID
	Months               []string
	CategoryIDs          []string
	GroupIDs             []string
	IncludeUncategorized bool
	Scope                string
	SelectedIDs          []string
}

// ParseMonths parses "YYYY-MM" values into distinct month keys in ascending order.
func ParseMonths(values []string) ([]entity.MonthKey, error) {
	seen := make(map[entity.MonthKey]struct{})
	var months []entity.MonthKey
	for _, raw := range splitList(values) {
		key, err := entity.ParseMonthKey(raw)
		if err != nil {
			return nil, domainerror.NewAnalyticsError(
				domainerror.ErrCodeInvalidMonthFormat,
				fmt.Sprintf("Invalid month %q, expected YYYY-MM", raw),
				domainerror.ErrInvalidMonthFormat,
			)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, key)
	}

	if len(months) == 0 {
		return nil, domainerror.NewAnalyticsError(
			domainerror.ErrCodeMissingMonths,
			"At least one month is required",
			domainerror.ErrMissingMonths,
		)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months, nil
}

// ParseScope parses an account scope parameter.
func ParseScope(raw string) (valueobject.AccountScope, error) {
	scope, err := valueobject.ParseAccountScope(strings.TrimSpace(raw))
	if err != nil {
		return valueobject.AccountScope{}, domainerror.NewAnalyticsError(
			domainerror.ErrCodeInvalidAccountScope,
			"Account scope must be all, unified_debit, unified_credit or account:<id>",
			fmt.Errorf("%w: %w", domainerror.ErrInvalidAccountScope, err),
		)
	}
	return scope, nil
}

// ParseIDs parses UUID values. The keyword "none" stands for the
// uncategorized sentinel and parses to uuid.Nil.
func ParseIDs(values []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, raw := range splitList(values) {
		if strings.EqualFold(raw, "none") {
			ids = append(ids, uuid.Nil)
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, domainerror.NewAnalyticsError(
				domainerror.ErrCodeInvalidIdentifier,
				fmt.Sprintf("Invalid identifier %q", raw),
				domainerror.ErrInvalidIdentifier,
			)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseMetric parses a cumulative metric. An empty value selects spend.
func ParseMetric(raw string) (ledger.Metric, error) {
	if raw == "" {
		return ledger.MetricSpend, nil
	}
	metric := ledger.Metric(strings.ToLower(raw))
	if !metric.Valid() {
		return "", domainerror.NewAnalyticsError(
			domainerror.ErrCodeInvalidMetric,
			fmt.Sprintf("Invalid metric %q", raw),
			domainerror.ErrInvalidMetric,
		)
	}
	return metric, nil
}

// BuildQuery validates the raw parameters and turns them into an engine query.
func BuildQuery(input QueryInput) (ledger.Query, error) {
	if input.UserID == uuid.Nil {
		return ledger.Query{}, domainerror.NewAnalyticsError(
			domainerror.ErrCodeMissingUser,
			"User is required",
			domainerror.ErrInvalidIdentifier,
		)
	}

	months, err := ParseMonths(input.Months)
	if err != nil {
		return ledger.Query{}, err
	}
	scope, err := ParseScope(input.Scope)
	if err != nil {
		return ledger.Query{}, err
	}
	categoryIDs, err := ParseIDs(input.CategoryIDs)
	if err != nil {
		return ledger.Query{}, err
	}
	groupIDs, err := ParseIDs(input.GroupIDs)
	if err != nil {
		return ledger.Query{}, err
	}
	selectedIDs, err := ParseIDs(input.SelectedIDs)
	if err != nil {
		return ledger.Query{}, err
	}

	return ledger.Query{
		Months:               months,
		CategoryIDs:          categoryIDs,
		GroupIDs:             groupIDs,
		IncludeUncategorized: input.IncludeUncategorized,
		Scope:                scope,
		MultiSelectOnly:      len(selectedIDs) > 0,
		SelectedIDs:          selectedIDs,
	}, nil
}

// loadLedger fetches a fresh snapshot and checks that a scoped account exists.
// Broken transfer and payment pairs are unpaired before the snapshot is returned.
func loadLedger(ctx context.Context, repo adapter.LedgerRepository, userID uuid.UUID, q ledger.Query) (*entity.Ledger, error) {
	l, err := repo.LoadLedger(ctx, userID, q.Months)
	if err != nil {
		return nil, domainerror.NewAnalyticsError(
			domainerror.ErrCodeLedgerUnavailable,
			"Failed to load ledger",
			fmt.Errorf("%w: %w", domainerror.ErrLedgerUnavailable, err),
		)
	}

	if q.Scope.Kind == valueobject.ScopeAccount {
		if _, ok := l.Account(q.Scope.AccountID); !ok {
			return nil, domainerror.NewAnalyticsError(
				domainerror.ErrCodeAccountNotFound,
				"Account not found",
				domainerror.ErrAccountNotFound,
			)
		}
	}
	return ledger.Unpair(l), nil
}

// singleMonth returns the only month of the query.
func singleMonth(q ledger.Query) (entity.MonthKey, error) {
	if len(q.Months) != 1 {
		return entity.MonthKey{}, domainerror.NewAnalyticsError(
			domainerror.ErrCodeSingleMonthRequired,
			"Exactly one month is required",
			domainerror.ErrSingleMonthRequired,
		)
	}
	return q.Months[0], nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
