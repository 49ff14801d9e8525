package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/application/usecase/insights"
	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// SummaryResponse represents the response for the summary API.
type SummaryResponse struct {
	Data SummaryData `json:"data"`
}

// SummaryData represents the data section of the summary response.
type SummaryData struct {
	Months  []string            `json:"months"`
	Scope   string              `json:"scope"`
	Summary SummaryResponseItem `json:"summary"`
	Totals  TotalsResponse      `json:"totals"`
}

// SummaryResponseItem represents the summary record.
type SummaryResponseItem struct {
	TransactionCount   int     `json:"transaction_count"`
	TotalBudget        float64 `json:"total_budget"`
	Income             float64 `json:"income"`
	CashOut            float64 `json:"cash_out"`
	TotalSpent         float64 `json:"total_spent"`
	SpendMinusPayments float64 `json:"spend_minus_payments"`
	SpendMinusIncome   float64 `json:"spend_minus_income"`
}

// TotalsResponse represents the totals of a selection.
type TotalsResponse struct {
	TransactionCount   int     `json:"transaction_count"`
	Income             float64 `json:"income"`
	DebitSpend         float64 `json:"debit_spend"`
	CreditSpend        float64 `json:"credit_spend"`
	TotalSpend         float64 `json:"total_spend"`
	CreditPayments     float64 `json:"credit_payments"`
	SpendMinusPayments float64 `json:"spend_minus_payments"`
	SpendMinusIncome   float64 `json:"spend_minus_income"`
	CashOut            float64 `json:"cash_out"`
}

// ChartResponse represents the response for the chart API.
type ChartResponse struct {
	Data ChartData `json:"data"`
}

// ChartData represents the data section of the chart response.
type ChartData struct {
	Months []string           `json:"months"`
	Rows   []ChartRowResponse `json:"rows"`
}

// ChartRowResponse represents one budget chart row.
type ChartRowResponse struct {
	CategoryID          *string `json:"category_id"`
	CategoryName        string  `json:"category_name"`
	GroupID             *string `json:"group_id,omitempty"`
	GroupName           string  `json:"group_name,omitempty"`
	IsGroupTotal        bool    `json:"is_group_total"`
	BudgetAmount        float64 `json:"budget_amount"`
	Income              float64 `json:"income"`
	Expenses            float64 `json:"expenses"`
	ExpensesMinusIncome float64 `json:"expenses_minus_income"`
	ChartPercent        float64 `json:"chart_percent"`
	ActualPercent       float64 `json:"actual_percent"`
}

// BalancesResponse represents the response for the balances API.
type BalancesResponse struct {
	Data BalancesData `json:"data"`
}

// BalancesData represents the data section of the balances response.
type BalancesData struct {
	Month           string               `json:"month"`
	Scope           string               `json:"scope"`
	StartingBalance float64              `json:"starting_balance"`
	Balances        []DayBalanceResponse `json:"balances"`
}

// DayBalanceResponse represents the closing balance of one day.
type DayBalanceResponse struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// CumulativeResponse represents the response for the cumulative totals API.
type CumulativeResponse struct {
	Data CumulativeData `json:"data"`
}

// CumulativeData represents the data section of the cumulative totals response.
type CumulativeData struct {
	Month  string                    `json:"month"`
	Metric string                    `json:"metric"`
	Totals []CumulativeTotalResponse `json:"totals"`
}

// CumulativeTotalResponse represents the running total at the end of a day.
type CumulativeTotalResponse struct {
	Date         string  `json:"date"`
	RunningTotal float64 `json:"running_total"`
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func monthStrings(months []entity.MonthKey) []string {
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = m.String()
	}
	return out
}

// ToSummaryResponseItem converts a summary record to its DTO.
func ToSummaryResponseItem(s valueobject.Summary) SummaryResponseItem {
	return SummaryResponseItem{
		TransactionCount:   s.TransactionCount,
		TotalBudget:        toFloat(s.TotalBudget),
		Income:             toFloat(s.Income),
		CashOut:            toFloat(s.CashOut),
		TotalSpent:         toFloat(s.TotalSpent),
		SpendMinusPayments: toFloat(s.SpendMinusPayments),
		SpendMinusIncome:   toFloat(s.SpendMinusIncome),
	}
}

// ToSummaryResponse converts a GetSummaryOutput to SummaryResponse DTO.
func ToSummaryResponse(output *insights.GetSummaryOutput) SummaryResponse {
	t := output.Totals
	return SummaryResponse{
		Data: SummaryData{
			Months:  monthStrings(output.Months),
			Scope:   output.Scope.String(),
			Summary: ToSummaryResponseItem(output.Summary),
			Totals: TotalsResponse{
				TransactionCount:   t.TransactionCount,
				Income:             toFloat(t.Income),
				DebitSpend:         toFloat(t.DebitSpend),
				CreditSpend:        toFloat(t.CreditSpend),
				TotalSpend:         toFloat(t.TotalSpend),
				CreditPayments:     toFloat(t.CreditPayments),
				SpendMinusPayments: toFloat(t.SpendMinusPayments),
				SpendMinusIncome:   toFloat(t.SpendMinusIncome),
				CashOut:            toFloat(t.CashOut),
			},
		},
	}
}

// ToChartRows converts chart rows to their DTOs. The uncategorized row has
// no category ID.
func ToChartRows(rows []valueobject.ChartData) []ChartRowResponse {
	out := make([]ChartRowResponse, len(rows))
	for i, row := range rows {
		item := ChartRowResponse{
			IsGroupTotal:        row.IsGroupTotal(),
			BudgetAmount:        toFloat(row.BudgetAmount),
			Income:              toFloat(row.Income),
			Expenses:            toFloat(row.Expenses),
			ExpensesMinusIncome: toFloat(row.ExpensesMinusIncome),
			ChartPercent:        toFloat(row.ChartPercent),
			ActualPercent:       toFloat(row.ActualPercent),
		}
		if row.Category != nil {
			item.CategoryName = row.Category.Title
			if !row.Category.IsNil {
				id := row.Category.ID.String()
				item.CategoryID = &id
			}
		}
		if row.Group != nil {
			id := row.Group.ID.String()
			item.GroupID = &id
			item.GroupName = row.Group.Title
		}
		out[i] = item
	}
	return out
}

// ToChartResponse converts a GetChartDataOutput to ChartResponse DTO.
func ToChartResponse(output *insights.GetChartDataOutput) ChartResponse {
	return ChartResponse{
		Data: ChartData{
			Months: monthStrings(output.Months),
			Rows:   ToChartRows(output.Rows),
		},
	}
}

// ToDayBalances converts end-of-day balances to their DTOs.
func ToDayBalances(balances []valueobject.DayBalance) []DayBalanceResponse {
	out := make([]DayBalanceResponse, len(balances))
	for i, b := range balances {
		out[i] = DayBalanceResponse{
			Date:  b.Date.Format(time.DateOnly),
			Total: toFloat(b.Total),
		}
	}
	return out
}

// ToBalancesResponse converts a GetBalancesOutput to BalancesResponse DTO.
func ToBalancesResponse(output *insights.GetBalancesOutput) BalancesResponse {
	return BalancesResponse{
		Data: BalancesData{
			Month:           output.Month.String(),
			Scope:           output.Scope.String(),
			StartingBalance: toFloat(output.StartingBalance),
			Balances:        ToDayBalances(output.Balances),
		},
	}
}

// ToCumulativeTotals converts cumulative totals to their DTOs.
func ToCumulativeTotals(totals []valueobject.CumulativeTotal) []CumulativeTotalResponse {
	out := make([]CumulativeTotalResponse, len(totals))
	for i, t := range totals {
		out[i] = CumulativeTotalResponse{
			Date:         t.Date.Format(time.DateOnly),
			RunningTotal: toFloat(t.RunningTotal),
		}
	}
	return out
}

// ToCumulativeResponse converts a GetCumulativeTotalsOutput to CumulativeResponse DTO.
func ToCumulativeResponse(output *insights.GetCumulativeTotalsOutput) CumulativeResponse {
	return CumulativeResponse{
		Data: CumulativeData{
			Month:  output.Month.String(),
			Metric: string(output.Metric),
			Totals: ToCumulativeTotals(output.Totals),
		},
	}
}
