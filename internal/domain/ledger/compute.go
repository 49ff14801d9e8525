package ledger

import (
	"sort"

	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// Phase names a stage of a full insights computation.
type Phase string

const (
	PhaseFilter     Phase = "filter"
	PhaseAggregate  Phase = "aggregate"
	PhaseBalances   Phase = "balances"
	PhaseCumulative Phase = "cumulative"
)

// phase boundaries on the overall progress scale
var phaseSpan = map[Phase][2]float64{
	PhaseFilter:     {0, 0.1},
	PhaseAggregate:  {0.1, 0.3},
	PhaseBalances:   {0.3, 0.65},
	PhaseCumulative: {0.65, 1},
}

// ProgressFunc receives the phase being worked on and the overall fraction
// done in [0, 1]. Fractions never decrease within one computation. Returning
// false abandons the computation.
type ProgressFunc func(phase Phase, fraction float64) bool

// ComputeOptions tunes Compute.
type ComputeOptions struct {
	Metric Metric // Cumulative metric; defaults to MetricSpend
}

// FocusMonth returns the month balances and cumulative totals are reported
// for: the latest month of the query.
func FocusMonth(months []entity.MonthKey) (entity.MonthKey, bool) {
	if len(months) == 0 {
		return entity.MonthKey{}, false
	}
	sorted := append([]entity.MonthKey(nil), months...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return sorted[len(sorted)-1], true
}

// Compute runs the whole pipeline for one query: selection, totals, chart,
// end-of-day balances and cumulative totals of the focus month. progress may
// be nil. The second result is false when progress abandoned the run.
func Compute(l *entity.Ledger, q Query, opts ComputeOptions, progress ProgressFunc) (valueobject.Insights, bool) {
	if progress == nil {
		progress = func(Phase, float64) bool { return true }
	}
	metric := opts.Metric
	if !metric.Valid() {
		metric = MetricSpend
	}
	l = Unpair(l)

	var out valueobject.Insights
	if !progress(PhaseFilter, phaseSpan[PhaseFilter][0]) {
		return out, false
	}
	selected := Collect(Select(l, q))

	if !progress(PhaseAggregate, phaseSpan[PhaseAggregate][0]) {
		return out, false
	}
	totals := Totals(Filter(selected, All))
	out.Chart = Chart(l, q, selected)
	out.Summary = Summarize(totals, out.Chart)

	focus, ok := FocusMonth(q.Months)
	if !ok {
		return out, progress(PhaseCumulative, 1)
	}
	month := l.Month(focus)

	if !progress(PhaseBalances, phaseSpan[PhaseBalances][0]) {
		return out, false
	}
	book := NewBalanceBook(l, q.Scope)
	completed := true
	out.Balances = EndOfDayTotals(month, book, StartingBalance(l, book, focus), dayStep(PhaseBalances, progress, &completed))
	if !completed {
		return out, false
	}

	out.Cumulative = CumulativeTotals(month, l.Location, selected, metric, dayStep(PhaseCumulative, progress, &completed))
	return out, completed
}

func dayStep(phase Phase, progress ProgressFunc, completed *bool) StepFunc {
	span := phaseSpan[phase]
	return func(done, total int) bool {
		fraction := span[0] + (span[1]-span[0])*float64(done)/float64(total)
		if !progress(phase, fraction) {
			*completed = false
			return false
		}
		return true
	}
}
