package bankero

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Filter selects events for queries and reports. Set fields compose with
// AND; a zero filter matches everything. Account and Category are
// hierarchical prefixes, so "expenses" covers "expenses:food".
type Filter struct {
	Month     Month
	Range     Range
	Account   string
	Category  string
	Tag       string
	Commodity string
	Action    Action
}

// Match reports whether the event passes the filter.
func (f Filter) Match(e Event) bool {
	if !f.Month.IsZero() && !f.Month.Contains(e.EffectiveAt) {
		return false
	}
	if !f.Range.IsZero() && !f.Range.Contains(e.EffectiveAt) {
		return false
	}
	if f.Account != "" {
		found := false
		for _, p := range e.Postings {
			if accountMatches(p.Account, f.Account) {
				found = true
				break
			}
		}
		if !found && !accountMatches(e.Target, f.Account) {
			return false
		}
	}
	if f.Category != "" && !accountMatches(e.Category, f.Category) {
		return false
	}
	if f.Tag != "" && !e.HasTag(f.Tag) {
		return false
	}
	if f.Commodity != "" {
		found := false
		for _, p := range e.Postings {
			if p.Commodity == f.Commodity {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return true
}

// FilterEvents returns the events matching the filter, in canonical fold
// order.
func FilterEvents(events []Event, f Filter) []Event {
	var out []Event
	for _, e := range orderedEvents(events) {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// GroupBy names the dimension a report aggregates on.
type GroupBy string

const (
	GroupByAccount   GroupBy = "account"
	GroupByCategory  GroupBy = "category"
	GroupByCommodity GroupBy = "commodity"
	GroupByMonth     GroupBy = "month"
)

// ReportLine is one aggregated row: per (group, commodity), the summed
// debits, credits and net movement of the matched postings, and the number
// of events contributing.
type ReportLine struct {
	Group     string
	Commodity string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Net       decimal.Decimal
	Events    int
}

// ReportView is the result of an aggregation query.
type ReportView struct {
	Filter  Filter
	GroupBy GroupBy
	Lines   []ReportLine
}

type reportKey struct {
	group     string
	commodity string
}

// BuildReport aggregates the filtered events along the grouping dimension.
// Only postings that themselves pass the filter's account and commodity
// constraints contribute, so a report scoped to assets:bank does not drag in
// the counterlegs of its transfers.
func BuildReport(events []Event, f Filter, groupBy GroupBy) ReportView {
	agg := make(map[reportKey]*ReportLine)
	for _, e := range FilterEvents(events, f) {
		touched := make(map[reportKey]struct{})
		for _, p := range e.Postings {
			if f.Account != "" && !accountMatches(p.Account, f.Account) {
				continue
			}
			if f.Commodity != "" && p.Commodity != f.Commodity {
				continue
			}
			key := reportKey{group: groupKeyFor(e, p, groupBy), commodity: p.Commodity}
			line, ok := agg[key]
			if !ok {
				line = &ReportLine{Group: key.group, Commodity: key.commodity}
				agg[key] = line
			}
			if p.Amount.IsNegative() {
				line.Debit = line.Debit.Add(p.Amount.Neg())
			} else {
				line.Credit = line.Credit.Add(p.Amount)
			}
			line.Net = line.Net.Add(p.Amount)
			if _, seen := touched[key]; !seen {
				touched[key] = struct{}{}
				line.Events++
			}
		}
	}

	lines := make([]ReportLine, 0, len(agg))
	for _, line := range agg {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Group != lines[j].Group {
			return lines[i].Group < lines[j].Group
		}
		return lines[i].Commodity < lines[j].Commodity
	})
	return ReportView{Filter: f, GroupBy: groupBy, Lines: lines}
}

func groupKeyFor(e Event, p Posting, groupBy GroupBy) string {
	switch groupBy {
	case GroupByCategory:
		if e.Category == "" {
			return "(uncategorized)"
		}
		return e.Category
	case GroupByCommodity:
		return p.Commodity
	case GroupByMonth:
		return MonthOf(e.EffectiveAt).String()
	default:
		return p.Account
	}
}

// BudgetLine is one row of a budget variance report.
type BudgetLine struct {
	Month     Month
	Name      string
	Commodity string
	Budget    decimal.Decimal
	Actual    decimal.Decimal
	Remaining decimal.Decimal
}

// BudgetReport computes budget-versus-actual for the given month. Budgets
// pinned to another month are skipped; budgets with no month apply to every
// month, with the spend scoped to the requested one. Remaining may go
// negative: overspend is reported, not clamped.
func BudgetReport(events []Event, month Month) []BudgetLine {
	ordered := orderedEvents(events)
	var lines []BudgetLine
	for _, b := range CurrentBudgets(ordered) {
		if !b.Month.IsZero() && !month.IsZero() && b.Month != month {
			continue
		}
		period := month
		if period.IsZero() {
			period = b.Month
		}
		actual := budgetSpend(ordered, b, period)
		lines = append(lines, BudgetLine{
			Month:     period,
			Name:      b.Name,
			Commodity: b.Commodity,
			Budget:    b.Amount,
			Actual:    actual,
			Remaining: b.Amount.Sub(actual),
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines
}
