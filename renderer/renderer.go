// Package renderer turns query results into markdown. The markdown is the
// canonical output surface: the CLI renders it for the terminal, and tests
// assert on it directly.
package renderer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JoCarrasco/bankero"
)

var hundred = decimal.NewFromInt(100)

// BalanceMarkdown renders an effective-balance query: actual balances with
// the virtual reservations held against them.
func BalanceMarkdown(views []bankero.BalanceView, scope bankero.Scope) string {
	var b strings.Builder

	title := "Balance"
	if scope.Account != "" {
		title = fmt.Sprintf("Balance of %s", scope.Account)
	}
	if !scope.Month.IsZero() {
		title += fmt.Sprintf(" (%s)", scope.Month)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(views) == 0 {
		fmt.Fprintln(&b, "No balances.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Account | Actual | Reserved | Effective |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	for _, v := range views {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			v.Account,
			bankero.M(v.Actual, v.Commodity).String(),
			bankero.M(v.Reserved, v.Commodity).SignedString(),
			bankero.M(v.Effective, v.Commodity).String(),
		)
	}
	return b.String()
}

// ReportMarkdown renders an aggregation report.
func ReportMarkdown(view bankero.ReportView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Report by %s\n\n", view.GroupBy)
	if f := describeFilter(view.Filter); f != "" {
		fmt.Fprintf(&b, "Filter: %s\n\n", f)
	}

	if len(view.Lines) == 0 {
		fmt.Fprintln(&b, "No matching events.")
		return b.String()
	}

	fmt.Fprintf(&b, "| %s | Debit | Credit | Net | Events |\n", columnTitle(view.GroupBy))
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|")
	for _, l := range view.Lines {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d |\n",
			l.Group,
			bankero.M(l.Debit, l.Commodity).String(),
			bankero.M(l.Credit, l.Commodity).String(),
			bankero.M(l.Net, l.Commodity).SignedString(),
			l.Events,
		)
	}
	return b.String()
}

// BudgetMarkdown renders the budget-versus-actual report for a month.
func BudgetMarkdown(lines []bankero.BudgetLine, month bankero.Month) string {
	var b strings.Builder

	if month.IsZero() {
		fmt.Fprint(&b, "# Budget Report\n\n")
	} else {
		fmt.Fprintf(&b, "# Budget Report for %s\n\n", month)
	}

	if len(lines) == 0 {
		fmt.Fprintln(&b, "No budgets.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Budget | Planned | Actual | Remaining |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	for _, l := range lines {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			l.Name,
			bankero.M(l.Budget, l.Commodity).String(),
			bankero.M(l.Actual, l.Commodity).String(),
			bankero.M(l.Remaining, l.Commodity).SignedString(),
		)
	}
	return b.String()
}

// PiggyMarkdown renders the funding status of the piggy banks.
func PiggyMarkdown(piggies []bankero.PiggyDef) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Piggy Banks\n\n")

	if len(piggies) == 0 {
		fmt.Fprintln(&b, "No piggy banks.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Piggy | Funded | Target | Remaining | Progress |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|")
	for _, p := range piggies {
		remaining := p.Target.Sub(p.Funded)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		percent := int64(0)
		if p.Target.IsPositive() {
			percent = p.Funded.Div(p.Target).Mul(hundred).IntPart()
			if percent > 100 {
				percent = 100
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d%% |\n",
			p.Name,
			bankero.M(p.Funded, p.Commodity).String(),
			bankero.M(p.Target, p.Commodity).String(),
			bankero.M(remaining, p.Commodity).String(),
			percent,
		)
	}
	return b.String()
}

// RatesMarkdown renders the stored rate observations.
func RatesMarkdown(records []bankero.RateRecord) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Exchange Rates\n\n")

	if len(records) == 0 {
		fmt.Fprintln(&b, "No rates recorded.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Provider | Pair | Rate | As Of |")
	fmt.Fprintln(&b, "|:---|:---|---:|:---|")
	for _, r := range records {
		fmt.Fprintf(&b, "| %s | %s/%s | %s | %s |\n",
			r.Provider, r.Base, r.Quote, r.Value, r.AsOf.Format("2006-01-02 15:04"))
	}
	return b.String()
}

func columnTitle(g bankero.GroupBy) string {
	s := string(g)
	if s == "" {
		return "Account"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func describeFilter(f bankero.Filter) string {
	var parts []string
	if !f.Month.IsZero() {
		parts = append(parts, fmt.Sprintf("month %s", f.Month))
	}
	if f.Account != "" {
		parts = append(parts, fmt.Sprintf("account %s", f.Account))
	}
	if f.Category != "" {
		parts = append(parts, fmt.Sprintf("category %s", f.Category))
	}
	if f.Tag != "" {
		parts = append(parts, fmt.Sprintf("tag %s", f.Tag))
	}
	if f.Commodity != "" {
		parts = append(parts, fmt.Sprintf("commodity %s", f.Commodity))
	}
	if f.Action != "" {
		parts = append(parts, fmt.Sprintf("action %s", f.Action))
	}
	return strings.Join(parts, ", ")
}
