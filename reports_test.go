package bankero

import (
	"testing"
)

func seedSpending(t *testing.T, l *Ledger) {
	t.Helper()
	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("2000"), Commodity: "USD",
		From: "external:employer", To: "assets:bank", Category: "income:salary",
		EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionBuy, Amount: dec("50"), Commodity: "USD",
		From: "assets:bank", To: "expenses:food", Category: "expenses:food",
		Tags:        []string{"groceries"},
		EffectiveAt: day(5),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionBuy, Amount: dec("900"), Commodity: "USD",
		From: "assets:bank", To: "expenses:rent", Category: "expenses:rent",
		EffectiveAt: day(6),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionBuy, Amount: dec("30"), Commodity: "USD",
		From: "assets:bank", To: "expenses:food", Category: "expenses:food",
		EffectiveAt: day(20).AddDate(0, 1, 0), // march
	})
}

func TestFilterMatch(t *testing.T) {
	l := testLedger(t)
	seedSpending(t, l)
	events := mustEvents(t, l)
	feb, _ := ParseMonth("2026-02")

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"everything", Filter{}, 4},
		{"by month", Filter{Month: feb}, 3},
		{"by category prefix", Filter{Category: "expenses"}, 3},
		{"by exact category", Filter{Category: "expenses:food"}, 2},
		{"by tag", Filter{Tag: "groceries"}, 1},
		{"by account", Filter{Account: "external"}, 1},
		{"by action", Filter{Action: ActionBuy}, 3},
		{"composed", Filter{Month: feb, Category: "expenses:food"}, 1},
		{"no match", Filter{Category: "expenses:travel"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := len(FilterEvents(events, tc.filter)); got != tc.want {
				t.Errorf("matched %d events, want %d", got, tc.want)
			}
		})
	}
}

func TestBuildReportByCategory(t *testing.T) {
	l := testLedger(t)
	seedSpending(t, l)
	feb, _ := ParseMonth("2026-02")

	view, err := l.Report(Filter{Month: feb, Account: "assets:bank", Category: "expenses"}, GroupByCategory)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("got %d lines, want 2: %+v", len(view.Lines), view.Lines)
	}

	food := view.Lines[0]
	if food.Group != "expenses:food" {
		t.Fatalf("lines not sorted by group: %+v", view.Lines)
	}
	if !food.Debit.Equal(dec("50")) || !food.Net.Equal(dec("-50")) {
		t.Errorf("food line = %+v", food)
	}
	rent := view.Lines[1]
	if rent.Group != "expenses:rent" || !rent.Debit.Equal(dec("900")) {
		t.Errorf("rent line = %+v", rent)
	}
}

func TestBuildReportByMonth(t *testing.T) {
	l := testLedger(t)
	seedSpending(t, l)

	view, err := l.Report(Filter{Category: "expenses:food", Account: "assets:bank"}, GroupByMonth)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("got %d lines, want 2: %+v", len(view.Lines), view.Lines)
	}
	if view.Lines[0].Group != "2026-02" || !view.Lines[0].Debit.Equal(dec("50")) {
		t.Errorf("february line = %+v", view.Lines[0])
	}
	if view.Lines[1].Group != "2026-03" || !view.Lines[1].Debit.Equal(dec("30")) {
		t.Errorf("march line = %+v", view.Lines[1])
	}
}

func TestBuildReportScopedPostings(t *testing.T) {
	// Scoping to assets:bank must not drag the expense counterlegs in.
	l := testLedger(t)
	seedSpending(t, l)
	feb, _ := ParseMonth("2026-02")

	view, err := l.Report(Filter{Month: feb, Account: "assets:bank"}, GroupByAccount)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("got %d lines, want just assets:bank: %+v", len(view.Lines), view.Lines)
	}
	line := view.Lines[0]
	if !line.Credit.Equal(dec("2000")) || !line.Debit.Equal(dec("950")) || !line.Net.Equal(dec("1050")) {
		t.Errorf("line = %+v", line)
	}
	if line.Events != 3 {
		t.Errorf("events = %d, want 3", line.Events)
	}
}

func TestBudgetReport(t *testing.T) {
	l := testLedger(t)
	feb, _ := ParseMonth("2026-02")

	mustSubmit(t, l, ActionIntent{
		Action:      ActionBudget,
		Budget:      &BudgetChange{Name: "Food", Amount: dec("300"), Commodity: "USD", Month: feb, Category: "expenses:food"},
		EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionBuy, Amount: dec("50"), Commodity: "USD",
		From: "assets:bank", To: "expenses:food", Category: "expenses:food",
		EffectiveAt: day(5),
	})

	lines, err := l.Budgets(feb)
	if err != nil {
		t.Fatalf("Budgets: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	got := lines[0]
	if got.Name != "Food" || !got.Budget.Equal(dec("300")) {
		t.Errorf("line = %+v", got)
	}
	if !got.Actual.Equal(dec("50")) {
		t.Errorf("actual = %s, want 50", got.Actual)
	}
	if !got.Remaining.Equal(dec("250")) {
		t.Errorf("remaining = %s, want 250", got.Remaining)
	}
}

func TestBudgetReportOverspendGoesNegative(t *testing.T) {
	l := testLedger(t)
	feb, _ := ParseMonth("2026-02")

	mustSubmit(t, l, ActionIntent{
		Action:      ActionBudget,
		Budget:      &BudgetChange{Name: "Food", Amount: dec("100"), Commodity: "USD", Month: feb, Category: "expenses:food"},
		EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionBuy, Amount: dec("130"), Commodity: "USD",
		From: "assets:bank", To: "expenses:food", Category: "expenses:food",
		EffectiveAt: day(5),
	})

	lines, err := l.Budgets(feb)
	if err != nil {
		t.Fatalf("Budgets: %v", err)
	}
	if !lines[0].Remaining.Equal(dec("-30")) {
		t.Errorf("remaining = %s, want -30 (overspend is reported, not clamped)", lines[0].Remaining)
	}
}

func TestBudgetReportSkipsOtherMonths(t *testing.T) {
	l := testLedger(t)
	feb, _ := ParseMonth("2026-02")
	mar, _ := ParseMonth("2026-03")

	mustSubmit(t, l, ActionIntent{
		Action:      ActionBudget,
		Budget:      &BudgetChange{Name: "Food", Amount: dec("300"), Commodity: "USD", Month: feb, Category: "expenses:food"},
		EffectiveAt: day(1),
	})

	lines, err := l.Budgets(mar)
	if err != nil {
		t.Fatalf("Budgets: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("got %d lines for march, want 0", len(lines))
	}
}
