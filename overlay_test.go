package bankero

import (
	"testing"
	"time"
)

// testLedger wires an in-memory journal with a deterministic clock.
func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l := NewLedger(NewMemoryJournal(), NewRateTable())
	l.Workspace = "personal"
	l.Validator().Now = func() time.Time { return time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC) }
	return l
}

func mustSubmit(t *testing.T, l *Ledger, intent ActionIntent) Event {
	t.Helper()
	e, _, err := l.Submit(intent)
	if err != nil {
		t.Fatalf("Submit(%s): %v", intent.Action, err)
	}
	return e
}

func mustEvents(t *testing.T, l *Ledger) []Event {
	t.Helper()
	events, err := l.Events()
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	return events
}

func findView(t *testing.T, views []BalanceView, account, commodity string) BalanceView {
	t.Helper()
	for _, v := range views {
		if v.Account == account && v.Commodity == commodity {
			return v
		}
	}
	t.Fatalf("no view for %s %s in %+v", account, commodity, views)
	return BalanceView{}
}

func TestBudgetReservesRemainingTarget(t *testing.T) {
	l := testLedger(t)
	feb, _ := ParseMonth("2026-02")

	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("300"), Commodity: "USD",
		From: "external", To: "assets:bank", EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionBudget,
		Budget: &BudgetChange{
			Name: "Food", Amount: dec("300"), Commodity: "USD",
			Month: feb, Category: "expenses:food", Account: "assets:bank",
		},
		EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionBuy, Amount: dec("50"), Commodity: "USD",
		From: "assets:bank", To: "expenses:food", Category: "expenses:food",
		EffectiveAt: day(5),
	})

	views, err := l.Balances(Scope{Account: "assets:bank", Month: feb})
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	v := findView(t, views, "assets:bank", "USD")

	if !v.Actual.Equal(dec("250")) {
		t.Errorf("actual = %s, want 250", v.Actual)
	}
	if !v.Reserved.Equal(dec("250")) {
		t.Errorf("reserved = %s, want 250 (300 budget minus 50 spent)", v.Reserved)
	}
	if !v.Effective.IsZero() {
		t.Errorf("effective = %s, want 0", v.Effective)
	}
}

func TestBudgetReservationNeverNegative(t *testing.T) {
	l := testLedger(t)
	feb, _ := ParseMonth("2026-02")

	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("1000"), Commodity: "USD",
		From: "external", To: "assets:bank", EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionBudget,
		Budget: &BudgetChange{
			Name: "Food", Amount: dec("100"), Commodity: "USD",
			Month: feb, Category: "expenses:food", Account: "assets:bank",
		},
		EffectiveAt: day(1),
	})
	// Overspend: 150 against a 100 budget.
	mustSubmit(t, l, ActionIntent{
		Action: ActionBuy, Amount: dec("150"), Commodity: "USD",
		From: "assets:bank", To: "expenses:food", Category: "expenses:food",
		EffectiveAt: day(5),
	})

	views, err := l.Balances(Scope{Account: "assets:bank", Month: feb})
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	v := findView(t, views, "assets:bank", "USD")
	if !v.Reserved.IsZero() {
		t.Errorf("reserved = %s, want 0 (clamped)", v.Reserved)
	}
	if !v.Effective.Equal(v.Actual) {
		t.Errorf("effective = %s, want the actual %s", v.Effective, v.Actual)
	}
}

func TestAutoReserveAccumulatesToCap(t *testing.T) {
	l := testLedger(t)

	mustSubmit(t, l, ActionIntent{
		Action: ActionBudget,
		Budget: &BudgetChange{
			Name: "Rent", Amount: dec("200"), Commodity: "USD",
			Account:     "assets:bank",
			AutoReserve: &AutoReserveRule{Match: "income:salary", Cap: dec("200"), CapCommodity: "USD"},
		},
		EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("150"), Commodity: "USD",
		From: "external:employer", To: "assets:bank", Category: "income:salary",
		EffectiveAt: day(2),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("100"), Commodity: "USD",
		From: "external:employer", To: "assets:bank", Category: "income:salary",
		EffectiveAt: day(3),
	})
	// A credit not matching the rule must not grow the reservation.
	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("40"), Commodity: "USD",
		From: "external", To: "assets:bank", Category: "income:gift",
		EffectiveAt: day(4),
	})

	views, err := l.Balances(Scope{Account: "assets:bank"})
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	v := findView(t, views, "assets:bank", "USD")

	if !v.Actual.Equal(dec("290")) {
		t.Errorf("actual = %s, want 290", v.Actual)
	}
	if !v.Reserved.Equal(dec("200")) {
		t.Errorf("reserved = %s, want 200 (150+100 capped)", v.Reserved)
	}
	if !v.Effective.Equal(dec("90")) {
		t.Errorf("effective = %s, want 90", v.Effective)
	}
}

func TestAutoReserveWindowResets(t *testing.T) {
	l := testLedger(t)

	created := mustSubmit(t, l, ActionIntent{
		Action: ActionBudget,
		Budget: &BudgetChange{
			Name: "Rent", Amount: dec("200"), Commodity: "USD",
			Account:     "assets:bank",
			AutoReserve: &AutoReserveRule{Match: "income:salary", Cap: dec("200"), CapCommodity: "USD"},
		},
		EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("150"), Commodity: "USD",
		From: "external:employer", To: "assets:bank", Category: "income:salary",
		EffectiveAt: day(2),
	})

	// Reset on day 10: earlier salary credits leave the window.
	reset := *created.Budget
	reset.Reset = true
	mustSubmit(t, l, ActionIntent{Action: ActionBudget, Budget: &reset, EffectiveAt: day(10)})

	views, err := l.Balances(Scope{Account: "assets:bank"})
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	v := findView(t, views, "assets:bank", "USD")
	if !v.Reserved.IsZero() {
		t.Errorf("reserved = %s, want 0 after reset", v.Reserved)
	}

	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("120"), Commodity: "USD",
		From: "external:employer", To: "assets:bank", Category: "income:salary",
		EffectiveAt: day(12),
	})
	views, _ = l.Balances(Scope{Account: "assets:bank"})
	v = findView(t, views, "assets:bank", "USD")
	if !v.Reserved.Equal(dec("120")) {
		t.Errorf("reserved = %s, want 120 (only the new window's credit)", v.Reserved)
	}
}

func TestPiggyFundingReservesSource(t *testing.T) {
	l := testLedger(t)

	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("3000"), Commodity: "USD",
		From: "external", To: "assets:savings", EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionPiggy,
		Piggy:  &PiggyChange{Name: "Vacation", Target: dec("5000"), Commodity: "USD", Source: "assets:savings"},
	})
	mustSubmit(t, l, ActionIntent{
		Action:    ActionPiggyFund,
		PiggyFund: &PiggyFunding{Name: "Vacation", Amount: dec("2000"), Commodity: "USD"},
	})

	views, err := l.Balances(Scope{Account: "assets:savings"})
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	v := findView(t, views, "assets:savings", "USD")

	if !v.Actual.Equal(dec("3000")) {
		t.Errorf("actual = %s, want 3000 (funding moves nothing)", v.Actual)
	}
	if !v.Reserved.Equal(dec("2000")) {
		t.Errorf("reserved = %s, want 2000", v.Reserved)
	}
	if !v.Effective.Equal(dec("1000")) {
		t.Errorf("effective = %s, want 1000", v.Effective)
	}

	piggies, err := l.Piggies()
	if err != nil {
		t.Fatalf("Piggies: %v", err)
	}
	if len(piggies) != 1 || !piggies[0].Funded.Equal(dec("2000")) {
		t.Errorf("piggies = %+v", piggies)
	}
}

func TestPiggyReservationClampsAtTarget(t *testing.T) {
	l := testLedger(t)

	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("1000"), Commodity: "USD",
		From: "external", To: "assets:savings", EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionPiggy,
		Piggy:  &PiggyChange{Name: "Gadget", Target: dec("300"), Commodity: "USD", Source: "assets:savings"},
	})
	for range 2 {
		mustSubmit(t, l, ActionIntent{
			Action:    ActionPiggyFund,
			PiggyFund: &PiggyFunding{Name: "Gadget", Amount: dec("200"), Commodity: "USD"},
		})
	}

	views, _ := l.Balances(Scope{Account: "assets:savings"})
	v := findView(t, views, "assets:savings", "USD")
	if !v.Reserved.Equal(dec("300")) {
		t.Errorf("reserved = %s, want 300 (clamped at the target)", v.Reserved)
	}
}

func TestCurrentBudgetsLatestDefinitionWins(t *testing.T) {
	l := testLedger(t)

	created := mustSubmit(t, l, ActionIntent{
		Action:      ActionBudget,
		Budget:      &BudgetChange{Name: "Food", Amount: dec("300"), Commodity: "USD", Category: "expenses:food"},
		EffectiveAt: day(1),
	})
	update := *created.Budget
	update.Amount = dec("350")
	mustSubmit(t, l, ActionIntent{Action: ActionBudget, Budget: &update, EffectiveAt: day(5)})

	defs := CurrentBudgets(mustEvents(t, l))
	if len(defs) != 1 {
		t.Fatalf("got %d budgets, want 1", len(defs))
	}
	if !defs[0].Amount.Equal(dec("350")) {
		t.Errorf("amount = %s, want the updated 350", defs[0].Amount)
	}
	if !defs[0].WindowStart.Equal(day(1)) {
		t.Errorf("window start = %s, want the creation time", defs[0].WindowStart)
	}
}

func TestQueryBalanceAsOf(t *testing.T) {
	l := testLedger(t)

	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("100"), Commodity: "USD",
		From: "external", To: "assets:bank", EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("50"), Commodity: "USD",
		From: "external", To: "assets:bank", EffectiveAt: day(10),
	})

	views, err := l.Balances(Scope{Account: "assets:bank", AsOf: day(5)})
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	v := findView(t, views, "assets:bank", "USD")
	if !v.Actual.Equal(dec("100")) {
		t.Errorf("as-of balance = %s, want 100 (the later deposit is cut off)", v.Actual)
	}
}

func TestQueryBalanceScopesBudgetsByMonth(t *testing.T) {
	l := testLedger(t)
	feb, _ := ParseMonth("2026-02")
	mar, _ := ParseMonth("2026-03")

	mustSubmit(t, l, ActionIntent{
		Action: ActionDeposit, Amount: dec("500"), Commodity: "USD",
		From: "external", To: "assets:bank", EffectiveAt: day(1),
	})
	mustSubmit(t, l, ActionIntent{
		Action: ActionBudget,
		Budget: &BudgetChange{
			Name: "Food", Amount: dec("300"), Commodity: "USD",
			Month: feb, Account: "assets:bank",
		},
		EffectiveAt: day(1),
	})

	febViews, _ := l.Balances(Scope{Account: "assets:bank", Month: feb})
	if v := findView(t, febViews, "assets:bank", "USD"); !v.Reserved.Equal(dec("300")) {
		t.Errorf("february reserved = %s, want 300", v.Reserved)
	}

	marViews, _ := l.Balances(Scope{Account: "assets:bank", Month: mar})
	if v := findView(t, marViews, "assets:bank", "USD"); !v.Reserved.IsZero() {
		t.Errorf("march reserved = %s, want 0 (budget pinned to february)", v.Reserved)
	}
}
