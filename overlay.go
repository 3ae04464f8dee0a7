package bankero

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AutoReserveRule automates a budget's reservation: every credit matching
// the filter grows the reservation, up to the cap. Reservations are virtual;
// the rule never creates or alters a posting.
type AutoReserveRule struct {
	// Match is an account-or-category prefix filter selecting the credit
	// events that feed the reservation.
	Match string `json:"match"`
	// Cap bounds the accumulated reservation.
	Cap          decimal.Decimal `json:"cap"`
	CapCommodity string          `json:"capCommodity"`
}

// BudgetChange is the payload of a budget-admin event: the full definition
// of a budget at that point in time. The current definition of a budget is
// the latest budget-admin event for its id, found by replay — budgets are
// never mutated in place.
type BudgetChange struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Commodity string          `json:"commodity"`
	Month     Month           `json:"month,omitzero"`
	Category  string          `json:"category,omitempty"`
	Account   string          `json:"account,omitempty"`

	AutoReserve *AutoReserveRule `json:"autoReserve,omitempty"`

	// Reset starts a new reservation window without changing the
	// definition.
	Reset bool `json:"reset,omitempty"`
}

// PiggyChange is the payload of a piggy-admin event: a savings goal funded
// virtually against a source account.
type PiggyChange struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Target    decimal.Decimal `json:"target"`
	Commodity string          `json:"commodity"`
	Source    string          `json:"source"`
}

// PiggyFunding is the payload of a piggy-fund event. Funding is a pure
// reservation: it moves no value and carries no postings.
type PiggyFunding struct {
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Commodity string          `json:"commodity"`
}

// BudgetDef is a budget definition materialized from the journal: the latest
// budget-admin event per id, plus the start of its current reservation
// window (creation, or the last reset).
type BudgetDef struct {
	BudgetChange
	WindowStart time.Time
}

// PiggyDef is a piggy bank materialized from the journal, with the total
// funded so far.
type PiggyDef struct {
	PiggyChange
	Funded decimal.Decimal
}

// orderedEvents returns a sorted, deduplicated copy in canonical fold order.
func orderedEvents(events []Event) []Event {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	SortEvents(ordered)
	return Dedupe(ordered)
}

// CurrentBudgets folds budget-admin events into the current budget
// definitions, in the order the budgets first appeared.
func CurrentBudgets(events []Event) []BudgetDef {
	byID := make(map[uuid.UUID]int)
	var defs []BudgetDef
	for _, e := range orderedEvents(events) {
		if e.Action != ActionBudget || e.Budget == nil {
			continue
		}
		change := *e.Budget
		i, known := byID[change.ID]
		if !known {
			byID[change.ID] = len(defs)
			defs = append(defs, BudgetDef{BudgetChange: change, WindowStart: e.EffectiveAt})
			continue
		}
		window := defs[i].WindowStart
		if change.Reset {
			window = e.EffectiveAt
		}
		defs[i] = BudgetDef{BudgetChange: change, WindowStart: window}
	}
	return defs
}

// CurrentPiggies folds piggy-admin and piggy-fund events into the current
// piggy banks. Funding refers to piggies by name, matching the verb surface.
func CurrentPiggies(events []Event) []PiggyDef {
	byName := make(map[string]int)
	var defs []PiggyDef
	for _, e := range orderedEvents(events) {
		switch {
		case e.Action == ActionPiggy && e.Piggy != nil:
			change := *e.Piggy
			if i, known := byName[change.Name]; known {
				funded := defs[i].Funded
				defs[i] = PiggyDef{PiggyChange: change, Funded: funded}
				continue
			}
			byName[change.Name] = len(defs)
			defs = append(defs, PiggyDef{PiggyChange: change})
		case e.Action == ActionPiggyFund && e.PiggyFund != nil:
			i, known := byName[e.PiggyFund.Name]
			if !known {
				continue // funding an unknown piggy reserves nothing
			}
			if e.PiggyFund.Commodity != defs[i].Commodity {
				continue
			}
			defs[i].Funded = defs[i].Funded.Add(e.PiggyFund.Amount)
		}
	}
	return defs
}

// PiggyByName returns the current piggy bank with the given name.
func PiggyByName(events []Event, name string) (PiggyDef, bool) {
	for _, p := range CurrentPiggies(events) {
		if p.Name == name {
			return p, true
		}
	}
	return PiggyDef{}, false
}

// Scope selects what a balance query covers: an account prefix, the month
// bounding budget periods, and an optional as-of cutoff. The month only
// scopes the overlay; AsOf truncates the history, yielding the balances as
// they stood at that time.
type Scope struct {
	Account string
	Month   Month
	AsOf    time.Time
}

// BalanceView is one line of an effective-balance query: the actual folded
// balance, the virtual reservation held against it, and what remains.
type BalanceView struct {
	Account   string
	Commodity string
	Actual    decimal.Decimal
	Reserved  decimal.Decimal
	Effective decimal.Decimal
}

// QueryBalance computes actual, reserved and effective balances for the
// scope. Reservations are recomputed from the event history and the current
// budget definitions on every call — there is no persisted counter that
// could drift from the journal.
func QueryBalance(events []Event, scope Scope) []BalanceView {
	ordered := orderedEvents(events)
	if !scope.AsOf.IsZero() {
		cut := len(ordered)
		for i, e := range ordered {
			if e.EffectiveAt.After(scope.AsOf) {
				cut = i
				break
			}
		}
		ordered = ordered[:cut]
	}
	state := NewBalanceState()
	for _, e := range ordered {
		state.Apply(e)
	}

	reserved := make(map[balanceKey]decimal.Decimal)

	for _, b := range CurrentBudgets(ordered) {
		if b.Account == "" {
			// Unanchored budgets report variance only; nothing to hold a
			// reservation against.
			continue
		}
		if !scope.Month.IsZero() && !b.Month.IsZero() && scope.Month != b.Month {
			continue
		}
		key := balanceKey{account: b.Account, commodity: b.Commodity}
		reserved[key] = reserved[key].Add(budgetReservation(ordered, b))
	}

	for _, p := range CurrentPiggies(ordered) {
		amount := p.Funded
		if amount.GreaterThan(p.Target) {
			amount = p.Target
		}
		if amount.IsZero() {
			continue
		}
		key := balanceKey{account: p.Source, commodity: p.Commodity}
		reserved[key] = reserved[key].Add(amount)
	}

	var views []BalanceView
	covered := make(map[balanceKey]struct{})
	for pos := range state.Positions(scope.Account) {
		key := balanceKey{account: pos.Account, commodity: pos.Commodity}
		covered[key] = struct{}{}
		r := reserved[key]
		views = append(views, BalanceView{
			Account:   pos.Account,
			Commodity: pos.Commodity,
			Actual:    pos.Amount,
			Reserved:  r,
			Effective: pos.Amount.Sub(r),
		})
	}
	// Reservations can outlive a zeroed balance; still report them.
	for key, r := range reserved {
		if _, ok := covered[key]; ok || r.IsZero() {
			continue
		}
		if !accountMatches(key.account, scope.Account) {
			continue
		}
		views = append(views, BalanceView{
			Account:   key.account,
			Commodity: key.commodity,
			Actual:    state.Balance(key.account, key.commodity),
			Reserved:  r,
			Effective: state.Balance(key.account, key.commodity).Sub(r),
		})
	}
	return views
}

// budgetReservation computes the virtual hold a single budget places on its
// account: the accumulated auto-reservation (or the full target for plain
// budgets) minus the period's spend, clamped to [0, cap].
func budgetReservation(ordered []Event, b BudgetDef) decimal.Decimal {
	spend := budgetSpend(ordered, b, b.Month)

	gross := b.Amount
	cap := b.Amount
	if rule := b.AutoReserve; rule != nil {
		cap = rule.Cap
		gross = autoReserveGross(ordered, b)
	}

	r := gross.Sub(spend)
	if r.IsNegative() {
		return decimal.Zero
	}
	if r.GreaterThan(cap) {
		return cap
	}
	return r
}

// budgetSpend sums the debit postings charged against the budget within the
// period: postings in the budget's commodity, under its account (when
// anchored), on events whose category falls under the budget's category
// (when set).
func budgetSpend(ordered []Event, b BudgetDef, period Month) decimal.Decimal {
	var spend decimal.Decimal
	for _, e := range ordered {
		if !period.IsZero() && !period.Contains(e.EffectiveAt) {
			continue
		}
		if b.Category != "" && !accountMatches(e.Category, b.Category) {
			continue
		}
		for _, p := range e.Postings {
			if p.Commodity != b.Commodity || !p.Amount.IsNegative() {
				continue
			}
			if b.Account != "" && !accountMatches(p.Account, b.Account) {
				continue
			}
			spend = spend.Add(p.Amount.Neg())
		}
	}
	return spend
}

// autoReserveGross replays the credits matched by the budget's automation
// rule, in chronological order within the current window, accumulating the
// reservation up to the cap.
func autoReserveGross(ordered []Event, b BudgetDef) decimal.Decimal {
	rule := b.AutoReserve
	var gross decimal.Decimal
	for _, e := range ordered {
		if e.EffectiveAt.Before(b.WindowStart) {
			continue
		}
		if !eventMatchesFilter(e, rule.Match) {
			continue
		}
		for _, p := range e.Postings {
			if p.Commodity != rule.CapCommodity || !p.Amount.IsPositive() {
				continue
			}
			if b.Account != "" && !accountMatches(p.Account, b.Account) {
				continue
			}
			gross = gross.Add(p.Amount)
		}
		if gross.GreaterThanOrEqual(rule.Cap) {
			return rule.Cap
		}
	}
	return gross
}

// eventMatchesFilter applies an account-or-category prefix filter to an
// event: any posting account under the prefix, or the event category.
func eventMatchesFilter(e Event, prefix string) bool {
	if accountMatches(e.Category, prefix) && e.Category != "" {
		return true
	}
	for _, p := range e.Postings {
		if accountMatches(p.Account, prefix) {
			return true
		}
	}
	return false
}
