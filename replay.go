package bankero

import (
	"iter"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type balanceKey struct {
	account   string
	commodity string
}

// BalanceState is the base projection: actual balances per (account,
// commodity) and the latest basis revaluation per account, derived purely
// from the event journal. It keeps no state that is not a function of the
// folded events.
type BalanceState struct {
	balances map[balanceKey]decimal.Decimal
	basis    map[balanceKey]Basis
	seen     map[uuid.UUID]struct{}
}

// NewBalanceState returns an empty projection.
func NewBalanceState() *BalanceState {
	return &BalanceState{
		balances: make(map[balanceKey]decimal.Decimal),
		basis:    make(map[balanceKey]Basis),
		seen:     make(map[uuid.UUID]struct{}),
	}
}

// Replay folds events into a fresh BalanceState. The fold order is
// (effective time, insertion sequence) ascending regardless of the order
// events arrive in, and duplicate event ids are folded once, so replaying a
// merged stream yields the same state on every device.
//
// Committed events are historical fact: postings are applied
// unconditionally, with no re-validation that could fail differently today.
func Replay(events []Event) *BalanceState {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	SortEvents(ordered)
	ordered = Dedupe(ordered)

	s := NewBalanceState()
	for _, e := range ordered {
		s.Apply(e)
	}
	return s
}

// Apply folds a single event into the state. Events already folded (by id)
// are ignored. Callers chunking replay must present events in fold order for
// the prefix-then-suffix result to equal a full replay; Replay does this
// for you.
func (s *BalanceState) Apply(e Event) {
	if _, ok := s.seen[e.ID]; ok {
		return
	}
	s.seen[e.ID] = struct{}{}

	for _, p := range e.Postings {
		key := balanceKey{account: p.Account, commodity: p.Commodity}
		s.balances[key] = s.balances[key].Add(p.Amount)
	}

	if e.Action == ActionTag && e.Basis != nil {
		// Fold order makes the last revaluation win deterministically.
		key := balanceKey{account: e.Target, commodity: e.Basis.Commodity}
		s.basis[key] = *e.Basis
	}
}

// Balance returns the actual balance of (account, commodity).
func (s *BalanceState) Balance(account, commodity string) decimal.Decimal {
	return s.balances[balanceKey{account: account, commodity: commodity}]
}

// BasisOf returns the latest basis revaluation recorded for (account,
// commodity), if any.
func (s *BalanceState) BasisOf(account, commodity string) (Basis, bool) {
	b, ok := s.basis[balanceKey{account: account, commodity: commodity}]
	return b, ok
}

// Position is one (account, commodity, amount) line of the projection.
type Position struct {
	Account   string
	Commodity string
	Amount    decimal.Decimal
}

// Positions iterates the non-zero balances under the account prefix, in
// stable (account, commodity) order. An empty prefix yields everything.
func (s *BalanceState) Positions(prefix string) iter.Seq[Position] {
	return func(yield func(Position) bool) {
		keys := slices.Collect(maps.Keys(s.balances))
		slices.SortFunc(keys, func(a, b balanceKey) int {
			if a.account != b.account {
				if a.account < b.account {
					return -1
				}
				return 1
			}
			if a.commodity < b.commodity {
				return -1
			}
			if a.commodity > b.commodity {
				return 1
			}
			return 0
		})
		for _, key := range keys {
			amount := s.balances[key]
			if amount.IsZero() {
				continue
			}
			if !accountMatches(key.account, prefix) {
				continue
			}
			if !yield(Position{Account: key.account, Commodity: key.commodity, Amount: amount}) {
				return
			}
		}
	}
}
