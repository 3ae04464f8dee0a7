package bankero

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SchemaVersion is the event payload schema written by this version of the
// core. Readers accept any version up to this one.
const SchemaVersion = 1

// Action is a typed string identifying the kind of an event.
type Action string

// Actions recorded in the journal.
const (
	ActionDeposit   Action = "deposit"
	ActionMove      Action = "move"
	ActionBuy       Action = "buy"
	ActionSell      Action = "sell"
	ActionTag       Action = "tag"
	ActionBudget    Action = "budget-admin"
	ActionPiggy     Action = "piggy-admin"
	ActionPiggyFund Action = "piggy-fund"
)

// Posting is one signed movement of a commodity against one account.
type Posting struct {
	Account   string          `json:"account"`
	Commodity string          `json:"commodity"`
	Amount    decimal.Decimal `json:"amount"`
}

// RateContext records how a cross-commodity event was priced: the provider
// consulted (or the explicit override used), the pair, and the as-of
// timestamp actually used for resolution. It is part of the immutable event
// so that replay never needs to consult the rate store again.
type RateContext struct {
	Provider string           `json:"provider,omitempty"`
	Override *decimal.Decimal `json:"override,omitempty"`
	Base     string           `json:"base,omitempty"`
	Quote    string           `json:"quote,omitempty"`
	AsOf     time.Time        `json:"asOf"`
}

// BasisKind discriminates the two forms of intrinsic-value metadata.
type BasisKind string

const (
	// BasisFixed is a literal amount+commodity stated by the user.
	BasisFixed BasisKind = "fixed"
	// BasisProvider is a value computed through a rate provider at the
	// event's effective time.
	BasisProvider BasisKind = "provider"
)

// Basis is the intrinsic value of an event, tracked independently of its
// nominal postings.
type Basis struct {
	Kind      BasisKind       `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Commodity string          `json:"commodity"`
	Provider  string          `json:"provider,omitempty"`
}

// Event is an immutable record of a financial or metadata action. Once
// appended to a store it is never mutated or deleted.
type Event struct {
	ID     uuid.UUID `json:"id"`
	Schema int       `json:"schema"`

	LedgerID  string    `json:"ledger,omitempty"`
	Workspace string    `json:"workspace"`
	Project   string    `json:"project,omitempty"`
	DeviceID  uuid.UUID `json:"device"`

	CreatedAt   time.Time `json:"createdAt"`
	EffectiveAt time.Time `json:"effectiveAt"`

	Action   Action    `json:"action"`
	Postings []Posting `json:"postings,omitempty"`

	RateContext RateContext `json:"rateContext"`
	Basis       *Basis      `json:"basis,omitempty"`

	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
	Note     string   `json:"note,omitempty"`

	// Target is the account (or account:commodity) a tag event revalues.
	Target string `json:"target,omitempty"`

	// Definition payloads for overlay administration events.
	Budget    *BudgetChange `json:"budget,omitempty"`
	Piggy     *PiggyChange  `json:"piggy,omitempty"`
	PiggyFund *PiggyFunding `json:"piggyFund,omitempty"`

	// Seq is the insertion sequence assigned by the store on append. It is
	// not part of the event payload: two devices may hold the same event at
	// different sequences, and replay only uses it to break effective-time
	// ties deterministically.
	Seq int64 `json:"-"`
}

// foldBefore defines the canonical replay order: effective time ascending,
// insertion sequence breaking ties.
func foldBefore(a, b Event) bool {
	if !a.EffectiveAt.Equal(b.EffectiveAt) {
		return a.EffectiveAt.Before(b.EffectiveAt)
	}
	return a.Seq < b.Seq
}

// SortEvents sorts events into canonical replay order. The sort is stable so
// that events carrying equal (effective time, sequence) keys keep their
// relative order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool { return foldBefore(events[i], events[j]) })
}

// Dedupe returns events with duplicate ids removed, keeping the first
// occurrence in the given order. Merged streams from several devices may
// carry the same event more than once; folding each id a single time is what
// makes merged-then-replayed state independent of arrival order.
func Dedupe(events []Event) []Event {
	seen := make(map[uuid.UUID]struct{}, len(events))
	out := events[:0:0]
	for _, e := range events {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// HasTag reports whether the event carries the given tag.
func (e Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// crossCommodity reports whether the event carries a conversion: postings in
// more than one commodity tied together by its rate context.
func (e Event) crossCommodity() bool {
	var first string
	for _, p := range e.Postings {
		if first == "" {
			first = p.Commodity
			continue
		}
		if p.Commodity != first {
			return true
		}
	}
	return false
}

// netByCommodity sums the event's postings per commodity.
func (e Event) netByCommodity() map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal)
	for _, p := range e.Postings {
		net[p.Commodity] = net[p.Commodity].Add(p.Amount)
	}
	return net
}

// accountMatches reports whether account falls under prefix in the
// hierarchical account namespace: "assets:bank" matches prefix "assets" and
// "assets:bank", but not "assets:ba".
func accountMatches(account, prefix string) bool {
	if prefix == "" {
		return true
	}
	if account == prefix {
		return true
	}
	return strings.HasPrefix(account, prefix+":")
}
