package bankero

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderRef names a rate provider, optionally carrying an explicit manual
// override value. Adapters parse their own syntax (e.g. "@bcv:45.2") into
// this form; the core never parses strings.
type ProviderRef struct {
	Name     string
	Override *decimal.Decimal
}

// BasisSpec is the caller's request for intrinsic-value tracking: either a
// fixed literal (Amount+Commodity) or a provider token (Provider non-empty).
type BasisSpec struct {
	Amount    decimal.Decimal
	Commodity string
	Provider  string
}

// Split is one leg of a split buy or sell: an account and the portion of the
// total amount posted against it.
type Split struct {
	Account string
	Amount  decimal.Decimal
}

// ActionIntent is the inbound record the core consumes from its adapters
// (CLI parser, workflow executor, sync-merge consumer). Submit validates an
// intent and constructs the corresponding immutable Event; it never appends.
type ActionIntent struct {
	Action Action

	Amount    decimal.Decimal
	Commodity string

	From string
	To   string

	// FromSplits and ToSplits carry repeated --from/--to legs for sell and
	// buy. Their amounts must sum exactly to Amount.
	FromSplits []Split
	ToSplits   []Split

	// ToAmount/ToCommodity describe the destination leg of a cross-currency
	// move or sell. When ToAmount is nil but ToCommodity differs from
	// Commodity, the leg amount is resolved through the rate provider.
	ToAmount    *decimal.Decimal
	ToCommodity string

	Provider *ProviderRef
	Basis    *BasisSpec

	Tags     []string
	Category string
	Note     string

	// Target is the account a tag event revalues.
	Target string

	// Definition payloads for overlay administration actions.
	Budget    *BudgetChange
	Piggy     *PiggyChange
	PiggyFund *PiggyFunding

	// EffectiveAt is the financial/ordering time of the event. Zero means
	// "now": the validator stamps the current UTC time.
	EffectiveAt time.Time
	// AsOf overrides the rate resolution timestamp. Zero means EffectiveAt.
	AsOf time.Time

	LedgerID  string
	Workspace string
	Project   string
	DeviceID  uuid.UUID
}
