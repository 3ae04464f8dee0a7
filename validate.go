package bankero

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountPolicy validates an account or category path. The default policy
// accepts any non-empty hierarchical string; callers that maintain a
// declared chart of accounts can plug a stricter one.
type AccountPolicy func(path string) error

func freeFormAccounts(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrMissingAccount
	}
	return nil
}

// DefaultReferenceCommodity is the commodity provider-computed bases are
// valued in when the validator is not configured otherwise.
const DefaultReferenceCommodity = "USD"

// Validator constructs well-formed events from action intents. Submit is
// pure construction: it resolves rates and bases, enforces the per-action
// invariants, and never appends anything.
type Validator struct {
	Rates    *RateResolver
	Accounts AccountPolicy

	// ReferenceCommodity denominates provider-computed bases.
	ReferenceCommodity string

	// Now stamps created_at and the effective_at default. Overridable for
	// deterministic tests.
	Now func() time.Time
}

// NewValidator returns a validator resolving rates from src.
func NewValidator(src RateSource) *Validator {
	return &Validator{Rates: &RateResolver{Source: src}}
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}

func (v *Validator) referenceCommodity() string {
	if v.ReferenceCommodity == "" {
		return DefaultReferenceCommodity
	}
	return v.ReferenceCommodity
}

func (v *Validator) checkAccount(path string) error {
	policy := v.Accounts
	if policy == nil {
		policy = freeFormAccounts
	}
	if err := policy(path); err != nil {
		if path == "" {
			return ErrMissingAccount
		}
		return fmt.Errorf("account %q: %w", path, err)
	}
	return nil
}

// Submit validates an intent and constructs the corresponding Event. On any
// validation or resolution failure nothing is constructed and the error
// wraps one of the package sentinels.
func (v *Validator) Submit(intent ActionIntent) (Event, error) {
	now := v.now()
	effectiveAt := intent.EffectiveAt
	if effectiveAt.IsZero() {
		// Open policy decision: an omitted effective time means "now".
		effectiveAt = now
	}
	effectiveAt = effectiveAt.UTC()
	asOf := intent.AsOf
	if asOf.IsZero() {
		asOf = effectiveAt
	}
	asOf = asOf.UTC()

	e := Event{
		ID:          uuid.New(),
		Schema:      SchemaVersion,
		LedgerID:    intent.LedgerID,
		Workspace:   intent.Workspace,
		Project:     intent.Project,
		DeviceID:    intent.DeviceID,
		CreatedAt:   now,
		EffectiveAt: effectiveAt,
		Action:      intent.Action,
		RateContext: RateContext{AsOf: asOf},
		Tags:        intent.Tags,
		Category:    intent.Category,
		Note:        intent.Note,
	}

	var err error
	switch intent.Action {
	case ActionDeposit:
		err = v.buildDeposit(&e, intent)
	case ActionMove:
		err = v.buildMove(&e, intent)
	case ActionBuy:
		err = v.buildBuy(&e, intent)
	case ActionSell:
		err = v.buildSell(&e, intent)
	case ActionTag:
		err = v.buildTag(&e, intent)
	case ActionBudget:
		err = v.buildBudget(&e, intent)
	case ActionPiggy:
		err = v.buildPiggy(&e, intent)
	case ActionPiggyFund:
		err = v.buildPiggyFund(&e, intent)
	default:
		return Event{}, fmt.Errorf("unsupported action %q", intent.Action)
	}
	if err != nil {
		return Event{}, fmt.Errorf("invalid %s intent: %w", intent.Action, err)
	}

	if err := e.checkZeroSum(); err != nil {
		return Event{}, fmt.Errorf("invalid %s intent: %w", intent.Action, err)
	}
	return e, nil
}

// checkZeroSum enforces the posting invariant: within an event, postings of
// one commodity net to zero. Conversion legs are exempt: a cross-commodity
// event carries one debit leg and one credit leg in different commodities,
// tied by the rate context, and conversion creates no zero-sum constraint
// across commodities.
func (e *Event) checkZeroSum() error {
	if len(e.Postings) == 0 || e.crossCommodity() {
		return nil
	}
	for commodity, net := range e.netByCommodity() {
		if !net.IsZero() {
			return fmt.Errorf("postings in %s net to %s, want zero", commodity, net)
		}
	}
	return nil
}

func (v *Validator) checkAmount(amount decimal.Decimal, commodity string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount %s: %w", amount, ErrNegativeAmount)
	}
	return ValidateCommodity(commodity)
}

func (v *Validator) buildDeposit(e *Event, intent ActionIntent) error {
	if err := v.checkAmount(intent.Amount, intent.Commodity); err != nil {
		return err
	}
	if err := v.checkAccount(intent.From); err != nil {
		return err
	}
	if err := v.checkAccount(intent.To); err != nil {
		return err
	}
	e.Postings = []Posting{
		{Account: intent.From, Commodity: intent.Commodity, Amount: intent.Amount.Neg()},
		{Account: intent.To, Commodity: intent.Commodity, Amount: intent.Amount},
	}
	basis, err := v.resolveBasis(intent.Basis, intent.Amount, intent.Commodity, e.EffectiveAt)
	if err != nil {
		return err
	}
	e.Basis = basis
	return nil
}

func (v *Validator) buildMove(e *Event, intent ActionIntent) error {
	if err := v.checkAmount(intent.Amount, intent.Commodity); err != nil {
		return err
	}
	if err := v.checkAccount(intent.From); err != nil {
		return err
	}
	if err := v.checkAccount(intent.To); err != nil {
		return err
	}

	if intent.ToCommodity == "" || intent.ToCommodity == intent.Commodity {
		// Same-commodity transfer: a single zero-sum leg.
		e.Postings = []Posting{
			{Account: intent.From, Commodity: intent.Commodity, Amount: intent.Amount.Neg()},
			{Account: intent.To, Commodity: intent.Commodity, Amount: intent.Amount},
		}
		if intent.Provider != nil {
			e.RateContext = v.referenceRateContext(*intent.Provider, intent.Commodity, e.RateContext.AsOf)
		}
	} else {
		if err := ValidateCommodity(intent.ToCommodity); err != nil {
			return err
		}
		toAmount, rc, err := v.resolveQuoteLeg(intent, e.RateContext.AsOf)
		if err != nil {
			return err
		}
		e.RateContext = rc
		e.Postings = []Posting{
			{Account: intent.From, Commodity: intent.Commodity, Amount: intent.Amount.Neg()},
			{Account: intent.To, Commodity: intent.ToCommodity, Amount: toAmount},
		}
	}

	basis, err := v.resolveBasis(intent.Basis, intent.Amount, intent.Commodity, e.EffectiveAt)
	if err != nil {
		return err
	}
	e.Basis = basis
	return nil
}

// resolveQuoteLeg prices the destination leg of a cross-commodity transfer.
// An explicit destination amount wins and records the implied rate as a
// derived override; otherwise the rate comes from the override or the store,
// and the leg amount is computed from it.
func (v *Validator) resolveQuoteLeg(intent ActionIntent, asOf time.Time) (decimal.Decimal, RateContext, error) {
	rc := RateContext{Base: intent.Commodity, Quote: intent.ToCommodity, AsOf: asOf}

	if intent.ToAmount != nil {
		if !intent.ToAmount.IsPositive() {
			return decimal.Zero, rc, fmt.Errorf("destination amount %s: %w", intent.ToAmount, ErrNegativeAmount)
		}
		implied := intent.ToAmount.Div(intent.Amount)
		rc.Provider = "derived"
		if intent.Provider != nil {
			rc.Provider = intent.Provider.Name
			if intent.Provider.Override != nil {
				implied = *intent.Provider.Override
			}
		}
		rc.Override = &implied
		return *intent.ToAmount, rc, nil
	}

	if intent.Provider == nil {
		return decimal.Zero, rc, fmt.Errorf("conversion %s->%s needs a provider, an override or a destination amount: %w",
			intent.Commodity, intent.ToCommodity, ErrRateNotFound)
	}
	rc.Provider = intent.Provider.Name
	rc.Override = intent.Provider.Override
	rate, err := v.Rates.Resolve(*intent.Provider, intent.Commodity, intent.ToCommodity, asOf)
	if err != nil {
		return decimal.Zero, rc, err
	}
	return intent.Amount.Mul(rate), rc, nil
}

// referenceRateContext records which pair a provider annotation on a
// single-commodity event refers to: the event commodity priced in the
// reference commodity, unless they coincide.
func (v *Validator) referenceRateContext(ref ProviderRef, commodity string, asOf time.Time) RateContext {
	rc := RateContext{Provider: ref.Name, Override: ref.Override, AsOf: asOf}
	if commodity != v.referenceCommodity() {
		rc.Base = v.referenceCommodity()
		rc.Quote = commodity
	}
	return rc
}

func (v *Validator) buildBuy(e *Event, intent ActionIntent) error {
	if err := v.checkAmount(intent.Amount, intent.Commodity); err != nil {
		return err
	}
	if err := v.checkAccount(intent.From); err != nil {
		return err
	}

	e.Postings = []Posting{
		{Account: intent.From, Commodity: intent.Commodity, Amount: intent.Amount.Neg()},
	}
	credits, err := v.splitLegs(intent.ToSplits, intent.To, intent.Amount, intent.Commodity)
	if err != nil {
		return err
	}
	e.Postings = append(e.Postings, credits...)

	if intent.Provider != nil {
		e.RateContext = v.referenceRateContext(*intent.Provider, intent.Commodity, e.RateContext.AsOf)
	}
	basis, err := v.resolveBasis(intent.Basis, intent.Amount, intent.Commodity, e.EffectiveAt)
	if err != nil {
		return err
	}
	e.Basis = basis
	return nil
}

func (v *Validator) buildSell(e *Event, intent ActionIntent) error {
	if err := v.checkAmount(intent.Amount, intent.Commodity); err != nil {
		return err
	}
	if err := v.checkAccount(intent.To); err != nil {
		return err
	}

	from := intent.From
	if from == "" && len(intent.FromSplits) == 0 {
		// A sale's source defaults to the conventional holding account of
		// the commodity being sold.
		from = "assets:" + strings.ToLower(intent.Commodity)
	}

	debits, err := v.splitLegs(intent.FromSplits, from, intent.Amount, intent.Commodity)
	if err != nil {
		return err
	}
	for i := range debits {
		debits[i].Amount = debits[i].Amount.Neg()
	}
	e.Postings = debits

	if intent.ToCommodity == "" || intent.ToCommodity == intent.Commodity {
		e.Postings = append(e.Postings, Posting{Account: intent.To, Commodity: intent.Commodity, Amount: intent.Amount})
		if intent.Provider != nil {
			e.RateContext = v.referenceRateContext(*intent.Provider, intent.Commodity, e.RateContext.AsOf)
		}
	} else {
		if err := ValidateCommodity(intent.ToCommodity); err != nil {
			return err
		}
		toAmount, rc, err := v.resolveQuoteLeg(intent, e.RateContext.AsOf)
		if err != nil {
			return err
		}
		e.RateContext = rc
		e.Postings = append(e.Postings, Posting{Account: intent.To, Commodity: intent.ToCommodity, Amount: toAmount})
	}

	basis, err := v.resolveBasis(intent.Basis, intent.Amount, intent.Commodity, e.EffectiveAt)
	if err != nil {
		return err
	}
	e.Basis = basis
	return nil
}

// splitLegs expands repeated split legs, or falls back to a single leg on
// account. The split amounts must sum exactly to total.
func (v *Validator) splitLegs(splits []Split, account string, total decimal.Decimal, commodity string) ([]Posting, error) {
	if len(splits) == 0 {
		if err := v.checkAccount(account); err != nil {
			return nil, err
		}
		return []Posting{{Account: account, Commodity: commodity, Amount: total}}, nil
	}
	var sum decimal.Decimal
	postings := make([]Posting, 0, len(splits))
	for _, s := range splits {
		if err := v.checkAccount(s.Account); err != nil {
			return nil, err
		}
		if !s.Amount.IsPositive() {
			return nil, fmt.Errorf("split %s on %s: %w", s.Amount, s.Account, ErrNegativeAmount)
		}
		sum = sum.Add(s.Amount)
		postings = append(postings, Posting{Account: s.Account, Commodity: commodity, Amount: s.Amount})
	}
	if !sum.Equal(total) {
		return nil, fmt.Errorf("splits sum to %s, total is %s: %w", sum, total, ErrInvalidSplit)
	}
	return postings, nil
}

func (v *Validator) buildTag(e *Event, intent ActionIntent) error {
	if err := v.checkAccount(intent.Target); err != nil {
		return err
	}
	if intent.Basis == nil {
		return fmt.Errorf("tag requires a basis to set: %w", ErrBasisUnresolved)
	}
	if err := ValidateCommodity(intent.Commodity); err != nil {
		return err
	}
	// A revaluation without a stated quantity prices a single unit.
	amount := intent.Amount
	if amount.IsZero() {
		amount = decimal.NewFromInt(1)
	}
	basis, err := v.resolveBasis(intent.Basis, amount, intent.Commodity, e.EffectiveAt)
	if err != nil {
		return err
	}
	e.Target = intent.Target
	e.Basis = basis
	return nil
}

func (v *Validator) buildBudget(e *Event, intent ActionIntent) error {
	b := intent.Budget
	if b == nil {
		return fmt.Errorf("budget-admin intent carries no budget definition")
	}
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("budget name is required")
	}
	if err := v.checkAmount(b.Amount, b.Commodity); err != nil {
		return err
	}
	if b.Category != "" {
		if err := v.checkAccount(b.Category); err != nil {
			return err
		}
	}
	if b.Account != "" {
		if err := v.checkAccount(b.Account); err != nil {
			return err
		}
	}
	if rule := b.AutoReserve; rule != nil {
		if err := v.checkAccount(rule.Match); err != nil {
			return fmt.Errorf("auto-reserve match: %w", err)
		}
		if rule.CapCommodity == "" {
			rule.CapCommodity = b.Commodity
		}
		if err := v.checkAmount(rule.Cap, rule.CapCommodity); err != nil {
			return fmt.Errorf("auto-reserve cap: %w", err)
		}
	}
	def := *b
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	e.Budget = &def
	return nil
}

func (v *Validator) buildPiggy(e *Event, intent ActionIntent) error {
	p := intent.Piggy
	if p == nil {
		return fmt.Errorf("piggy-admin intent carries no piggy definition")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("piggy name is required")
	}
	if err := v.checkAmount(p.Target, p.Commodity); err != nil {
		return err
	}
	if err := v.checkAccount(p.Source); err != nil {
		return err
	}
	def := *p
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	e.Piggy = &def
	return nil
}

func (v *Validator) buildPiggyFund(e *Event, intent ActionIntent) error {
	f := intent.PiggyFund
	if f == nil {
		return fmt.Errorf("piggy-fund intent carries no funding")
	}
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("piggy name is required")
	}
	if err := v.checkAmount(f.Amount, f.Commodity); err != nil {
		return err
	}
	fund := *f
	e.PiggyFund = &fund
	return nil
}
