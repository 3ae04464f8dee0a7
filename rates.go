package bankero

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RateRecord is one stored exchange rate: a provider's value for a
// (base, quote) pair effective as of a timestamp. Records are append-only;
// Seq is the insertion sequence assigned by the store and breaks ties
// between records sharing the same as-of time.
type RateRecord struct {
	Provider string
	Base     string
	Quote    string
	Value    decimal.Decimal
	AsOf     time.Time
	Seq      int64
}

// RateSource is the read-only rate store the core consults. RateAsOf returns
// the eligible record with the greatest as-of time not after asOf,
// preferring the most recently inserted on ties, and ok=false when no
// eligible record exists. Writing rates belongs to the rate-store adapter.
type RateSource interface {
	RateAsOf(provider, base, quote string, asOf time.Time) (RateRecord, bool, error)
}

// RateResolver resolves the rate for a cross-commodity intent: an explicit
// manual override is used verbatim, otherwise the stored last-known value is
// looked up. Direct pairs only; no triangulated conversion.
type RateResolver struct {
	Source RateSource
}

// Resolve returns the rate value for the (base, quote) pair at asOf.
func (r *RateResolver) Resolve(ref ProviderRef, base, quote string, asOf time.Time) (decimal.Decimal, error) {
	if ref.Override != nil {
		if !ref.Override.IsPositive() {
			return decimal.Zero, fmt.Errorf("override rate %s for %s/%s: %w", ref.Override, base, quote, ErrNegativeAmount)
		}
		return *ref.Override, nil
	}
	if r.Source == nil {
		return decimal.Zero, fmt.Errorf("%s/%s@%s via %s: no rate store: %w", base, quote, asOf.Format(time.RFC3339), ref.Name, ErrRateNotFound)
	}
	rec, ok, err := r.Source.RateAsOf(ref.Name, base, quote, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate lookup %s/%s via %s: %w", base, quote, ref.Name, err)
	}
	if !ok {
		return decimal.Zero, fmt.Errorf("%s/%s as of %s via %s: %w", base, quote, asOf.Format(time.RFC3339), ref.Name, ErrRateNotFound)
	}
	return rec.Value, nil
}

// RateTable is an in-memory RateSource. It keeps every inserted record (the
// table is append-only, lookups never mutate it) and implements the same
// last-known-value semantics as the SQL store. It is the store of choice for
// tests and for ephemeral ledgers.
type RateTable struct {
	records []RateRecord
	nextSeq int64
}

// NewRateTable returns an empty in-memory rate table.
func NewRateTable() *RateTable { return &RateTable{} }

// Set appends a rate record. Earlier records for the same key are kept;
// lookups prefer the latest insertion on as-of ties.
func (t *RateTable) Set(provider, base, quote string, value decimal.Decimal, asOf time.Time) RateRecord {
	t.nextSeq++
	rec := RateRecord{
		Provider: provider,
		Base:     base,
		Quote:    quote,
		Value:    value,
		AsOf:     asOf.UTC(),
		Seq:      t.nextSeq,
	}
	t.records = append(t.records, rec)
	return rec
}

// RateAsOf implements RateSource.
func (t *RateTable) RateAsOf(provider, base, quote string, asOf time.Time) (RateRecord, bool, error) {
	var best RateRecord
	var found bool
	for _, rec := range t.records {
		if rec.Provider != provider || rec.Base != base || rec.Quote != quote {
			continue
		}
		if rec.AsOf.After(asOf) {
			continue
		}
		if !found || rec.AsOf.After(best.AsOf) || (rec.AsOf.Equal(best.AsOf) && rec.Seq > best.Seq) {
			best, found = rec, true
		}
	}
	return best, found, nil
}
