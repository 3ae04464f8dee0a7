package bankero

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(d int) time.Time { return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRateTableLastKnownValue(t *testing.T) {
	table := NewRateTable()
	table.Set("bcv", "USD", "VES", dec("44.8"), day(1))
	table.Set("bcv", "USD", "VES", dec("45.2"), day(3))
	// A correction for the same as-of time: the later insertion wins.
	table.Set("bcv", "USD", "VES", dec("45.5"), day(3))

	tests := []struct {
		name  string
		asOf  time.Time
		want  string
		found bool
	}{
		{"before any record", day(1).Add(-time.Minute), "", false},
		{"exactly the first", day(1), "44.8", true},
		{"gap uses last known", day(2), "44.8", true},
		{"tie broken by insertion", day(3), "45.5", true},
		{"far future", day(28), "45.5", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, ok, err := table.RateAsOf("bcv", "USD", "VES", tc.asOf)
			if err != nil {
				t.Fatalf("RateAsOf: %v", err)
			}
			if ok != tc.found {
				t.Fatalf("found = %v, want %v", ok, tc.found)
			}
			if ok && !rec.Value.Equal(dec(tc.want)) {
				t.Errorf("value = %s, want %s", rec.Value, tc.want)
			}
		})
	}
}

func TestRateTableIsolation(t *testing.T) {
	table := NewRateTable()
	table.Set("bcv", "USD", "VES", dec("45.2"), day(1))

	// Other providers and the inverse pair must not leak through; there is
	// no triangulation.
	if _, ok, _ := table.RateAsOf("ecb", "USD", "VES", day(2)); ok {
		t.Error("provider must be part of the lookup key")
	}
	if _, ok, _ := table.RateAsOf("bcv", "VES", "USD", day(2)); ok {
		t.Error("pairs are directional")
	}
}

func TestResolveOverrideWins(t *testing.T) {
	table := NewRateTable()
	table.Set("bcv", "USD", "VES", dec("45.2"), day(1))
	r := &RateResolver{Source: table}

	override := dec("50")
	got, err := r.Resolve(ProviderRef{Name: "bcv", Override: &override}, "USD", "VES", day(2))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.Equal(override) {
		t.Errorf("override resolve = %s, want %s", got, override)
	}

	bad := dec("-1")
	if _, err := r.Resolve(ProviderRef{Name: "bcv", Override: &bad}, "USD", "VES", day(2)); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("negative override error = %v, want ErrNegativeAmount", err)
	}
}

func TestResolveMissingRate(t *testing.T) {
	r := &RateResolver{Source: NewRateTable()}
	_, err := r.Resolve(ProviderRef{Name: "bcv"}, "USD", "VES", day(1))
	if !errors.Is(err, ErrRateNotFound) {
		t.Errorf("error = %v, want ErrRateNotFound", err)
	}

	empty := &RateResolver{}
	if _, err := empty.Resolve(ProviderRef{Name: "bcv"}, "USD", "VES", day(1)); !errors.Is(err, ErrRateNotFound) {
		t.Errorf("no source error = %v, want ErrRateNotFound", err)
	}
}
