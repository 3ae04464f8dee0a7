package bankero

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyString(t *testing.T) {
	tests := []struct {
		name string
		m    Money
		want string
	}{
		{"usd", M(1500, "USD"), "$1,500.00"},
		{"usd cents", M(50.25, "USD"), "$50.25"},
		{"negative usd", M(-50, "USD"), "-$50.00"},
		{"asset symbol", M(decimal.RequireFromString("0.5"), "BTC"), "0.5 BTC"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.m.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMoneySignedString(t *testing.T) {
	if got := M(250, "USD").SignedString(); got != "+$250.00" {
		t.Errorf("positive = %q, want +$250.00", got)
	}
	if got := M(-50, "USD").SignedString(); got != "-$50.00" {
		t.Errorf("negative = %q, want -$50.00", got)
	}
	if got := M(0, "USD").SignedString(); got != "-" {
		t.Errorf("zero = %q, want -", got)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := M(100, "USD")
	b := M(40, "USD")
	if got := a.Sub(b); !got.Equal(M(60, "USD")) {
		t.Errorf("Sub = %s", got)
	}
	if got := a.Add(b.Neg()); !got.Equal(M(60, "USD")) {
		t.Errorf("Add(Neg) = %s", got)
	}
	// The empty commodity is weak: it takes the other side's.
	if got := (Money{}).Add(a); got.Commodity() != "USD" {
		t.Errorf("zero value commodity = %q, want USD", got.Commodity())
	}
}

func TestMoneyCommodityMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("adding USD and VES did not panic")
		}
	}()
	M(1, "USD").Add(M(1, "VES"))
}

func TestValidateCommodity(t *testing.T) {
	for _, code := range []string{"USD", "VES", "EUR", "BTC", "MILES"} {
		if err := ValidateCommodity(code); err != nil {
			t.Errorf("ValidateCommodity(%q) = %v, want nil", code, err)
		}
	}
	for _, code := range []string{"", "usd", "U", "TOOLONGSYMBOL"} {
		err := ValidateCommodity(code)
		if !errors.Is(err, ErrUnknownCommodity) {
			t.Errorf("ValidateCommodity(%q) = %v, want ErrUnknownCommodity", code, err)
		}
	}
}
