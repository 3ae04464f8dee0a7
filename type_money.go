package bankero

import (
	"fmt"
	"regexp"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a signed amount of a single commodity (a currency or an
// asset symbol).
type Money struct {
	value decimal.Decimal
	cur   string
}

func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, commodity string) Money {
	return Money{value: newDecimal(value), cur: commodity}
}

func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	}
	return decimal.Zero
}

func (m Money) Commodity() string       { return m.cur }
func (m Money) Amount() decimal.Decimal { return m.value }

func (m Money) IsZero() bool          { return m.value.IsZero() }
func (m Money) IsPositive() bool      { return m.value.IsPositive() }
func (m Money) IsNegative() bool      { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool    { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) Neg() Money            { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Add(n Money) Money     { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money     { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }
func (m Money) LessThan(n Money) bool { return m.value.LessThan(n.value) }

// makes the "" commodity totally weak.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("commodity mismatch " + a.cur + "!=" + b.cur)
	}
	return a.cur
}

// String formats the amount with the ISO currency formatter when the
// commodity is a known currency, and as "<amount> <commodity>" otherwise
// (asset symbols keep their full precision).
func (m Money) String() string {
	c := money.GetCurrency(m.cur)
	if c == nil {
		return m.value.String() + " " + m.cur
	}
	dec := m.value.Shift(int32(c.Fraction))
	return c.Formatter().Format(dec.IntPart())
}

// SignedString is like String but always carries an explicit sign.
// 0 is represented as a "-".
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// commoditySymbol accepts upper-case symbols for commodities that are not ISO
// currencies (crypto tickers, loyalty points, ...).
var commoditySymbol = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,11}$`)

// ValidateCommodity reports whether code is a usable commodity: either a
// currency known to the ISO registry or a plain upper-case asset symbol.
func ValidateCommodity(code string) error {
	if code == "" {
		return fmt.Errorf("empty commodity: %w", ErrUnknownCommodity)
	}
	if money.GetCurrency(code) != nil {
		return nil
	}
	if commoditySymbol.MatchString(code) {
		return nil
	}
	return fmt.Errorf("commodity %q: %w", code, ErrUnknownCommodity)
}
