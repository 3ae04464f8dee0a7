package bankero

import (
	"fmt"
	"time"
)

// MonthFormat is the format used to represent months as strings.
const MonthFormat = "2006-01"

// Month represents a calendar month, the natural scope of budgets and
// periodic reports.
type Month struct {
	y int
	m time.Month
}

// NewMonth returns the month containing the given year and month.
func NewMonth(year int, month time.Month) Month { return Month{y: year, m: month} }

// MonthOf returns the month containing t (in UTC).
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{y: u.Year(), m: u.Month()}
}

// ParseMonth parses a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthFormat, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", s, err)
	}
	return Month{y: t.Year(), m: t.Month()}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.y, m.m)
}

// IsZero returns true if the month is the zero value.
func (m Month) IsZero() bool { return m.y == 0 && m.m == 0 }

// MarshalText implements encoding.TextMarshaler. The zero month marshals to
// the empty string.
func (m Month) MarshalText() ([]byte, error) {
	if m.IsZero() {
		return []byte{}, nil
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Start returns the first instant of the month in UTC.
func (m Month) Start() time.Time {
	return time.Date(m.y, m.m, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following month.
func (m Month) Next() Month {
	if m.m == time.December {
		return Month{y: m.y + 1, m: time.January}
	}
	return Month{y: m.y, m: m.m + 1}
}

// Contains reports whether t falls within the month.
func (m Month) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(m.Start()) && u.Before(m.Next().Start())
}

// Range represents a time interval. A zero From or To leaves that side open.
type Range struct {
	From time.Time
	To   time.Time
}

// NewRange returns the closed interval [from, to].
func NewRange(from, to time.Time) Range { return Range{From: from, To: to} }

// IsZero returns true when both bounds are open.
func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// Contains reports whether t falls within the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}
