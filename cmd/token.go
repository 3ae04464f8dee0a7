package cmd

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoCarrasco/bankero"
)

// moneyToken matches amount tokens like "1500USD" or "0.5BTC".
var moneyToken = regexp.MustCompile(`^(-?[0-9]+(?:\.[0-9]+)?)([A-Za-z][A-Za-z0-9]{1,11})$`)

// parseMoney parses an "<amount><COMMODITY>" token.
func parseMoney(s string) (decimal.Decimal, string, error) {
	m := moneyToken.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return decimal.Zero, "", fmt.Errorf("invalid amount %q, expected e.g. 1500USD", s)
	}
	value, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return value, strings.ToUpper(m[2]), nil
}

// parseProvider parses a provider token: "@bcv" consults the stored rates of
// provider bcv, "@bcv:45.2" records a manual override attributed to it.
func parseProvider(s string) (*bankero.ProviderRef, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "@") {
		return nil, fmt.Errorf("invalid provider %q, expected @name or @name:rate", s)
	}
	name, rate, hasRate := strings.Cut(s[1:], ":")
	if name == "" {
		return nil, fmt.Errorf("invalid provider %q: empty name", s)
	}
	ref := &bankero.ProviderRef{Name: name}
	if hasRate {
		value, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("invalid override rate in %q: %w", s, err)
		}
		ref.Override = &value
	}
	return ref, nil
}

// parseBasis parses a basis token: "120000USD" states a fixed intrinsic
// value, "@bcv" asks the provider to value the event at its effective time.
func parseBasis(s string) (*bankero.BasisSpec, error) {
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "@") {
		ref, err := parseProvider(s)
		if err != nil {
			return nil, err
		}
		if ref.Override != nil {
			return nil, fmt.Errorf("basis provider %q cannot carry an override rate", s)
		}
		return &bankero.BasisSpec{Provider: ref.Name}, nil
	}
	amount, commodity, err := parseMoney(s)
	if err != nil {
		return nil, err
	}
	return &bankero.BasisSpec{Amount: amount, Commodity: commodity}, nil
}

// parseSplit parses an "account:amount" split leg. Accounts are hierarchical
// and contain colons themselves, so the amount is taken after the last one.
func parseSplit(s string) (bankero.Split, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return bankero.Split{}, fmt.Errorf("invalid split %q, expected account:amount", s)
	}
	amount, err := decimal.NewFromString(s[i+1:])
	if err != nil {
		return bankero.Split{}, fmt.Errorf("invalid split amount in %q: %w", s, err)
	}
	return bankero.Split{Account: s[:i], Amount: amount}, nil
}

// parseWhen parses a timestamp flag: a plain date or a full RFC 3339 time.
// An empty value returns the zero time, leaving the default to the core.
func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected YYYY-MM-DD or RFC 3339: %w", s, err)
	}
	return t.UTC(), nil
}

// parseTags splits a comma-separated tag list.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
