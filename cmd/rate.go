package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/JoCarrasco/bankero/renderer"
)

type rateSetCmd struct {
	provider string
	date     string
}

func (*rateSetCmd) Name() string     { return "rate-set" }
func (*rateSetCmd) Synopsis() string { return "record an exchange rate observation" }
func (*rateSetCmd) Usage() string {
	return `bankero rate-set -provider <name> <base> <quote> <value> [-date <time>]

  Appends a rate observation to the workspace rate table. Earlier
  observations are kept: corrections are new records, and lookups use the
  last-known value not after the requested time.

Usage Examples:
$ bankero rate-set -provider bcv USD VES 45.2
$ bankero rate-set -provider bcv -date 2026-02-01 USD VES 44.8
`
}

func (p *rateSetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.provider, "provider", "", "Rate provider the observation is attributed to (required).")
	f.StringVar(&p.date, "date", "", "As-of time of the observation (defaults to now).")
}

func (p *rateSetCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.provider == "" {
		fmt.Fprintln(os.Stderr, "Error: -provider is required")
		return subcommands.ExitUsageError
	}
	if f.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "Error: rate-set takes base, quote and value, e.g. USD VES 45.2")
		return subcommands.ExitUsageError
	}
	base := strings.ToUpper(f.Arg(0))
	quote := strings.ToUpper(f.Arg(1))
	value, err := decimal.NewFromString(f.Arg(2))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid rate value %q: %v\n", f.Arg(2), err)
		return subcommands.ExitUsageError
	}
	if !value.IsPositive() {
		fmt.Fprintf(os.Stderr, "Error: rate value must be positive, got %s\n", value)
		return subcommands.ExitUsageError
	}
	asOf, err := parseWhen(p.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if asOf.IsZero() {
		asOf = nowUTC()
	}

	s, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	rec, err := s.SetRate(p.provider, base, quote, value, asOf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s/%s = %s via %s as of %s\n", base, quote, value, p.provider, rec.AsOf.Format(time.RFC3339))
	return subcommands.ExitSuccess
}

type rateListCmd struct {
	provider string
}

func (*rateListCmd) Name() string     { return "rate-list" }
func (*rateListCmd) Synopsis() string { return "list stored exchange rates" }
func (*rateListCmd) Usage() string {
	return `bankero rate-list [-provider <name>]

  Lists the stored rate observations in as-of order.
`
}

func (p *rateListCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.provider, "provider", "", "Only rates from this provider.")
}

func (p *rateListCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	records, err := s.ListRates(p.provider)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RatesMarkdown(records))
	return subcommands.ExitSuccess
}

type rateImportCmd struct {
	file     string
	provider string
	base     string
	quote    string
	path     string
	dateKey  string
	valueKey string
}

func (*rateImportCmd) Name() string     { return "rate-import" }
func (*rateImportCmd) Synopsis() string { return "import exchange rates from a JSON file" }
func (*rateImportCmd) Usage() string {
	return `bankero rate-import -file <json> -provider <name> -base <c> -quote <c> [-path <jsonpath>]

  Imports rate observations from a JSON document, as downloaded from a
  provider API. The JSONPath expression selects the entries: either an
  object mapping dates to values, or an array of objects read through
  -date-key and -value-key.

Usage Examples:
$ bankero rate-import -file bcv.json -provider bcv -base USD -quote VES -path '$.rates'
$ bankero rate-import -file ecb.json -provider ecb -base EUR -quote USD -path '$.observations[*]' -date-key date -value-key rate
`
}

func (p *rateImportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.file, "file", "", "JSON file to import (required).")
	f.StringVar(&p.provider, "provider", "", "Provider the observations are attributed to (required).")
	f.StringVar(&p.base, "base", "", "Base commodity of the pair (required).")
	f.StringVar(&p.quote, "quote", "", "Quote commodity of the pair (required).")
	f.StringVar(&p.path, "path", "$", "JSONPath selecting the rate entries.")
	f.StringVar(&p.dateKey, "date-key", "date", "Key holding the as-of date in array entries.")
	f.StringVar(&p.valueKey, "value-key", "value", "Key holding the rate value in array entries.")
}

func (p *rateImportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.file == "" || p.provider == "" || p.base == "" || p.quote == "" {
		fmt.Fprintln(os.Stderr, "Error: -file, -provider, -base and -quote are required")
		return subcommands.ExitUsageError
	}

	raw, err := os.ReadFile(p.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", p.file, err)
		return subcommands.ExitFailure
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %q: %v\n", p.file, err)
		return subcommands.ExitFailure
	}
	selected, err := jsonpath.Get(p.path, doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error evaluating %q: %v\n", p.path, err)
		return subcommands.ExitFailure
	}

	entries, err := p.collect(selected)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no rate entries matched")
		return subcommands.ExitSuccess
	}

	s, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	base := strings.ToUpper(p.base)
	quote := strings.ToUpper(p.quote)
	for _, entry := range entries {
		if _, err := s.SetRate(p.provider, base, quote, entry.value, entry.asOf); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	fmt.Printf("Imported %d %s/%s rates via %s\n", len(entries), base, quote, p.provider)
	return subcommands.ExitSuccess
}

type rateEntry struct {
	asOf  time.Time
	value decimal.Decimal
}

// collect normalizes the selected JSON into rate entries. A map is read as
// date->value pairs; an array as objects carrying the configured keys.
func (p *rateImportCmd) collect(selected interface{}) ([]rateEntry, error) {
	switch v := selected.(type) {
	case map[string]interface{}:
		var entries []rateEntry
		for dateStr, raw := range v {
			entry, err := newRateEntry(dateStr, raw)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		return entries, nil
	case []interface{}:
		var entries []rateEntry
		for _, item := range v {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("rate entry %v is not an object", item)
			}
			dateStr, ok := obj[p.dateKey].(string)
			if !ok {
				return nil, fmt.Errorf("rate entry is missing the %q date key", p.dateKey)
			}
			entry, err := newRateEntry(dateStr, obj[p.valueKey])
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("selection is neither an object nor an array")
	}
}

func newRateEntry(dateStr string, raw interface{}) (rateEntry, error) {
	asOf, err := parseWhen(dateStr)
	if err != nil {
		return rateEntry{}, err
	}
	var value decimal.Decimal
	switch n := raw.(type) {
	case float64:
		value = decimal.NewFromFloat(n)
	case string:
		value, err = decimal.NewFromString(n)
		if err != nil {
			return rateEntry{}, fmt.Errorf("invalid rate value %q: %w", n, err)
		}
	default:
		return rateEntry{}, fmt.Errorf("rate value %v is neither a number nor a string", raw)
	}
	if !value.IsPositive() {
		return rateEntry{}, fmt.Errorf("rate value must be positive, got %s", value)
	}
	return rateEntry{asOf: asOf, value: value}, nil
}
