package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/JoCarrasco/bankero"
)

// eventFlags are the flags shared by every event-creating command.
type eventFlags struct {
	date     string
	asOf     string
	note     string
	category string
	tags     string
	via      string
	basis    string
}

func (p *eventFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&p.date, "date", "", "Effective date of the event (defaults to now).")
	f.StringVar(&p.asOf, "as-of", "", "Rate resolution time (defaults to the effective date).")
	f.StringVar(&p.note, "note", "", "Free-form note.")
	f.StringVar(&p.category, "category", "", "Hierarchical category, e.g. expenses:food.")
	f.StringVar(&p.tags, "tag", "", "Comma-separated tags.")
	f.StringVar(&p.via, "via", "", "Rate provider token: @bcv, or @bcv:45.2 for a manual override.")
	f.StringVar(&p.basis, "basis", "", "Intrinsic value: a fixed amount like 120000USD, or @provider.")
}

// intent assembles the shared parts of an ActionIntent from the flags.
func (p *eventFlags) intent(action bankero.Action) (bankero.ActionIntent, error) {
	intent := bankero.ActionIntent{
		Action:   action,
		Note:     p.note,
		Category: p.category,
		Tags:     parseTags(p.tags),
	}
	var err error
	if intent.EffectiveAt, err = parseWhen(p.date); err != nil {
		return intent, err
	}
	if intent.AsOf, err = parseWhen(p.asOf); err != nil {
		return intent, err
	}
	if intent.Provider, err = parseProvider(p.via); err != nil {
		return intent, err
	}
	if intent.Basis, err = parseBasis(p.basis); err != nil {
		return intent, err
	}
	return intent, nil
}

// submit validates, appends and reports one event.
func submit(intent bankero.ActionIntent) subcommands.ExitStatus {
	ledger, s, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	e, res, err := ledger.Submit(intent)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if res.AlreadyPresent {
		fmt.Printf("Event %s was already recorded at seq %d\n", e.ID, res.Seq)
		return subcommands.ExitSuccess
	}
	fmt.Printf("Recorded %s event %s at seq %d\n", e.Action, e.ID, res.Seq)
	return subcommands.ExitSuccess
}

type depositCmd struct {
	eventFlags
	from string
	to   string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "record money entering an account" }
func (*depositCmd) Usage() string {
	return `bankero deposit <amount> [-from <account>] [-to <account>] [flags]

  Records a deposit: the amount leaves the source (an external party by
  default) and credits the destination account.

Usage Examples:
$ bankero deposit 1500USD -to assets:bank -from external:employer
$ bankero deposit 200USD -to assets:cash -category income:gift
`
}

func (p *depositCmd) SetFlags(f *flag.FlagSet) {
	p.setFlags(f)
	f.StringVar(&p.from, "from", "external", "Source account.")
	f.StringVar(&p.to, "to", "assets:bank", "Destination account.")
}

func (p *depositCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: deposit takes exactly one amount, e.g. 1500USD")
		return subcommands.ExitUsageError
	}
	amount, commodity, err := parseMoney(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent, err := p.intent(bankero.ActionDeposit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent.Amount = amount
	intent.Commodity = commodity
	intent.From = p.from
	intent.To = p.to
	return submit(intent)
}

type moveCmd struct {
	eventFlags
	from     string
	to       string
	toAmount string
}

func (*moveCmd) Name() string     { return "move" }
func (*moveCmd) Synopsis() string { return "transfer between accounts, optionally across commodities" }
func (*moveCmd) Usage() string {
	return `bankero move <amount> -from <account> -to <account> [-to-amount <amount>] [flags]

  Moves value between two accounts. When the destination is in another
  commodity, the conversion is priced by a provider (-via @name), a manual
  override (-via @name:rate), or an explicit destination amount (-to-amount),
  which records the implied rate.

Usage Examples:
$ bankero move 500USD -from assets:bank -to assets:cash
$ bankero move 100USD -from assets:bank -to assets:efectivo-ves -to-amount 4520VES
$ bankero move 100USD -from assets:bank -to assets:efectivo-ves -via @bcv
`
}

func (p *moveCmd) SetFlags(f *flag.FlagSet) {
	p.setFlags(f)
	f.StringVar(&p.from, "from", "", "Source account (required).")
	f.StringVar(&p.to, "to", "", "Destination account (required).")
	f.StringVar(&p.toAmount, "to-amount", "", "Explicit destination amount, e.g. 4520VES.")
}

func (p *moveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: move takes exactly one amount, e.g. 500USD")
		return subcommands.ExitUsageError
	}
	amount, commodity, err := parseMoney(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent, err := p.intent(bankero.ActionMove)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent.Amount = amount
	intent.Commodity = commodity
	intent.From = p.from
	intent.To = p.to
	if p.toAmount != "" {
		toAmount, toCommodity, err := parseMoney(p.toAmount)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		intent.ToAmount = &toAmount
		intent.ToCommodity = toCommodity
	}
	return submit(intent)
}

type buyCmd struct {
	eventFlags
	from   string
	to     string
	splits splitList
}

// splitList collects repeated -split flags.
type splitList []bankero.Split

func (s *splitList) String() string { return fmt.Sprint([]bankero.Split(*s)) }
func (s *splitList) Set(value string) error {
	split, err := parseSplit(value)
	if err != nil {
		return err
	}
	*s = append(*s, split)
	return nil
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase paid from an account" }
func (*buyCmd) Usage() string {
	return `bankero buy <amount> [-from <account>] [-to <account> | -split account:amount ...] [flags]

  Records a purchase: the amount leaves the paying account and lands on one
  destination, or on several -split legs that must sum to the amount.

Usage Examples:
$ bankero buy 50USD -from assets:bank -to expenses:food -category expenses:food
$ bankero buy 120USD -from assets:bank -split expenses:food:80 -split expenses:household:40
`
}

func (p *buyCmd) SetFlags(f *flag.FlagSet) {
	p.setFlags(f)
	f.StringVar(&p.from, "from", "assets:bank", "Paying account.")
	f.StringVar(&p.to, "to", "", "Destination account (ignored when -split is used).")
	f.Var(&p.splits, "split", "Destination leg account:amount, repeatable.")
}

func (p *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: buy takes exactly one amount, e.g. 50USD")
		return subcommands.ExitUsageError
	}
	amount, commodity, err := parseMoney(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent, err := p.intent(bankero.ActionBuy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent.Amount = amount
	intent.Commodity = commodity
	intent.From = p.from
	intent.To = p.to
	intent.ToSplits = p.splits
	return submit(intent)
}

type sellCmd struct {
	eventFlags
	from     string
	to       string
	toAmount string
	splits   splitList
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale crediting an account" }
func (*sellCmd) Usage() string {
	return `bankero sell <amount> [-from <account> | -split account:amount ...] [-to <account>] [flags]

  Records a sale: the amount leaves the holding account (defaulting to
  assets:<commodity>) and the proceeds credit the destination, optionally in
  another commodity priced like a move.

Usage Examples:
$ bankero sell 0.5BTC -to assets:bank -to-amount 20000USD
$ bankero sell 300USD -from assets:inventory -to assets:bank
`
}

func (p *sellCmd) SetFlags(f *flag.FlagSet) {
	p.setFlags(f)
	f.StringVar(&p.from, "from", "", "Holding account (defaults to assets:<commodity>).")
	f.StringVar(&p.to, "to", "assets:bank", "Account receiving the proceeds.")
	f.StringVar(&p.toAmount, "to-amount", "", "Explicit proceeds amount, e.g. 20000USD.")
	f.Var(&p.splits, "split", "Source leg account:amount, repeatable.")
}

func (p *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: sell takes exactly one amount, e.g. 0.5BTC")
		return subcommands.ExitUsageError
	}
	amount, commodity, err := parseMoney(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent, err := p.intent(bankero.ActionSell)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent.Amount = amount
	intent.Commodity = commodity
	intent.From = p.from
	intent.To = p.to
	intent.FromSplits = p.splits
	if p.toAmount != "" {
		toAmount, toCommodity, err := parseMoney(p.toAmount)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		intent.ToAmount = &toAmount
		intent.ToCommodity = toCommodity
	}
	return submit(intent)
}

type tagCmd struct {
	eventFlags
	amount string
}

func (*tagCmd) Name() string     { return "tag" }
func (*tagCmd) Synopsis() string { return "attach metadata or an intrinsic value to an account" }
func (*tagCmd) Usage() string {
	return `bankero tag <account> -basis <value> [-amount <amount>] [flags]

  Records a metadata event against an account without moving value. The
  basis states the account's intrinsic value: a fixed amount (120000USD) or
  a provider (@bcv) valued at the effective time.

Usage Examples:
$ bankero tag assets:house -basis 250000USD
$ bankero tag assets:btc -amount 0.5BTC -basis @kraken
`
}

func (p *tagCmd) SetFlags(f *flag.FlagSet) {
	p.setFlags(f)
	f.StringVar(&p.amount, "amount", "", "Quantity being valued, e.g. 0.5BTC (defaults to one unit).")
}

func (p *tagCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: tag takes exactly one account")
		return subcommands.ExitUsageError
	}
	intent, err := p.intent(bankero.ActionTag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent.Target = f.Arg(0)
	intent.Commodity = "USD"
	if p.amount != "" {
		amount, commodity, err := parseMoney(p.amount)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		intent.Amount = amount
		intent.Commodity = commodity
	} else if intent.Basis != nil && intent.Basis.Commodity != "" {
		intent.Commodity = intent.Basis.Commodity
	}
	return submit(intent)
}
