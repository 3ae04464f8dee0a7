package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/JoCarrasco/bankero"
	"github.com/JoCarrasco/bankero/renderer"
)

type piggyCmd struct {
	eventFlags
	name   string
	target string
	source string
}

func (*piggyCmd) Name() string     { return "piggy" }
func (*piggyCmd) Synopsis() string { return "create or update a piggy bank" }
func (*piggyCmd) Usage() string {
	return `bankero piggy -name <name> -target <amount> -source <account> [flags]

  Creates a savings goal funded virtually against a source account. Funding
  a piggy reserves part of the source account's effective balance without
  moving any money.

Usage Examples:
$ bankero piggy -name Vacation -target 5000USD -source assets:savings
`
}

func (p *piggyCmd) SetFlags(f *flag.FlagSet) {
	p.setFlags(f)
	f.StringVar(&p.name, "name", "", "Piggy bank name (required).")
	f.StringVar(&p.target, "target", "", "Savings target, e.g. 5000USD.")
	f.StringVar(&p.source, "source", "", "Account the funded amount is reserved against.")
}

func (p *piggyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required")
		return subcommands.ExitUsageError
	}

	ledger, s, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	events, err := ledger.Events()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var change bankero.PiggyChange
	existing, found := bankero.PiggyByName(events, p.name)
	if found {
		change = existing.PiggyChange
	}
	change.Name = p.name
	if p.target != "" {
		change.Target, change.Commodity, err = parseMoney(p.target)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}
	if p.source != "" {
		change.Source = p.source
	}

	intent, err := p.intent(bankero.ActionPiggy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent.Piggy = &change

	e, res, err := ledger.Submit(intent)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	verb := "Created"
	if found {
		verb = "Updated"
	}
	fmt.Printf("%s piggy %q (event %s at seq %d)\n", verb, p.name, e.ID, res.Seq)
	return subcommands.ExitSuccess
}

type piggyFundCmd struct {
	eventFlags
}

func (*piggyFundCmd) Name() string     { return "piggy-fund" }
func (*piggyFundCmd) Synopsis() string { return "virtually fund a piggy bank" }
func (*piggyFundCmd) Usage() string {
	return `bankero piggy-fund <name> <amount> [flags]

  Reserves an additional amount of the piggy's source account. The funding
  event carries no postings: actual balances are untouched.

Usage Examples:
$ bankero piggy-fund Vacation 500USD
`
}

func (p *piggyFundCmd) SetFlags(f *flag.FlagSet) { p.setFlags(f) }

func (p *piggyFundCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: piggy-fund takes a name and an amount, e.g. piggy-fund Vacation 500USD")
		return subcommands.ExitUsageError
	}
	name := f.Arg(0)
	amount, commodity, err := parseMoney(f.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	ledger, s, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	events, err := ledger.Events()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if _, found := bankero.PiggyByName(events, name); !found {
		fmt.Fprintf(os.Stderr, "Error: no piggy named %q\n", name)
		return subcommands.ExitFailure
	}

	intent, err := p.intent(bankero.ActionPiggyFund)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent.PiggyFund = &bankero.PiggyFunding{Name: name, Amount: amount, Commodity: commodity}

	e, res, err := ledger.Submit(intent)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Funded piggy %q (event %s at seq %d)\n", name, e.ID, res.Seq)
	return subcommands.ExitSuccess
}

type piggyStatusCmd struct{}

func (*piggyStatusCmd) Name() string     { return "piggy-status" }
func (*piggyStatusCmd) Synopsis() string { return "show the funding status of the piggy banks" }
func (*piggyStatusCmd) Usage() string {
	return `bankero piggy-status

  Shows every piggy bank's funded amount, target and progress.
`
}

func (*piggyStatusCmd) SetFlags(*flag.FlagSet) {}

func (p *piggyStatusCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, s, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	piggies, err := ledger.Piggies()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PiggyMarkdown(piggies))
	return subcommands.ExitSuccess
}
