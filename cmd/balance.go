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

type balanceCmd struct {
	month string
	asOf  string
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show actual, reserved and effective balances" }
func (*balanceCmd) Usage() string {
	return `bankero balance [<account>] [-month YYYY-MM]

  Replays the journal and shows, per account and commodity, the actual
  balance, the amount virtually reserved by budgets and piggy banks, and the
  effective balance that is really free to spend. -month scopes which
  monthly budgets reserve; the actual balance always covers the whole
  history.

Usage Examples:
$ bankero balance
$ bankero balance assets:bank -month 2026-02
`
}

func (p *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.month, "month", "", "Month scoping monthly budgets (YYYY-MM).")
	f.StringVar(&p.asOf, "as-of", "", "Balances as they stood at this time (defaults to the full history).")
}

func (p *balanceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: balance takes at most one account prefix")
		return subcommands.ExitUsageError
	}

	scope := bankero.Scope{Account: f.Arg(0)}
	if p.month != "" {
		var err error
		scope.Month, err = bankero.ParseMonth(p.month)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}
	asOf, err := parseWhen(p.asOf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	scope.AsOf = asOf

	ledger, s, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	views, err := ledger.Balances(scope)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.BalanceMarkdown(views, scope))
	return subcommands.ExitSuccess
}

type reportCmd struct {
	by        string
	month     string
	start     string
	end       string
	account   string
	category  string
	tag       string
	commodity string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "aggregate events by account, category, commodity or month" }
func (*reportCmd) Usage() string {
	return `bankero report [-by <dimension>] [filter flags]

  Filters the journal and aggregates the matching postings along one
  dimension: account (default), category, commodity or month.

Usage Examples:
$ bankero report -by category -month 2026-02
$ bankero report -by month -category expenses:food
$ bankero report -account assets:bank -s 2026-01-01 -e 2026-03-31
`
}

func (p *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.by, "by", "account", "Dimension to group by: account, category, commodity, month.")
	f.StringVar(&p.month, "month", "", "Only events effective in this month (YYYY-MM).")
	f.StringVar(&p.start, "s", "", "Start of a custom effective-time range.")
	f.StringVar(&p.end, "e", "", "End of a custom effective-time range.")
	f.StringVar(&p.account, "account", "", "Only postings under this account prefix.")
	f.StringVar(&p.category, "category", "", "Only events under this category prefix.")
	f.StringVar(&p.tag, "tag", "", "Only events carrying this tag.")
	f.StringVar(&p.commodity, "commodity", "", "Only postings in this commodity.")
}

func (p *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var groupBy bankero.GroupBy
	switch p.by {
	case "account":
		groupBy = bankero.GroupByAccount
	case "category":
		groupBy = bankero.GroupByCategory
	case "commodity":
		groupBy = bankero.GroupByCommodity
	case "month":
		groupBy = bankero.GroupByMonth
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown dimension %q\n", p.by)
		return subcommands.ExitUsageError
	}

	filter := bankero.Filter{
		Account:   p.account,
		Category:  p.category,
		Tag:       p.tag,
		Commodity: p.commodity,
	}
	if p.month != "" {
		month, err := bankero.ParseMonth(p.month)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		filter.Month = month
	}
	if p.start != "" || p.end != "" {
		from, err := parseWhen(p.start)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		to, err := parseWhen(p.end)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		filter.Range = bankero.NewRange(from, to)
	}

	ledger, s, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	view, err := ledger.Report(filter, groupBy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.ReportMarkdown(view))
	return subcommands.ExitSuccess
}
