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

type budgetCmd struct {
	eventFlags
	name         string
	amount       string
	month        string
	account      string
	reserveMatch string
	reserveCap   string
	reset        bool
}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "create or update a budget" }
func (*budgetCmd) Usage() string {
	return `bankero budget -name <name> -amount <amount> [-month YYYY-MM] [-category <cat>] [-account <account>] [flags]

  Creates a budget, or updates the one with the same name. Anchoring a
  budget to an account (-account) makes it reserve its remaining target
  against that account's effective balance. An auto-reserve rule
  (-reserve-match, -reserve-cap) grows the reservation from matching
  credits instead, up to the cap. -reset starts a new reservation window.

Usage Examples:
$ bankero budget -name Food -amount 300USD -month 2026-02 -category expenses:food
$ bankero budget -name Rent -amount 900USD -account assets:bank -reserve-match income:salary -reserve-cap 900USD
$ bankero budget -name Rent -reset
`
}

func (p *budgetCmd) SetFlags(f *flag.FlagSet) {
	p.setFlags(f)
	f.StringVar(&p.name, "name", "", "Budget name (required).")
	f.StringVar(&p.amount, "amount", "", "Budget target, e.g. 300USD.")
	f.StringVar(&p.month, "month", "", "Month the budget applies to (YYYY-MM).")
	f.StringVar(&p.account, "account", "", "Account the reservation is held against.")
	f.StringVar(&p.reserveMatch, "reserve-match", "", "Auto-reserve: account or category prefix of the credits to capture.")
	f.StringVar(&p.reserveCap, "reserve-cap", "", "Auto-reserve: cap, e.g. 200USD (defaults to the budget target).")
	f.BoolVar(&p.reset, "reset", false, "Start a new reservation window for an existing budget.")
}

func (p *budgetCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	existing := findBudget(events, p.name)

	var change bankero.BudgetChange
	if existing != nil {
		// Updates and resets keep the budget's identity.
		change = existing.BudgetChange
		change.Reset = p.reset
	} else if p.reset {
		fmt.Fprintf(os.Stderr, "Error: no budget named %q to reset\n", p.name)
		return subcommands.ExitFailure
	}
	change.Name = p.name

	if p.amount != "" {
		change.Amount, change.Commodity, err = parseMoney(p.amount)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}
	if p.month != "" {
		change.Month, err = bankero.ParseMonth(p.month)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}
	if p.category != "" {
		change.Category = p.category
	}
	if p.account != "" {
		change.Account = p.account
	}
	if p.reserveMatch != "" {
		rule := &bankero.AutoReserveRule{Match: p.reserveMatch}
		if p.reserveCap != "" {
			rule.Cap, rule.CapCommodity, err = parseMoney(p.reserveCap)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitUsageError
			}
		} else {
			rule.Cap, rule.CapCommodity = change.Amount, change.Commodity
		}
		change.AutoReserve = rule
	}

	intent, err := p.intent(bankero.ActionBudget)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	intent.Category = "" // the category lives on the definition, not the admin event
	intent.Budget = &change

	e, res, err := ledger.Submit(intent)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	verb := "Created"
	if existing != nil {
		verb = "Updated"
	}
	fmt.Printf("%s budget %q (event %s at seq %d)\n", verb, p.name, e.ID, res.Seq)
	return subcommands.ExitSuccess
}

func findBudget(events []bankero.Event, name string) *bankero.BudgetDef {
	for _, b := range bankero.CurrentBudgets(events) {
		if b.Name == name {
			return &b
		}
	}
	return nil
}

type budgetReportCmd struct {
	month string
}

func (*budgetReportCmd) Name() string     { return "budget-report" }
func (*budgetReportCmd) Synopsis() string { return "show budget versus actual for a month" }
func (*budgetReportCmd) Usage() string {
	return `bankero budget-report [-month YYYY-MM]

  Shows each budget's planned amount, the actual spend charged against it in
  the month, and what remains.

Usage Examples:
$ bankero budget-report -month 2026-02
`
}

func (p *budgetReportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.month, "month", "", "Month to report on (defaults to the current month).")
}

func (p *budgetReportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	month := bankero.MonthOf(nowUTC())
	if p.month != "" {
		var err error
		month, err = bankero.ParseMonth(p.month)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}

	ledger, s, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	lines, err := ledger.Budgets(month)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.BudgetMarkdown(lines, month))
	return subcommands.ExitSuccess
}
