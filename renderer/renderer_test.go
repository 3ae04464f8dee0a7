package renderer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/JoCarrasco/bankero"
)

// parseStats parses the rendered markdown and counts the structural nodes,
// so a formatting regression that breaks the table syntax fails loudly.
func parseStats(t *testing.T, source string) (headings, tableRows int) {
	t.Helper()
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader([]byte(source)))
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading:
			headings++
		case *east.TableRow, *east.TableHeader:
			tableRows++
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walk markdown: %v", err)
	}
	return headings, tableRows
}

func TestBalanceMarkdown(t *testing.T) {
	views := []bankero.BalanceView{
		{
			Account:   "assets:bank",
			Commodity: "USD",
			Actual:    decimal.NewFromInt(250),
			Reserved:  decimal.NewFromInt(250),
			Effective: decimal.Zero,
		},
	}
	month, _ := bankero.ParseMonth("2026-02")
	got := BalanceMarkdown(views, bankero.Scope{Account: "assets:bank", Month: month})

	for _, want := range []string{
		"# Balance of assets:bank (2026-02)",
		"assets:bank",
		"$250.00",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	headings, rows := parseStats(t, got)
	if headings != 1 {
		t.Errorf("got %d headings, want 1", headings)
	}
	if rows != 2 { // header + one balance line
		t.Errorf("got %d table rows, want 2", rows)
	}
}

func TestBalanceMarkdownEmpty(t *testing.T) {
	got := BalanceMarkdown(nil, bankero.Scope{})
	if !strings.Contains(got, "No balances.") {
		t.Errorf("empty query should say so:\n%s", got)
	}
}

func TestReportMarkdown(t *testing.T) {
	view := bankero.ReportView{
		GroupBy: bankero.GroupByCategory,
		Filter:  bankero.Filter{Category: "expenses"},
		Lines: []bankero.ReportLine{
			{Group: "expenses:food", Commodity: "USD", Debit: decimal.NewFromInt(50), Net: decimal.NewFromInt(-50), Events: 1},
			{Group: "expenses:rent", Commodity: "USD", Debit: decimal.NewFromInt(900), Net: decimal.NewFromInt(-900), Events: 1},
		},
	}
	got := ReportMarkdown(view)

	for _, want := range []string{
		"# Report by category",
		"Filter: category expenses",
		"| Category |",
		"expenses:food",
		"-$50.00",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if _, rows := parseStats(t, got); rows != 3 {
		t.Errorf("got %d table rows, want 3", rows)
	}
}

func TestBudgetMarkdown(t *testing.T) {
	month, _ := bankero.ParseMonth("2026-02")
	lines := []bankero.BudgetLine{
		{
			Month:     month,
			Name:      "Food",
			Commodity: "USD",
			Budget:    decimal.NewFromInt(300),
			Actual:    decimal.NewFromInt(50),
			Remaining: decimal.NewFromInt(250),
		},
	}
	got := BudgetMarkdown(lines, month)

	for _, want := range []string{
		"# Budget Report for 2026-02",
		"| Food | $300.00 | $50.00 | +$250.00 |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestPiggyMarkdown(t *testing.T) {
	piggies := []bankero.PiggyDef{
		{
			PiggyChange: bankero.PiggyChange{
				Name:      "Vacation",
				Target:    decimal.NewFromInt(5000),
				Commodity: "USD",
				Source:    "assets:savings",
			},
			Funded: decimal.NewFromInt(2000),
		},
	}
	got := PiggyMarkdown(piggies)

	for _, want := range []string{
		"# Piggy Banks",
		"| Vacation | $2,000.00 | $5,000.00 | $3,000.00 | 40% |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
