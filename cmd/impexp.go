package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
)

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the journal as JSONL" }
func (*exportCmd) Usage() string {
	return `bankero export [-o <file>]

  Writes the workspace journal as JSONL in canonical order, to stdout or to
  a file. The export is the sync surface: feed it to "import" on another
  device to merge ledgers.

Usage Examples:
$ bankero export -o personal.jsonl
$ bankero export | ssh laptop bankero import
`
}

func (p *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.output, "o", "", "File to write to (defaults to stdout).")
}

func (p *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, s, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	var w io.Writer = os.Stdout
	if p.output != "" {
		file, err := os.Create(p.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", p.output, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}

	if err := ledger.Export(w); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	input string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "merge a JSONL event stream into the journal" }
func (*importCmd) Usage() string {
	return `bankero import [-i <file>]

  Reads a JSONL event stream (from stdin or a file) and appends the events
  to the workspace journal. Events the journal already holds are skipped, so
  importing the same export twice, or exports from several devices in any
  order, always converges to the same ledger.

Usage Examples:
$ bankero import -i from-phone.jsonl
`
}

func (p *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.input, "i", "", "File to read from (defaults to stdin).")
}

func (p *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, s, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	var r io.Reader = os.Stdin
	if p.input != "" {
		file, err := os.Open(p.input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", p.input, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		r = file
	}

	added, skipped, err := ledger.Import(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Imported %d events, %d already present\n", added, skipped)
	return subcommands.ExitSuccess
}
