// Package cmd implements the CLI application to manage a bankero ledger.
package cmd

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/JoCarrasco/bankero"
	"github.com/JoCarrasco/bankero/store"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&depositCmd{}, "events")
	c.Register(&moveCmd{}, "events")
	c.Register(&buyCmd{}, "events")
	c.Register(&sellCmd{}, "events")
	c.Register(&tagCmd{}, "events")

	c.Register(&budgetCmd{}, "budgets")
	c.Register(&budgetReportCmd{}, "budgets")
	c.Register(&piggyCmd{}, "budgets")
	c.Register(&piggyFundCmd{}, "budgets")
	c.Register(&piggyStatusCmd{}, "budgets")

	c.Register(&balanceCmd{}, "queries")
	c.Register(&reportCmd{}, "queries")

	c.Register(&rateSetCmd{}, "rates")
	c.Register(&rateListCmd{}, "rates")
	c.Register(&rateImportCmd{}, "rates")

	c.Register(&exportCmd{}, "sync")
	c.Register(&importCmd{}, "sync")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var homeDir = flag.String("home", defaultHome(), "Path to the bankero home folder")
var workspaceName = flag.String("ws", "personal", "Workspace to operate on")
var projectName = flag.String("project", "", "Optional project stamped on new events")

func defaultHome() string {
	if env := os.Getenv("BANKERO_HOME"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bankero"
	}
	return filepath.Join(home, ".bankero")
}

// openStore opens (creating if needed) the current workspace database.
func openStore() (*store.Store, error) {
	return store.Open(*homeDir, *workspaceName)
}

// openLedger opens the workspace store and wraps it in a ledger stamped with
// the workspace, project and this device's identity.
func openLedger() (*bankero.Ledger, *store.Store, error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	l := bankero.NewLedger(s, s)
	l.Workspace = *workspaceName
	l.Project = *projectName
	l.Device = deviceID()
	return l, s, nil
}

// deviceID returns this device's stable identity, minting and persisting one
// on first use. Every event records which device created it, so two devices
// merging journals can always be told apart.
func deviceID() uuid.UUID {
	path := filepath.Join(*homeDir, "device")
	if raw, err := os.ReadFile(path); err == nil {
		if id, err := uuid.Parse(strings.TrimSpace(string(raw))); err == nil {
			return id
		}
	}
	id := uuid.New()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("cannot persist device id: %v", err)
		return id
	}
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0o600); err != nil {
		log.Printf("cannot persist device id: %v", err)
	}
	return id
}

func nowUTC() time.Time { return time.Now().UTC() }

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering fails (e.g. output is piped).
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
