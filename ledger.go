package bankero

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// AppendResult reports the outcome of appending an event to a journal.
type AppendResult struct {
	// Seq is the insertion sequence the journal holds the event at.
	Seq int64
	// AlreadyPresent is true when the journal already held an event with
	// the same id. Re-appending is a no-op, not an error: that is what
	// makes import and sync retries safe.
	AlreadyPresent bool
}

// EventSource is an append-only event journal. Implementations must be
// idempotent on event id: appending a duplicate reports AlreadyPresent with
// the sequence of the existing record and changes nothing.
type EventSource interface {
	Append(e Event) (AppendResult, error)
	Events() ([]Event, error)
}

// MemoryJournal is an in-memory EventSource for tests and ephemeral ledgers.
type MemoryJournal struct {
	events []Event
	seqs   map[uuid.UUID]int64
}

// NewMemoryJournal returns an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{seqs: make(map[uuid.UUID]int64)}
}

// Append implements EventSource.
func (j *MemoryJournal) Append(e Event) (AppendResult, error) {
	if seq, ok := j.seqs[e.ID]; ok {
		return AppendResult{Seq: seq, AlreadyPresent: true}, nil
	}
	seq := int64(len(j.events) + 1)
	e.Seq = seq
	j.events = append(j.events, e)
	j.seqs[e.ID] = seq
	return AppendResult{Seq: seq}, nil
}

// Events implements EventSource, returning events in insertion order.
func (j *MemoryJournal) Events() ([]Event, error) {
	out := make([]Event, len(j.events))
	copy(out, j.events)
	return out, nil
}

// Ledger ties a journal, a rate source and a validator into the append and
// query surface of one workspace. All reads are full replays of the journal;
// the ledger holds no state of its own.
type Ledger struct {
	Workspace string
	Project   string
	Device    uuid.UUID

	Journal   EventSource
	validator *Validator
}

// NewLedger returns a ledger appending to journal and resolving rates
// from rates.
func NewLedger(journal EventSource, rates RateSource) *Ledger {
	return &Ledger{Journal: journal, validator: NewValidator(rates)}
}

// Validator exposes the underlying validator for configuration (account
// policy, reference commodity, clock).
func (l *Ledger) Validator() *Validator { return l.validator }

// Submit validates the intent, constructs the event and appends it. The
// ledger's workspace, project and device stamp the event; anything set on
// the intent for these fields is overridden.
func (l *Ledger) Submit(intent ActionIntent) (Event, AppendResult, error) {
	intent.Workspace = l.Workspace
	intent.Project = l.Project
	intent.DeviceID = l.Device
	e, err := l.validator.Submit(intent)
	if err != nil {
		return Event{}, AppendResult{}, err
	}
	res, err := l.Journal.Append(e)
	if err != nil {
		return Event{}, AppendResult{}, fmt.Errorf("append event %s: %w", e.ID, err)
	}
	e.Seq = res.Seq
	return e, res, nil
}

// Append records an already-committed event, as received from another
// device. Committed events are historical fact and are not re-validated.
func (l *Ledger) Append(e Event) (AppendResult, error) {
	return l.Journal.Append(e)
}

// Events returns the journal's events.
func (l *Ledger) Events() ([]Event, error) {
	return l.Journal.Events()
}

// State replays the journal into the base balance projection.
func (l *Ledger) State() (*BalanceState, error) {
	events, err := l.Journal.Events()
	if err != nil {
		return nil, err
	}
	return Replay(events), nil
}

// Balances computes actual, reserved and effective balances for the scope.
func (l *Ledger) Balances(scope Scope) ([]BalanceView, error) {
	events, err := l.Journal.Events()
	if err != nil {
		return nil, err
	}
	return QueryBalance(events, scope), nil
}

// Report aggregates the journal along the filter and grouping dimension.
func (l *Ledger) Report(f Filter, groupBy GroupBy) (ReportView, error) {
	events, err := l.Journal.Events()
	if err != nil {
		return ReportView{}, err
	}
	return BuildReport(events, f, groupBy), nil
}

// Budgets computes the budget variance report for the month.
func (l *Ledger) Budgets(month Month) ([]BudgetLine, error) {
	events, err := l.Journal.Events()
	if err != nil {
		return nil, err
	}
	return BudgetReport(events, month), nil
}

// Piggies returns the current piggy banks with their funded totals.
func (l *Ledger) Piggies() ([]PiggyDef, error) {
	events, err := l.Journal.Events()
	if err != nil {
		return nil, err
	}
	return CurrentPiggies(events), nil
}

// Export writes the journal as canonical JSONL.
func (l *Ledger) Export(w io.Writer) error {
	events, err := l.Journal.Events()
	if err != nil {
		return err
	}
	return EncodeEvents(w, events)
}

// Import merges a JSONL event stream into the journal. Events already
// present are skipped; the returned counts say how many were added and how
// many the journal already held.
func (l *Ledger) Import(r io.Reader) (added, skipped int, err error) {
	events, err := DecodeEvents(r)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range events {
		res, err := l.Journal.Append(e)
		if err != nil {
			return added, skipped, fmt.Errorf("import event %s: %w", e.ID, err)
		}
		if res.AlreadyPresent {
			skipped++
		} else {
			added++
		}
	}
	return added, skipped, nil
}
