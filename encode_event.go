package bankero

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are persisted as plain JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// MarshalJSON renders the event with a stable field order, so that the same
// event always serializes to the same bytes. JSONL exports of the same
// journal are diffable across devices because of this.
func (e Event) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	w.Append("id", e.ID).
		Append("schema", e.Schema).
		Optional("ledger", e.LedgerID).
		Append("workspace", e.Workspace).
		Optional("project", e.Project).
		Append("device", e.DeviceID).
		Append("createdAt", e.CreatedAt.UTC()).
		Append("effectiveAt", e.EffectiveAt.UTC()).
		Append("action", e.Action).
		Optional("postings", e.Postings).
		Optional("rateContext", e.RateContext).
		Optional("basis", e.Basis).
		Optional("tags", e.Tags).
		Optional("category", e.Category).
		Optional("note", e.Note).
		Optional("target", e.Target).
		Optional("budget", e.Budget).
		Optional("piggy", e.Piggy).
		Optional("piggyFund", e.PiggyFund)
	return w.MarshalJSON()
}

// UnmarshalPayload decodes a single stored event payload into e, rejecting
// payloads written by a newer schema.
func (e *Event) UnmarshalPayload(data []byte) error {
	if err := json.Unmarshal(data, e); err != nil {
		return err
	}
	if e.Schema > SchemaVersion {
		return fmt.Errorf("schema %d is newer than supported %d", e.Schema, SchemaVersion)
	}
	return nil
}

// EncodeEvent marshals a single event and writes it to the writer followed by
// a newline, in JSONL format.
func EncodeEvent(w io.Writer, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", e.ID, err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event %s: %w", e.ID, err)
	}
	return nil
}

// EncodeEvents writes the events as a JSONL stream in canonical fold order,
// duplicates removed. Two devices holding the same merged journal produce
// identical exports.
func EncodeEvents(w io.Writer, events []Event) error {
	for _, e := range orderedEvents(events) {
		if err := EncodeEvent(w, e); err != nil {
			return err
		}
	}
	return nil
}

// DecodeEvents reads a JSONL stream of events. Blank lines are skipped.
// Events written by a newer schema than this build understands are rejected
// rather than silently misread.
func DecodeEvents(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events []Event
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("format error on line %d: %w", line, err)
		}
		if e.Schema > SchemaVersion {
			return nil, fmt.Errorf("format error on line %d: schema %d is newer than supported %d", line, e.Schema, SchemaVersion)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading events: %w", err)
	}
	return events, nil
}
