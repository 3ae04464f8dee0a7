// Package store persists the event journal and the rate table of one
// workspace in a single SQLite file. Events and rates are append-only:
// nothing here updates or deletes a committed row.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/JoCarrasco/bankero"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id     TEXT    NOT NULL UNIQUE,
	action       TEXT    NOT NULL,
	created_at   INTEGER NOT NULL,
	effective_at INTEGER NOT NULL,
	payload      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_effective ON events(effective_at, seq);

CREATE TABLE IF NOT EXISTS rates (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	provider TEXT    NOT NULL,
	base     TEXT    NOT NULL,
	quote    TEXT    NOT NULL,
	value    TEXT    NOT NULL,
	as_of    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rates_lookup ON rates(provider, base, quote, as_of, seq);
`

// DatabaseFilename is the name of the SQLite file inside a workspace folder.
const DatabaseFilename = "bankero.sqlite3"

// Store is the SQLite-backed journal and rate table of one workspace. It
// implements bankero.EventSource and bankero.RateSource.
type Store struct {
	mu    sync.Mutex
	sqlDB *sql.DB
}

// Slug normalizes a workspace name into a filesystem-safe folder name:
// lowercase, runs of anything but letters and digits collapsed to a single
// dash. An empty result falls back to "default".
func Slug(workspace string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(workspace)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "default"
	}
	return s
}

// Path returns the database file for a workspace under the home directory,
// e.g. <home>/workspaces/<slug>/bankero.sqlite3.
func Path(home, workspace string) string {
	return filepath.Join(home, "workspaces", Slug(workspace), DatabaseFilename)
}

// Open opens (creating if needed) the workspace database under home and
// applies the schema.
func Open(home, workspace string) (*Store, error) {
	if strings.TrimSpace(home) == "" {
		return nil, fmt.Errorf("storage home is required")
	}
	path := Path(home, workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create workspace folder: %w", err)
	}
	return OpenFile(path)
}

// OpenFile opens a store at an explicit database path.
func OpenFile(path string) (*Store, error) {
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append records an event. Appending an event id the journal already holds
// is a no-op reporting AlreadyPresent with the existing sequence.
func (s *Store) Append(e bankero.Event) (bankero.AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := e.MarshalJSON()
	if err != nil {
		return bankero.AppendResult{}, fmt.Errorf("encode event %s: %w", e.ID, err)
	}

	tx, err := s.sqlDB.Begin()
	if err != nil {
		return bankero.AppendResult{}, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT OR IGNORE INTO events (event_id, action, created_at, effective_at, payload) VALUES (?, ?, ?, ?, ?)`,
		e.ID.String(), string(e.Action), e.CreatedAt.UTC().UnixMilli(), e.EffectiveAt.UTC().UnixMilli(), string(payload),
	)
	if err != nil {
		return bankero.AppendResult{}, fmt.Errorf("append event %s: %w", e.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return bankero.AppendResult{}, fmt.Errorf("append event %s: %w", e.ID, err)
	}
	if affected == 0 {
		var seq int64
		if err := tx.QueryRow(`SELECT seq FROM events WHERE event_id = ?`, e.ID.String()).Scan(&seq); err != nil {
			return bankero.AppendResult{}, fmt.Errorf("lookup existing event %s: %w", e.ID, err)
		}
		if err := tx.Commit(); err != nil {
			return bankero.AppendResult{}, fmt.Errorf("commit append: %w", err)
		}
		return bankero.AppendResult{Seq: seq, AlreadyPresent: true}, nil
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return bankero.AppendResult{}, fmt.Errorf("append event %s: %w", e.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return bankero.AppendResult{}, fmt.Errorf("commit append: %w", err)
	}
	return bankero.AppendResult{Seq: seq}, nil
}

// Events returns every event in insertion order, with Seq populated from
// the store.
func (s *Store) Events() ([]bankero.Event, error) {
	rows, err := s.sqlDB.Query(`SELECT seq, payload FROM events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []bankero.Event
	for rows.Next() {
		var seq int64
		var payload string
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var e bankero.Event
		if err := e.UnmarshalPayload([]byte(payload)); err != nil {
			return nil, fmt.Errorf("decode event at seq %d: %w", seq, err)
		}
		e.Seq = seq
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// EventsSince returns events with a sequence strictly greater than seq, in
// insertion order. It is the incremental feed for chunked replay and sync.
func (s *Store) EventsSince(seq int64) ([]bankero.Event, error) {
	rows, err := s.sqlDB.Query(`SELECT seq, payload FROM events WHERE seq > ? ORDER BY seq`, seq)
	if err != nil {
		return nil, fmt.Errorf("read events since %d: %w", seq, err)
	}
	defer rows.Close()

	var events []bankero.Event
	for rows.Next() {
		var s64 int64
		var payload string
		if err := rows.Scan(&s64, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var e bankero.Event
		if err := e.UnmarshalPayload([]byte(payload)); err != nil {
			return nil, fmt.Errorf("decode event at seq %d: %w", s64, err)
		}
		e.Seq = s64
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events since %d: %w", seq, err)
	}
	return events, nil
}

// SetRate appends a rate record. Earlier records for the same key are kept.
func (s *Store) SetRate(provider, base, quote string, value decimal.Decimal, asOf time.Time) (bankero.RateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.sqlDB.Exec(
		`INSERT INTO rates (provider, base, quote, value, as_of) VALUES (?, ?, ?, ?, ?)`,
		provider, base, quote, value.String(), asOf.UTC().UnixMilli(),
	)
	if err != nil {
		return bankero.RateRecord{}, fmt.Errorf("set rate %s/%s via %s: %w", base, quote, provider, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return bankero.RateRecord{}, fmt.Errorf("set rate %s/%s via %s: %w", base, quote, provider, err)
	}
	return bankero.RateRecord{
		Provider: provider,
		Base:     base,
		Quote:    quote,
		Value:    value,
		AsOf:     asOf.UTC(),
		Seq:      seq,
	}, nil
}

// RateAsOf implements bankero.RateSource: the record with the greatest as-of
// time not after asOf, the latest insertion winning ties.
func (s *Store) RateAsOf(provider, base, quote string, asOf time.Time) (bankero.RateRecord, bool, error) {
	row := s.sqlDB.QueryRow(
		`SELECT seq, value, as_of FROM rates
		 WHERE provider = ? AND base = ? AND quote = ? AND as_of <= ?
		 ORDER BY as_of DESC, seq DESC LIMIT 1`,
		provider, base, quote, asOf.UTC().UnixMilli(),
	)
	var seq, asOfMillis int64
	var raw string
	if err := row.Scan(&seq, &raw, &asOfMillis); err != nil {
		if err == sql.ErrNoRows {
			return bankero.RateRecord{}, false, nil
		}
		return bankero.RateRecord{}, false, fmt.Errorf("rate lookup %s/%s via %s: %w", base, quote, provider, err)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return bankero.RateRecord{}, false, fmt.Errorf("corrupt rate value %q at seq %d: %w", raw, seq, err)
	}
	return bankero.RateRecord{
		Provider: provider,
		Base:     base,
		Quote:    quote,
		Value:    value,
		AsOf:     time.UnixMilli(asOfMillis).UTC(),
		Seq:      seq,
	}, true, nil
}

// ListRates returns the stored records, optionally filtered by provider, in
// (as-of, insertion) order.
func (s *Store) ListRates(provider string) ([]bankero.RateRecord, error) {
	query := `SELECT seq, provider, base, quote, value, as_of FROM rates`
	args := []any{}
	if provider != "" {
		query += ` WHERE provider = ?`
		args = append(args, provider)
	}
	query += ` ORDER BY as_of, seq`

	rows, err := s.sqlDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	var records []bankero.RateRecord
	for rows.Next() {
		var rec bankero.RateRecord
		var raw string
		var asOfMillis int64
		if err := rows.Scan(&rec.Seq, &rec.Provider, &rec.Base, &rec.Quote, &raw, &asOfMillis); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		rec.Value, err = decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt rate value %q at seq %d: %w", raw, rec.Seq, err)
		}
		rec.AsOf = time.UnixMilli(asOfMillis).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	return records, nil
}
