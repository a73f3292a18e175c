// Package storage persists the sale's observable history and state: the
// emitted event stream, withdrawal receipts, and CBOR-encoded snapshots
// of the full contract state. A single SQLite file backs all three so
// they share the same transaction and visibility boundaries.
package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	_ "modernc.org/sqlite"

	"github.com/salenode/salenode/core"
	"github.com/salenode/salenode/core/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq          INTEGER PRIMARY KEY,
	kind         TEXT    NOT NULL,
	address      TEXT    NOT NULL,
	counterparty TEXT    NOT NULL,
	amount       BLOB,
	data         BLOB,
	ts           INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS receipts (
	id      TEXT PRIMARY KEY,
	kind    TEXT    NOT NULL,
	account TEXT    NOT NULL,
	amount  BLOB,
	ts      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS receipts_account ON receipts(account);
CREATE TABLE IF NOT EXISTS snapshots (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	taken_at INTEGER NOT NULL,
	payload  BLOB    NOT NULL
);
`

// Receipt is a persisted withdrawal record.
type Receipt struct {
	ID      string
	Kind    types.EventKind
	Account types.Address
	Amount  *uint256.Int
	Time    int64
}

// Store is the sale's durable store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordEvent appends an emitted event to the store. Events arrive with
// their feed-assigned sequence number; replaying an already recorded
// sequence is a no-op so drains can restart safely.
func (s *Store) RecordEvent(ev types.Event) error {
	var amount []byte
	if ev.Amount != nil {
		amount = ev.Amount.Bytes()
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO events (seq, kind, address, counterparty, amount, data, ts) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(ev.Seq), string(ev.Kind), ev.Address.Hex(), ev.Counterparty.Hex(), amount, ev.Data, ev.Time,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Events returns all recorded events with sequence numbers greater than
// after, in sequence order.
func (s *Store) Events(after uint64) ([]types.Event, error) {
	rows, err := s.db.Query(
		`SELECT seq, kind, address, counterparty, amount, data, ts FROM events WHERE seq > ? ORDER BY seq`,
		int64(after),
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []types.Event
	for rows.Next() {
		var (
			seq            int64
			kind, addr, cp string
			amount, data   []byte
			ts             int64
		)
		if err := rows.Scan(&seq, &kind, &addr, &cp, &amount, &data, &ts); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev := types.Event{
			Seq:          uint64(seq),
			Kind:         types.EventKind(kind),
			Address:      types.HexToAddress(addr),
			Counterparty: types.HexToAddress(cp),
			Data:         data,
			Time:         ts,
		}
		if len(amount) > 0 {
			ev.Amount = new(uint256.Int).SetBytes(amount)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// RecordReceipt persists a withdrawal receipt and returns its generated
// identifier.
func (s *Store) RecordReceipt(kind types.EventKind, account types.Address, amount *uint256.Int, ts int64) (string, error) {
	id := uuid.NewString()
	var raw []byte
	if amount != nil {
		raw = amount.Bytes()
	}
	_, err := s.db.Exec(
		`INSERT INTO receipts (id, kind, account, amount, ts) VALUES (?, ?, ?, ?, ?)`,
		id, string(kind), account.Hex(), raw, ts,
	)
	if err != nil {
		return "", fmt.Errorf("record receipt: %w", err)
	}
	return id, nil
}

// Receipts returns all receipts recorded for account, oldest first.
func (s *Store) Receipts(account types.Address) ([]Receipt, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, account, amount, ts FROM receipts WHERE account = ? ORDER BY ts`,
		account.Hex(),
	)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		var (
			id, kind, addr string
			amount         []byte
			ts             int64
		)
		if err := rows.Scan(&id, &kind, &addr, &amount, &ts); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		r := Receipt{
			ID:      id,
			Kind:    types.EventKind(kind),
			Account: types.HexToAddress(addr),
			Time:    ts,
		}
		if len(amount) > 0 {
			r.Amount = new(uint256.Int).SetBytes(amount)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveSnapshot persists a CBOR encoding of the contract state.
func (s *Store) SaveSnapshot(ex *core.StateExport) error {
	payload, err := cbor.Marshal(ex)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots (taken_at, payload) VALUES (?, ?)`,
		time.Now().Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently saved contract state, or
// (nil, nil) when no snapshot exists.
func (s *Store) LatestSnapshot() (*core.StateExport, error) {
	var payload []byte
	err := s.db.QueryRow(
		`SELECT payload FROM snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var ex core.StateExport
	if err := cbor.Unmarshal(payload, &ex); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &ex, nil
}
