package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
)

// SQLiteStore is the embedded single-file backend. Timestamps are stored as
// Unix seconds so range filters stay plain integer comparisons.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) AppendEntry(ctx context.Context, entry core.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	exported := 0
	if entry.Exported {
		exported = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger_entries (id, user_id, tag, category, amount, timestamp, text, exported)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.Tag), entry.Category, entry.Amount,
		entry.Timestamp.Unix(), entry.Text, exported)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (core.LedgerEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, tag, category, amount, timestamp, text, exported
		 FROM ledger_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, ErrNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get ledger entry %s: %w", id, err)
	}
	return entry, nil
}

func (s *SQLiteStore) QueryByMonthCategory(ctx context.Context, userID string, start, end time.Time, category string) ([]core.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, tag, category, amount, timestamp, text, exported
		 FROM ledger_entries
		 WHERE user_id = ? AND category = ? AND timestamp >= ? AND timestamp <= ?
		 ORDER BY timestamp`,
		userID, category, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) ListUnexported(ctx context.Context, limit int) ([]core.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, tag, category, amount, timestamp, text, exported
		 FROM ledger_entries
		 WHERE exported = 0
		 ORDER BY timestamp
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unexported entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unexported entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unexported entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) MarkExported(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ledger_entries SET exported = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark entry %s exported: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark entry %s exported: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetPending(ctx context.Context, userID string) (*core.PendingConfirmation, error) {
	var (
		p        core.PendingConfirmation
		tag      string
		unixTime int64
		awaiting int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, tag, category, amount, text, timestamp, awaiting_confirmation
		 FROM pending_confirmations WHERE user_id = ?`, userID).
		Scan(&p.UserID, &tag, &p.Category, &p.Amount, &p.Text, &unixTime, &awaiting)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending confirmation: %w", err)
	}
	p.Tag = core.Tag(tag)
	p.Timestamp = time.Unix(unixTime, 0).UTC()
	p.AwaitingConfirmation = awaiting != 0
	return &p, nil
}

func (s *SQLiteStore) SetPending(ctx context.Context, p core.PendingConfirmation) error {
	if err := p.Validate(); err != nil {
		return err
	}
	awaiting := 0
	if p.AwaitingConfirmation {
		awaiting = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_confirmations (user_id, tag, category, amount, text, timestamp, awaiting_confirmation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   tag = excluded.tag,
		   category = excluded.category,
		   amount = excluded.amount,
		   text = excluded.text,
		   timestamp = excluded.timestamp,
		   awaiting_confirmation = excluded.awaiting_confirmation`,
		p.UserID, string(p.Tag), p.Category, p.Amount, p.Text, p.Timestamp.Unix(), awaiting)
	if err != nil {
		return fmt.Errorf("upsert pending confirmation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeletePending(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_confirmations WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete pending confirmation: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.LedgerEntry, error) {
	var (
		entry    core.LedgerEntry
		tag      string
		unixTime int64
		exported int64
	)
	if err := row.Scan(&entry.ID, &entry.UserID, &tag, &entry.Category,
		&entry.Amount, &unixTime, &entry.Text, &exported); err != nil {
		return core.LedgerEntry{}, err
	}
	entry.Tag = core.Tag(tag)
	entry.Timestamp = time.Unix(unixTime, 0).UTC()
	entry.Exported = exported != 0
	return entry, nil
}
