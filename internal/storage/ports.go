// Package storage defines the persistence ports of the ledger service and
// their MongoDB, SQLite and in-memory implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type (
	// LedgerStore owns saved ledger entries. Entries are append-only; the
	// month query must filter server-side so callers never load the whole
	// collection.
	LedgerStore interface {
		AppendEntry(ctx context.Context, entry core.LedgerEntry) error
		GetEntry(ctx context.Context, id string) (core.LedgerEntry, error)
		QueryByMonthCategory(ctx context.Context, userID string, start, end time.Time, category string) ([]core.LedgerEntry, error)
		// ListUnexported returns up to limit entries not yet exported,
		// oldest first.
		ListUnexported(ctx context.Context, limit int) ([]core.LedgerEntry, error)
		MarkExported(ctx context.Context, id string) error
	}

	// PendingStore owns the single pending-confirmation slot per user. All
	// three operations are atomic per user.
	PendingStore interface {
		// GetPending returns nil with no error when the user has no slot.
		GetPending(ctx context.Context, userID string) (*core.PendingConfirmation, error)
		SetPending(ctx context.Context, p core.PendingConfirmation) error
		DeletePending(ctx context.Context, userID string) error
	}

	// Store combines both ports; every backend implements it.
	Store interface {
		LedgerStore
		PendingStore
	}
)
