// Package worker exports saved ledger entries to the spreadsheet target.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/amqp"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/log"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/sheets"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/storage"
)

// ExportWorker resolves entry-saved events against the store and appends the
// full entry to the export target. Exported entries are marked in the store
// so the periodic catch-up pass can pick up anything the event path missed.
type ExportWorker struct {
	ledger    storage.LedgerStore
	sheet     sheets.LedgerAppender
	batchSize int
}

func NewExportWorker(ledger storage.LedgerStore, sheet sheets.LedgerAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		ledger:    ledger,
		sheet:     sheet,
		batchSize: batchSize,
	}
}

// HandleEntrySaved processes a single entry-saved event. An entry missing
// from the store is dropped rather than requeued; it will never appear.
// Already-exported entries are skipped, so a redelivered event is harmless.
func (w *ExportWorker) HandleEntrySaved(ctx context.Context, msg *amqp.EntrySavedMessage) error {
	entry, err := w.ledger.GetEntry(ctx, msg.EntryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Entry not found, dropping event", log.FieldEntryID, msg.EntryID)
			return nil
		}
		return fmt.Errorf("get entry %s: %w", msg.EntryID, err)
	}
	if entry.Exported {
		slog.DebugContext(ctx, "Entry already exported, skipping", log.FieldEntryID, entry.ID)
		return nil
	}

	return w.export(ctx, entry)
}

// ProcessUnexported appends every entry the event path missed, oldest first,
// up to the batch size. Per-entry failures are logged and the pass continues
// so one bad row does not starve the rest.
func (w *ExportWorker) ProcessUnexported(ctx context.Context) error {
	entries, err := w.ledger.ListUnexported(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	exported := 0
	for _, entry := range entries {
		if err := w.export(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Catch-up export failed",
				log.FieldEntryID, entry.ID, log.FieldError, err)
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Catch-up export pass finished",
		"candidates", len(entries), "exported", exported)
	return nil
}

func (w *ExportWorker) export(ctx context.Context, entry core.LedgerEntry) error {
	ref, err := w.sheet.AppendEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("append entry %s to sheet: %w", entry.ID, err)
	}
	if err := w.ledger.MarkExported(ctx, entry.ID); err != nil {
		return fmt.Errorf("mark entry %s exported: %w", entry.ID, err)
	}

	slog.InfoContext(ctx, "Exported ledger entry",
		log.FieldEntryID, entry.ID,
		log.FieldUserID, entry.UserID,
		log.FieldCategory, entry.Category,
		log.FieldAmount, entry.Amount,
		log.FieldSheetsRef, ref)

	return nil
}
