package worker

import (
	"context"
	"testing"
	"time"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/amqp"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/sheets/memory"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/storage"
)

func testEntry(id string, exported bool) core.LedgerEntry {
	return core.LedgerEntry{
		ID:        id,
		UserID:    "user-a",
		Tag:       core.TagExpense,
		Category:  "食費",
		Amount:    500,
		Timestamp: time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC),
		Text:      "食費500円",
		Exported:  exported,
	}
}

func TestExportWorkerHandleEntrySaved(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sheet := memory.NewAppender()
	w := NewExportWorker(store, sheet, 50)

	if err := store.AppendEntry(ctx, testEntry("entry-1", false)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	msg := amqp.NewEntrySavedMessage("entry-1")
	if err := w.HandleEntrySaved(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := sheet.Entries()
	if len(got) != 1 {
		t.Fatalf("exported %d entries, want 1", len(got))
	}
	if got[0].ID != "entry-1" || got[0].Amount != 500 {
		t.Fatalf("exported %+v", got[0])
	}

	stored, err := store.GetEntry(ctx, "entry-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Exported {
		t.Fatalf("entry should be marked exported")
	}
}

func TestExportWorkerSkipsExportedEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sheet := memory.NewAppender()
	w := NewExportWorker(store, sheet, 50)

	if err := store.AppendEntry(ctx, testEntry("entry-1", true)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// A redelivered event for an exported entry must not duplicate the row.
	if err := w.HandleEntrySaved(ctx, amqp.NewEntrySavedMessage("entry-1")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sheet.Entries()) != 0 {
		t.Fatalf("nothing should be exported")
	}
}

func TestExportWorkerDropsUnknownEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sheet := memory.NewAppender()
	w := NewExportWorker(store, sheet, 50)

	msg := amqp.NewEntrySavedMessage("missing")
	if err := w.HandleEntrySaved(ctx, msg); err != nil {
		t.Fatalf("unknown entry should be dropped, got %v", err)
	}
	if len(sheet.Entries()) != 0 {
		t.Fatalf("nothing should be exported")
	}
}

func TestExportWorkerProcessUnexported(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sheet := memory.NewAppender()
	w := NewExportWorker(store, sheet, 50)

	if err := store.AppendEntry(ctx, testEntry("entry-1", true)); err != nil {
		t.Fatalf("seed 1: %v", err)
	}
	if err := store.AppendEntry(ctx, testEntry("entry-2", false)); err != nil {
		t.Fatalf("seed 2: %v", err)
	}
	if err := store.AppendEntry(ctx, testEntry("entry-3", false)); err != nil {
		t.Fatalf("seed 3: %v", err)
	}

	if err := w.ProcessUnexported(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	got := sheet.Entries()
	if len(got) != 2 {
		t.Fatalf("exported %d entries, want 2", len(got))
	}
	if got[0].ID != "entry-2" || got[1].ID != "entry-3" {
		t.Fatalf("exported %q and %q", got[0].ID, got[1].ID)
	}

	// Second pass finds nothing left.
	if err := w.ProcessUnexported(ctx); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(sheet.Entries()) != 2 {
		t.Fatalf("second pass must export nothing")
	}
}
