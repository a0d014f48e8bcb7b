// Package memory provides an in-process LedgerAppender for tests and for
// running the worker without a spreadsheet.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
	ports "github.com/IKEOEKI-am/AyuMikoKakeibo/internal/sheets"
)

type Appender struct {
	mu      sync.Mutex
	entries []core.LedgerEntry
}

var _ ports.LedgerAppender = (*Appender)(nil)

func NewAppender() *Appender {
	return &Appender{}
}

func (a *Appender) AppendEntry(_ context.Context, e core.LedgerEntry) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return fmt.Sprintf("memory:%d", len(a.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (a *Appender) Entries() []core.LedgerEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.LedgerEntry, len(a.entries))
	copy(out, a.entries)
	return out
}
