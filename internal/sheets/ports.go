package sheets

import (
	"context"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
)

// LedgerAppender is the outbound port for the spreadsheet export target.
type LedgerAppender interface {
	AppendEntry(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
}
