// Package services holds the message dispatch policy: classification,
// period aggregation, and the per-user pending-confirmation state machine.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/cache"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/log"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/storage"
)

const (
	// storeTimeout bounds every persistence call so a slow store surfaces
	// as an error instead of hanging the webhook.
	storeTimeout = 5 * time.Second

	confirmationToken = "はい"

	totalsCacheSize = 256
	totalsCacheTTL  = 5 * time.Minute
)

// EventPublisher notifies downstream consumers that a ledger entry was
// saved. A nil publisher disables notifications.
type EventPublisher interface {
	PublishEntrySaved(ctx context.Context, entryID string) error
}

// MessageService turns one inbound chat message into a reply. All store
// writes for a user are serialized through a per-user lock, so a
// confirmation racing a new transaction from the same user cannot promote
// and re-create the pending slot at once.
type MessageService struct {
	store      storage.Store
	categories core.CategorySet
	clock      core.Clock
	publisher  EventPublisher
	totals     *cache.LRUCache[int64]

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMessageService(store storage.Store, categories core.CategorySet, clock core.Clock, publisher EventPublisher) *MessageService {
	return &MessageService{
		store:      store,
		categories: categories,
		clock:      clock,
		publisher:  publisher,
		totals:     cache.NewLRUCache[int64](totalsCacheSize, totalsCacheTTL),
		locks:      make(map[string]*sync.Mutex),
	}
}

// Categories returns the immutable category configuration.
func (s *MessageService) Categories() core.CategorySet {
	return s.categories
}

// StartCacheMaintenance sweeps expired totals until ctx is cancelled.
func (s *MessageService) StartCacheMaintenance(ctx context.Context) {
	s.totals.StartJanitor(ctx, totalsCacheTTL)
}

// HandleMessage processes one message from userID and returns the reply
// text. Store failures are returned to the caller; everything else degrades
// to a defined reply.
func (s *MessageService) HandleMessage(ctx context.Context, userID, text string) (string, error) {
	userLock := s.userLock(userID)
	userLock.Lock()
	defer userLock.Unlock()

	text = core.NormalizeSpaces(text)
	trimmed := strings.TrimSpace(text)

	switch trimmed {
	case "カテゴリー", "カテゴリ":
		cancelled, err := s.clearPending(ctx, userID)
		if err != nil {
			return "", err
		}
		return withCancellationNotice(cancelled, replyCategoryList(s.categories)), nil
	}

	if q, ok := core.ParsePeriodQuery(text, s.clock.Now()); ok && q.Complete() {
		cancelled, err := s.clearPending(ctx, userID)
		if err != nil {
			return "", err
		}
		total, err := s.monthTotal(ctx, userID, q)
		if err != nil {
			return "", err
		}
		slog.InfoContext(ctx, "Period query answered",
			log.FieldUserID, userID, log.FieldYear, q.Year, log.FieldMonth, q.Month,
			log.FieldCategory, q.Category, log.FieldTotal, total)
		return withCancellationNotice(cancelled, replyMonthTotal(q, total)), nil
	}

	if tx := core.Classify(text, s.categories); tx.Valid() {
		return s.handleTransaction(ctx, userID, text, tx)
	}

	return s.resolvePending(ctx, userID, trimmed)
}

// handleTransaction saves a classified message, or arms the confirmation
// slot when the category is unresolved. Either path first clears any stale
// pending record.
func (s *MessageService) handleTransaction(ctx context.Context, userID, text string, tx core.ClassifiedTransaction) (string, error) {
	cancelled, err := s.clearPending(ctx, userID)
	if err != nil {
		return "", err
	}

	if tx.Category == core.CategoryUncategorized {
		p := core.PendingConfirmation{
			UserID:               userID,
			Tag:                  tx.Tag,
			Category:             tx.Category,
			Amount:               *tx.Amount,
			Text:                 text,
			Timestamp:            s.clock.Now(),
			AwaitingConfirmation: true,
		}
		if err := s.setPending(ctx, p); err != nil {
			return "", err
		}
		slog.InfoContext(ctx, "Pending confirmation created",
			log.FieldUserID, userID, log.FieldAmount, p.Amount)
		return withCancellationNotice(cancelled, replyConfirmPrompt(text)), nil
	}

	entry := core.LedgerEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Tag:       tx.Tag,
		Category:  tx.Category,
		Amount:    *tx.Amount,
		Timestamp: s.clock.Now(),
		Text:      text,
	}
	if err := s.appendEntry(ctx, entry); err != nil {
		return "", err
	}
	return withCancellationNotice(cancelled, replySaved(text)), nil
}

// resolvePending handles messages that are neither commands, period queries,
// nor transactions: they either answer an open confirmation or earn the
// format hint.
func (s *MessageService) resolvePending(ctx context.Context, userID, trimmed string) (string, error) {
	p, err := s.getPending(ctx, userID)
	if err != nil {
		return "", err
	}
	if p == nil || !p.AwaitingConfirmation {
		return replyFormatHint, nil
	}

	if trimmed == confirmationToken {
		// The entry is re-stamped at save time; the original message time
		// is kept only in the pending record.
		entry := p.Entry(uuid.NewString(), s.clock.Now())
		if err := s.appendEntry(ctx, entry); err != nil {
			return "", err
		}
		if err := s.deletePending(ctx, userID); err != nil {
			return "", err
		}
		slog.InfoContext(ctx, "Pending confirmation promoted",
			log.FieldUserID, userID, log.FieldAmount, entry.Amount)
		return replySaved(p.Text), nil
	}

	if err := s.deletePending(ctx, userID); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Pending confirmation declined", log.FieldUserID, userID)
	return replyCancelled, nil
}

// MonthTotal computes the aggregate for a complete period query. Exposed for
// callers beyond the dispatch path (reporting, tests).
func (s *MessageService) MonthTotal(ctx context.Context, userID string, q core.PeriodQuery) (int64, error) {
	return s.monthTotal(ctx, userID, q)
}

func (s *MessageService) monthTotal(ctx context.Context, userID string, q core.PeriodQuery) (int64, error) {
	key := totalsKey(userID, q.Year, q.Month, q.Category)
	if total, ok := s.totals.Get(key); ok {
		return total, nil
	}

	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	start, end := q.MonthRange(time.UTC)
	entries, err := s.store.QueryByMonthCategory(cctx, userID, start, end, q.Category)
	if err != nil {
		return 0, fmt.Errorf("query month entries (year=%d, month=%d): %w", q.Year, q.Month, err)
	}

	var total int64
	for _, e := range entries {
		total += e.Amount
	}
	s.totals.Set(key, total)
	return total, nil
}

func (s *MessageService) appendEntry(ctx context.Context, entry core.LedgerEntry) error {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.store.AppendEntry(cctx, entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	s.totals.Delete(totalsKey(entry.UserID, entry.Timestamp.Year(), int(entry.Timestamp.Month()), entry.Category))

	slog.InfoContext(ctx, "Ledger entry saved",
		log.FieldUserID, entry.UserID,
		log.FieldTag, string(entry.Tag),
		log.FieldCategory, entry.Category,
		log.FieldAmount, entry.Amount)

	if s.publisher != nil {
		if err := s.publisher.PublishEntrySaved(ctx, entry.ID); err != nil {
			// The entry is already durable; export lags until the next
			// catch-up pass.
			slog.ErrorContext(ctx, "Failed to publish entry-saved event",
				log.FieldEntryID, entry.ID, log.FieldError, err)
		}
	}
	return nil
}

// clearPending removes a stale awaiting slot before a new actionable message
// proceeds, and reports whether one was removed.
func (s *MessageService) clearPending(ctx context.Context, userID string) (bool, error) {
	p, err := s.getPending(ctx, userID)
	if err != nil {
		return false, err
	}
	if p == nil || !p.AwaitingConfirmation {
		return false, nil
	}
	if err := s.deletePending(ctx, userID); err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "Stale pending confirmation cancelled", log.FieldUserID, userID)
	return true, nil
}

func (s *MessageService) getPending(ctx context.Context, userID string) (*core.PendingConfirmation, error) {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	p, err := s.store.GetPending(cctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get pending confirmation: %w", err)
	}
	return p, nil
}

func (s *MessageService) setPending(ctx context.Context, p core.PendingConfirmation) error {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.store.SetPending(cctx, p); err != nil {
		return fmt.Errorf("set pending confirmation: %w", err)
	}
	return nil
}

func (s *MessageService) deletePending(ctx context.Context, userID string) error {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.store.DeletePending(cctx, userID); err != nil {
		return fmt.Errorf("delete pending confirmation: %w", err)
	}
	return nil
}

// userLock returns the mutex serializing all handling for one user.
// Messages from different users proceed in parallel.
func (s *MessageService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func totalsKey(userID string, year, month int, category string) string {
	return fmt.Sprintf("%s|%d-%02d|%s", userID, year, month, category)
}
