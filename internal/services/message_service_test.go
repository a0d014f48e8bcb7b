package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/storage"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type capturingPublisher struct {
	entryIDs []string
}

func (p *capturingPublisher) PublishEntrySaved(_ context.Context, entryID string) error {
	p.entryIDs = append(p.entryIDs, entryID)
	return nil
}

func newTestService() (*MessageService, *storage.MemoryStore, *stepClock, *capturingPublisher) {
	store := storage.NewMemoryStore()
	clock := &stepClock{now: time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)}
	pub := &capturingPublisher{}
	categories := core.CategorySet{
		Income:         []string{"給料"},
		Expense:        []string{"食費", "交通費"},
		FinancialAsset: []string{"投資信託"},
	}
	return NewMessageService(store, categories, clock, pub), store, clock, pub
}

func TestHandleMessageDirectSave(t *testing.T) {
	ctx := context.Background()
	svc, store, clock, pub := newTestService()

	reply, err := svc.HandleMessage(ctx, "user-a", "食費500円")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != "保存しました: 食費500円" {
		t.Fatalf("reply = %q", reply)
	}
	if store.EntryCount() != 1 {
		t.Fatalf("entry count = %d, want 1", store.EntryCount())
	}
	if len(pub.entryIDs) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.entryIDs))
	}

	entry, err := store.GetEntry(ctx, pub.entryIDs[0])
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if entry.Tag != core.TagExpense || entry.Category != "食費" || entry.Amount != 500 {
		t.Fatalf("entry = %+v", entry)
	}
	if !entry.Timestamp.Equal(clock.Now()) {
		t.Fatalf("timestamp = %v, want %v", entry.Timestamp, clock.Now())
	}
}

func TestHandleMessageConfirmationPromotes(t *testing.T) {
	ctx := context.Background()
	svc, store, clock, pub := newTestService()

	reply, err := svc.HandleMessage(ctx, "user-a", "コーヒー 500円")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(reply, "カテゴリが未分類です。") {
		t.Fatalf("expected confirmation prompt, got %q", reply)
	}
	if p, _ := store.GetPending(ctx, "user-a"); p == nil || !p.AwaitingConfirmation {
		t.Fatalf("pending slot not armed: %+v", p)
	}
	if store.EntryCount() != 0 {
		t.Fatalf("nothing should be saved before confirmation")
	}

	messageTime := clock.Now()
	clock.advance(10 * time.Minute)

	reply, err = svc.HandleMessage(ctx, "user-a", "はい")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if reply != "保存しました: コーヒー 500円" {
		t.Fatalf("reply = %q", reply)
	}
	if store.EntryCount() != 1 {
		t.Fatalf("entry count = %d, want 1", store.EntryCount())
	}
	if p, _ := store.GetPending(ctx, "user-a"); p != nil {
		t.Fatalf("pending slot should be cleared")
	}

	entry, err := store.GetEntry(ctx, pub.entryIDs[0])
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	// Promotion re-stamps: the saved timestamp is the confirmation instant,
	// not the original message time.
	if entry.Timestamp.Equal(messageTime) || !entry.Timestamp.Equal(clock.Now()) {
		t.Fatalf("timestamp = %v, want promotion time %v", entry.Timestamp, clock.Now())
	}
	if entry.Amount != 500 || entry.Category != core.CategoryUncategorized {
		t.Fatalf("promoted entry = %+v", entry)
	}
}

func TestHandleMessageZeroAmount(t *testing.T) {
	ctx := context.Background()
	svc, store, _, pub := newTestService()

	// Zero parses like any other amount; a keyword match saves directly.
	reply, err := svc.HandleMessage(ctx, "user-a", "食費0円")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != "保存しました: 食費0円" {
		t.Fatalf("reply = %q", reply)
	}
	entry, err := store.GetEntry(ctx, pub.entryIDs[0])
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if entry.Amount != 0 || entry.Category != "食費" {
		t.Fatalf("entry = %+v", entry)
	}

	// Without a keyword the zero amount still arms the confirmation slot.
	reply, err = svc.HandleMessage(ctx, "user-a", "コーヒー0円")
	if err != nil {
		t.Fatalf("handle uncategorized: %v", err)
	}
	if !strings.Contains(reply, "カテゴリが未分類です。") {
		t.Fatalf("expected confirmation prompt, got %q", reply)
	}
	if p, _ := store.GetPending(ctx, "user-a"); p == nil || p.Amount != 0 {
		t.Fatalf("pending slot = %+v, want armed with amount 0", p)
	}

	if _, err := svc.HandleMessage(ctx, "user-a", "はい"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if store.EntryCount() != 2 {
		t.Fatalf("entry count = %d, want 2", store.EntryCount())
	}
}

func TestHandleMessageDeclineDeletes(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService()

	if _, err := svc.HandleMessage(ctx, "user-a", "コーヒー 500円"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	reply, err := svc.HandleMessage(ctx, "user-a", "いいえ")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if reply != replyCancelled {
		t.Fatalf("reply = %q", reply)
	}
	if store.EntryCount() != 0 {
		t.Fatalf("decline must not save an entry")
	}
	if p, _ := store.GetPending(ctx, "user-a"); p != nil {
		t.Fatalf("pending slot should be cleared")
	}
}

func TestHandleMessageNewTransactionSupersedesPending(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService()

	if _, err := svc.HandleMessage(ctx, "user-a", "コーヒー 500円"); err != nil {
		t.Fatalf("first: %v", err)
	}
	reply, err := svc.HandleMessage(ctx, "user-a", "ケーキ 800円")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !strings.HasPrefix(reply, replyCancelled) {
		t.Fatalf("expected cancellation notice, got %q", reply)
	}
	if !strings.Contains(reply, "内容: ケーキ 800円") {
		t.Fatalf("expected prompt for new message, got %q", reply)
	}

	p, _ := store.GetPending(ctx, "user-a")
	if p == nil || p.Amount != 800 {
		t.Fatalf("pending = %+v, want the superseding message", p)
	}
	if store.EntryCount() != 0 {
		t.Fatalf("no entry should exist")
	}
}

func TestHandleMessagePeriodQuery(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	// Clock is fixed at 2024-02-15; seed entries in February and January.
	if _, err := svc.HandleMessage(ctx, "user-a", "食費500円"); err != nil {
		t.Fatalf("seed 1: %v", err)
	}
	if _, err := svc.HandleMessage(ctx, "user-a", "食費300円"); err != nil {
		t.Fatalf("seed 2: %v", err)
	}
	if _, err := svc.HandleMessage(ctx, "user-a", "交通費200円"); err != nil {
		t.Fatalf("seed 3: %v", err)
	}

	reply, err := svc.HandleMessage(ctx, "user-a", "今月の食費")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if reply != "2024年2月の「食費」は 800円 です。" {
		t.Fatalf("reply = %q", reply)
	}

	// Empty matching set aggregates to zero, not an error.
	reply, err = svc.HandleMessage(ctx, "user-a", "先月の食費")
	if err != nil {
		t.Fatalf("empty query: %v", err)
	}
	if reply != "2024年1月の「食費」は 0円 です。" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestHandleMessageIncompletePeriodQueryFallsThrough(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService()

	// A month token without a category phrase must not aggregate; the text
	// is not a transaction either, so the format hint applies.
	reply, err := svc.HandleMessage(ctx, "user-a", "今月")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != replyFormatHint {
		t.Fatalf("reply = %q", reply)
	}
	if store.EntryCount() != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestHandleMessageCategoryListCommand(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService()

	for _, command := range []string{"カテゴリー", "カテゴリ"} {
		reply, err := svc.HandleMessage(ctx, "user-a", command)
		if err != nil {
			t.Fatalf("%s: %v", command, err)
		}
		for _, want := range []string{"📂 カテゴリ一覧", "- 食費", "- 給料", "- 投資信託"} {
			if !strings.Contains(reply, want) {
				t.Fatalf("%s reply missing %q:\n%s", command, want, reply)
			}
		}
	}

	// The command also cancels an open confirmation.
	if _, err := svc.HandleMessage(ctx, "user-a", "コーヒー 500円"); err != nil {
		t.Fatalf("arm pending: %v", err)
	}
	reply, err := svc.HandleMessage(ctx, "user-a", "カテゴリ")
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	if !strings.HasPrefix(reply, replyCancelled) {
		t.Fatalf("expected cancellation notice, got %q", reply)
	}
	if p, _ := store.GetPending(ctx, "user-a"); p != nil {
		t.Fatalf("pending slot should be cleared")
	}
}

func TestHandleMessageFormatHint(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	reply, err := svc.HandleMessage(ctx, "user-a", "こんにちは")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != replyFormatHint {
		t.Fatalf("reply = %q", reply)
	}
}

func TestHandleMessageFullWidthSpaceAndDigits(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService()

	if _, err := svc.HandleMessage(ctx, "user-a", "給料　３０００００円"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.EntryCount() != 1 {
		t.Fatalf("entry count = %d, want 1", store.EntryCount())
	}

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)
	entries, err := store.QueryByMonthCategory(ctx, "user-a", start, end, "給料")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 1 || entries[0].Amount != 300000 || entries[0].Tag != core.TagIncome {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestHandleMessageUsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService()

	if _, err := svc.HandleMessage(ctx, "user-a", "コーヒー 500円"); err != nil {
		t.Fatalf("user-a: %v", err)
	}
	// user-b's message must not touch user-a's pending slot.
	if _, err := svc.HandleMessage(ctx, "user-b", "食費300円"); err != nil {
		t.Fatalf("user-b: %v", err)
	}

	if p, _ := store.GetPending(ctx, "user-a"); p == nil {
		t.Fatalf("user-a pending slot must survive user-b's message")
	}
}
