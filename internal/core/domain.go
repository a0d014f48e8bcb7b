package core

import (
	"errors"
	"strings"
	"time"
)

// Tag is the top-level financial classification of a message.
// Values are the Japanese labels stored as-is in the ledger.
type Tag string

const (
	TagIncome         Tag = "収入"
	TagExpense        Tag = "支出"
	TagFinancialAsset Tag = "金融資産"
	TagUnknown        Tag = "不明"
)

// CategoryUncategorized is the sentinel category for messages that parsed as
// a transaction but matched no configured keyword.
const CategoryUncategorized = "未分類"

type (
	// ClassifiedTransaction is the result of classifying one message line.
	// Amount is nil iff the line did not parse as a transaction at all.
	ClassifiedTransaction struct {
		Tag      Tag
		Category string
		Amount   *int64
	}

	// LedgerEntry is one saved transaction. Entries are immutable once
	// stored; only the export marker flips after the fact.
	LedgerEntry struct {
		ID        string    `bson:"_id" json:"id"`
		UserID    string    `bson:"user_id" json:"user_id"`
		Tag       Tag       `bson:"tag" json:"tag"`
		Category  string    `bson:"category" json:"category"`
		Amount    int64     `bson:"amount" json:"amount"`
		Timestamp time.Time `bson:"timestamp" json:"timestamp"`
		Text      string    `bson:"text" json:"text"`
		Exported  bool      `bson:"exported" json:"exported"`
	}

	// PendingConfirmation is the single per-user slot holding an
	// uncategorized transaction that awaits a yes/no reply.
	PendingConfirmation struct {
		UserID               string    `bson:"user_id" json:"user_id"`
		Tag                  Tag       `bson:"tag" json:"tag"`
		Category             string    `bson:"category" json:"category"`
		Amount               int64     `bson:"amount" json:"amount"`
		Text                 string    `bson:"text" json:"text"`
		Timestamp            time.Time `bson:"timestamp" json:"timestamp"`
		AwaitingConfirmation bool      `bson:"awaiting_confirmation" json:"awaiting_confirmation"`
	}

	// PeriodQuery is a parsed month-and-category request. Category may be
	// empty, in which case the query is incomplete and must not aggregate.
	PeriodQuery struct {
		Year     int
		Month    int
		Category string
	}
)

var (
	ErrEmptyUserID   = errors.New("empty user id")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrZeroTimestamp = errors.New("zero timestamp")
)

// Valid reports whether the classification came from a recognized
// transaction line. The category may still be uncategorized.
func (t ClassifiedTransaction) Valid() bool {
	return t.Amount != nil
}

// Complete reports whether the query resolved both a month and a category.
func (q PeriodQuery) Complete() bool {
	return q.Month != 0 && q.Category != ""
}

// MonthRange returns the inclusive calendar-month boundary of the query:
// first instant of the month through 23:59:59 of its last day.
func (q PeriodQuery) MonthRange(loc *time.Location) (start, end time.Time) {
	start = time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

func (e LedgerEntry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	// Zero is a legal amount; the classifier grammar admits it.
	if e.Amount < 0 {
		return ErrInvalidAmount
	}
	if e.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

func (p PendingConfirmation) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrEmptyUserID
	}
	if p.Amount < 0 {
		return ErrInvalidAmount
	}
	if p.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

// Entry converts a confirmed pending record into a ledger entry. The entry
// is stamped with savedAt, not the original message time; the save instant
// is authoritative for month aggregation.
func (p PendingConfirmation) Entry(id string, savedAt time.Time) LedgerEntry {
	return LedgerEntry{
		ID:        id,
		UserID:    p.UserID,
		Tag:       p.Tag,
		Category:  p.Category,
		Amount:    p.Amount,
		Timestamp: savedAt,
		Text:      p.Text,
	}
}
