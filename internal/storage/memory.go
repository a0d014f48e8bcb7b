package storage

import (
	"context"
	"sync"
	"time"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
)

// MemoryStore is a map-backed Store used for local development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries []core.LedgerEntry
	pending map[string]core.PendingConfirmation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pending: make(map[string]core.PendingConfirmation),
	}
}

func (s *MemoryStore) AppendEntry(_ context.Context, entry core.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) GetEntry(_ context.Context, id string) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return core.LedgerEntry{}, ErrNotFound
}

func (s *MemoryStore) QueryByMonthCategory(_ context.Context, userID string, start, end time.Time, category string) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if e.UserID != userID || e.Category != category {
			continue
		}
		if e.Timestamp.Before(start) || e.Timestamp.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *MemoryStore) ListUnexported(_ context.Context, limit int) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if e.Exported {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkExported(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Exported = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) GetPending(_ context.Context, userID string) (*core.PendingConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) SetPending(_ context.Context, p core.PendingConfirmation) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[p.UserID] = p
	return nil
}

func (s *MemoryStore) DeletePending(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
	return nil
}

// EntryCount reports the number of stored entries; test helper.
func (s *MemoryStore) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
