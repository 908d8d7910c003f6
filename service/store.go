package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// MemoryDraftStore keeps drafts in process memory. It is the default store
// and the one tests use.
type MemoryDraftStore struct {
	drafts     map[string]*memoryDraft
	mu         sync.RWMutex
	maxEntries int // Maximum drafts to keep, 0 = unlimited
	now        func() time.Time
}

type memoryDraft struct {
	value     string
	updatedAt time.Time
}

func NewMemoryDraftStore(maxEntries int) *MemoryDraftStore {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &MemoryDraftStore{
		drafts:     make(map[string]*memoryDraft),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryDraftStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[key]
	observeDraftOp("memory", "get", nil)
	if !ok {
		return "", false, nil
	}
	return d.value, true, nil
}

func (s *MemoryDraftStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drafts[key] = &memoryDraft{value: value, updatedAt: s.now()}
	s.cleanupIfNeeded()
	observeDraftOp("memory", "set", nil)
	return nil
}

func (s *MemoryDraftStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
	observeDraftOp("memory", "delete", nil)
	return nil
}

// Count returns the number of drafts in the store
func (s *MemoryDraftStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// cleanupIfNeeded removes the least recently written drafts once the store
// exceeds maxEntries. Must be called with lock held.
func (s *MemoryDraftStore) cleanupIfNeeded() {
	if s.maxEntries <= 0 || len(s.drafts) <= s.maxEntries {
		return
	}

	keys := make([]string, 0, len(s.drafts))
	for k := range s.drafts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.drafts[keys[i]].updatedAt.Before(s.drafts[keys[j]].updatedAt)
	})

	removeCount := len(keys) - s.maxEntries
	for i := 0; i < removeCount; i++ {
		slog.Info("evicting old draft",
			"key", keys[i],
			"updated_at", s.drafts[keys[i]].updatedAt,
		)
		delete(s.drafts, keys[i])
	}
}
