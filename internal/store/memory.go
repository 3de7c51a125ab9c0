package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cardlens/cardlens/internal/card"
	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/ocr"
)

// Memory is an in-memory Store used by tests and the CLI default.
// Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	cards   map[string]card.BusinessCard
	results map[string]ocr.Result
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		cards:   make(map[string]card.BusinessCard),
		results: make(map[string]ocr.Result),
	}
}

func (m *Memory) Save(_ context.Context, c card.BusinessCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cards[c.ID]; exists {
		return errx.Newf(errx.KindDataSource, "card %s already exists", c.ID)
	}
	m.cards[c.ID] = c
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (card.BusinessCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cards[id]
	if !ok {
		return card.BusinessCard{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) Update(_ context.Context, c card.BusinessCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cards[c.ID]; !exists {
		return ErrNotFound
	}
	m.cards[c.ID] = c
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cards[id]; !exists {
		return ErrNotFound
	}
	delete(m.cards, id)
	return nil
}

func (m *Memory) Search(_ context.Context, q Query) ([]card.BusinessCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]card.BusinessCard, 0, len(m.cards))
	for _, c := range m.cards {
		if matches(c, q) {
			matched = append(matched, c)
		}
	}
	sortNewestFirst(matched)
	return paginate(matched, q.Limit, q.Offset), nil
}

func (m *Memory) List(_ context.Context, limit, offset int) ([]card.BusinessCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]card.BusinessCard, 0, len(m.cards))
	for _, c := range m.cards {
		all = append(all, c)
	}
	sortNewestFirst(all)
	return paginate(all, limit, offset), nil
}

func (m *Memory) SaveResult(_ context.Context, r ocr.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[r.ID] = r
	return nil
}

func (m *Memory) History(_ context.Context, limit, offset int) ([]ocr.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]ocr.Result, 0, len(m.results))
	for _, r := range m.results {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].ProcessedAt.Equal(all[j].ProcessedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].ProcessedAt.After(all[j].ProcessedAt)
	})
	return paginate(all, limit, offset), nil
}

func (m *Memory) DeleteResult(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.results[id]; !exists {
		return ErrNotFound
	}
	delete(m.results, id)
	return nil
}

func (m *Memory) CleanupOldResults(_ context.Context, olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for id, r := range m.results {
		if r.ProcessedAt.Before(cutoff) {
			delete(m.results, id)
			removed++
		}
	}
	return removed, nil
}

func matches(c card.BusinessCard, q Query) bool {
	if q.FavoritesOnly && !c.IsFavorite {
		return false
	}
	if q.Tag != "" {
		found := false
		for _, tag := range c.Tags {
			if tag == q.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Text != "" {
		needle := strings.ToLower(q.Text)
		if !strings.Contains(strings.ToLower(c.Name), needle) &&
			!strings.Contains(strings.ToLower(c.Company), needle) &&
			!strings.Contains(strings.ToLower(c.Email), needle) {
			return false
		}
	}
	return true
}

func sortNewestFirst(cards []card.BusinessCard) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].ID < cards[j].ID
		}
		return cards[i].CreatedAt.After(cards[j].CreatedAt)
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
