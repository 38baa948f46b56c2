package pvpc4

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/Cheese-Connect4-bot/internal/domain"
)

// MemoryResults is the in-process ResultStore used when no database is configured.
type MemoryResults struct {
	mu        sync.RWMutex
	byID      map[string]domain.GameResult
	byAccount map[string][]string
}

func NewMemoryResults() *MemoryResults {
	return &MemoryResults{
		byID:      make(map[string]domain.GameResult),
		byAccount: make(map[string][]string),
	}
}

func (m *MemoryResults) SaveResult(_ context.Context, res domain.GameResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[res.SessionID]; !exists {
		m.byAccount[res.First] = append(m.byAccount[res.First], res.SessionID)
		m.byAccount[res.Second] = append(m.byAccount[res.Second], res.SessionID)
	}
	m.byID[res.SessionID] = res
	return nil
}

func (m *MemoryResults) RecentResults(_ context.Context, account string, limit int) ([]domain.GameResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.byAccount[account]
	items := make([]domain.GameResult, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		items = append(items, m.byID[ids[i]])
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].EndedAt.After(items[j].EndedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryResults) Close() error { return nil }
