package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hamed0406/hostwatcher/internal/domain"
	"github.com/hamed0406/hostwatcher/internal/repo"
)

type Store struct {
	mu     sync.RWMutex
	latest map[domain.Target]domain.CheckResult
	stats  repo.CycleStats
}

func New() *Store {
	return &Store{latest: make(map[domain.Target]domain.CheckResult)}
}

func (m *Store) Append(ctx context.Context, r domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := domain.Target{Host: r.Host, Type: r.Type}
	if cur, ok := m.latest[key]; ok && cur.CheckedAt.After(r.CheckedAt) {
		return nil
	}
	m.latest[key] = r
	return nil
}

// Latest returns one result per host/type, ordered by type then host.
func (m *Store) Latest(ctx context.Context) ([]domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CheckResult, 0, len(m.latest))
	for _, r := range m.latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return typeRank(out[i].Type) < typeRank(out[j].Type)
		}
		return out[i].Host < out[j].Host
	})
	return out, nil
}

// Retain drops results for targets no longer configured.
func (m *Store) Retain(ctx context.Context, targets []domain.Target) {
	keep := make(map[domain.Target]struct{}, len(targets))
	for _, t := range targets {
		keep[t] = struct{}{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.latest {
		if _, ok := keep[k]; !ok {
			delete(m.latest, k)
		}
	}
}

func (m *Store) RecordCycle(ctx context.Context, c repo.CycleStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = c
	return nil
}

func (m *Store) Stats(ctx context.Context) (repo.CycleStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats, nil
}

func typeRank(t domain.CheckType) int {
	switch t {
	case domain.Ping:
		return 0
	case domain.HTTP:
		return 1
	default:
		return 2
	}
}

var _ repo.ResultStore = (*Store)(nil)
