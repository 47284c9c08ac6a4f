package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"jobmate/harvester-service/internal/model"
)

// Memory is an in-process Store for tests and dry runs.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	progress map[string]*model.RunProgress
	jobs     map[int64]model.JobRecord
	order    []int64
}

func NewMemory() *Memory {
	return &Memory{
		progress: make(map[string]*model.RunProgress),
		jobs:     make(map[int64]model.JobRecord),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Write(_ context.Context, p model.RunProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.progress[p.Platform]
	if !ok {
		m.nextID++
		row = &model.RunProgress{ID: m.nextID, Platform: p.Platform}
		m.progress[p.Platform] = row
	}
	row.Total = p.Total
	row.Current = p.Current
	row.Successful = p.Successful
	row.Failed = p.Failed
	row.Status = p.Status
	row.LastUpdated = p.LastUpdated
	return nil
}

func (m *Memory) SetProcessHandle(_ context.Context, platform string, pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.progress[platform]
	if !ok {
		return fmt.Errorf("progress row %s: %w", platform, ErrNotFound)
	}
	row.ProcessID = pid
	return nil
}

func (m *Memory) SetStatus(_ context.Context, status model.RunStatus, platform string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.progress[platform]; ok {
		row.Status = status
	}
	return nil
}

func (m *Memory) ListAll(_ context.Context) ([]model.RunProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.RunProgress, 0, len(m.progress))
	for _, row := range m.progress {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func (m *Memory) Get(_ context.Context, platform string) (*model.RunProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.progress[platform]
	if !ok {
		return nil, fmt.Errorf("progress row %s: %w", platform, ErrNotFound)
	}
	cp := *row
	return &cp, nil
}

func (m *Memory) Save(_ context.Context, r model.JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.jobs[r.JobID]; dup {
		return fmt.Errorf("job %d: %w", r.JobID, ErrDuplicate)
	}
	m.jobs[r.JobID] = r
	m.order = append(m.order, r.JobID)
	return nil
}

func (m *Memory) Query(_ context.Context, limit int) ([]model.JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit = queryLimit(limit)
	out := make([]model.JobRecord, 0, min(limit, len(m.order)))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.jobs[m.order[i]])
	}
	return out, nil
}
