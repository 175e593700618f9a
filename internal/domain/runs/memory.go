package runs

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the most recent runs in process when no database is
// configured. Older runs are dropped once capacity is reached.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	runs     []Run
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 200
	}
	return &MemoryStore{capacity: capacity}
}

func (m *MemoryStore) Insert(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	if over := len(m.runs) - m.capacity; over > 0 {
		m.runs = append([]Run(nil), m.runs[over:]...)
	}
	return nil
}

func (m *MemoryStore) Complete(_ context.Context, id, status, errMsg string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			completed := at
			m.runs[i].Status = status
			m.runs[i].Error = errMsg
			m.runs[i].CompletedAt = &completed
			return nil
		}
	}
	return ErrRunNotFound
}

func (m *MemoryStore) List(_ context.Context, limit, offset int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Run{}
	for i := len(m.runs) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}
