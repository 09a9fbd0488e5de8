package store

import (
	"sort"
	"sync"

	"swarmlab/pkg/model"
)

// MemoryStore is the in-memory registry used when no external store is
// configured.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[int]model.NodeRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[int]model.NodeRecord)}
}

func (m *MemoryStore) SaveNode(rec model.NodeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[rec.Index] = rec
	return nil
}

func (m *MemoryStore) GetNode(index int) (model.NodeRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.nodes[index]
	return rec, ok, nil
}

func (m *MemoryStore) ListNodes() ([]model.NodeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.NodeRecord, 0, len(m.nodes))
	for _, rec := range m.nodes {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[int]model.NodeRecord)
	return nil
}
