// Package store publishes the live cluster membership so external tooling
// can discover the test swarm.
package store

import "swarmlab/pkg/model"

// Store is the registry of launched nodes. Backed by memory by default;
// a Consul KV implementation is available behind the consul build tag.
type Store interface {
	SaveNode(model.NodeRecord) error
	GetNode(index int) (model.NodeRecord, bool, error)
	ListNodes() ([]model.NodeRecord, error)
	Clear() error
}

// NewMemory constructs the in-memory implementation.
func NewMemory() Store {
	return NewMemoryStore()
}
