package store

import (
	"testing"

	"swarmlab/pkg/model"
)

func rec(index, port int, state model.NodeState) model.NodeRecord {
	ep := model.Endpoint{Host: model.LoopbackHost, Port: port}
	return model.NodeRecord{Index: index, Endpoint: ep, Multiaddr: ep.Multiaddr(), State: state}
}

func TestMemoryStoreSaveGet(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SaveNode(rec(0, 10000, model.StateLaunched)); err != nil {
		t.Fatalf("SaveNode: %v", err)
	}

	got, ok, err := m.GetNode(0)
	if err != nil || !ok {
		t.Fatalf("GetNode: ok=%v err=%v", ok, err)
	}
	if got.Endpoint.Port != 10000 || got.State != model.StateLaunched {
		t.Errorf("unexpected record: %+v", got)
	}

	if _, ok, _ := m.GetNode(7); ok {
		t.Error("expected miss for unknown index")
	}
}

func TestMemoryStoreUpsertOverwrites(t *testing.T) {
	m := NewMemoryStore()
	_ = m.SaveNode(rec(0, 10000, model.StateLaunched))
	_ = m.SaveNode(rec(0, 10000, model.StateExited))

	got, _, _ := m.GetNode(0)
	if got.State != model.StateExited {
		t.Errorf("expected exited state, got %s", got.State)
	}
	nodes, _ := m.ListNodes()
	if len(nodes) != 1 {
		t.Errorf("expected 1 record after upsert, got %d", len(nodes))
	}
}

func TestMemoryStoreListOrdered(t *testing.T) {
	m := NewMemoryStore()
	for _, i := range []int{2, 0, 1} {
		_ = m.SaveNode(rec(i, 10000+i, model.StateLaunched))
	}
	nodes, err := m.ListNodes()
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	for i, n := range nodes {
		if n.Index != i {
			t.Errorf("position %d: expected index %d, got %d", i, i, n.Index)
		}
	}
}

func TestMemoryStoreClear(t *testing.T) {
	m := NewMemoryStore()
	_ = m.SaveNode(rec(0, 10000, model.StateLaunched))
	if err := m.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	nodes, _ := m.ListNodes()
	if len(nodes) != 0 {
		t.Errorf("expected empty store, got %d records", len(nodes))
	}
}
