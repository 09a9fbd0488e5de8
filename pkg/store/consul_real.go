//go:build consul

package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"

	"swarmlab/pkg/model"
)

const nodePrefix = "swarmlab/nodes/"

// ConsulStore publishes node records to Consul KV so the swarm is visible
// outside the launcher process.
type ConsulStore struct {
	cli *consulapi.Client
}

// NewConsulStore creates a Consul-backed store (requires build tag consul).
func NewConsulStore(addr string) Store {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, _ := consulapi.NewClient(cfg) // ignore error for build; runtime will report
	return &ConsulStore{cli: cli}
}

func (s *ConsulStore) SaveNode(rec model.NodeRecord) error {
	if s.cli == nil {
		return fmt.Errorf("consul client not configured")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.cli.KV().Put(&consulapi.KVPair{Key: nodeKey(rec.Index), Value: b}, nil)
	return err
}

func (s *ConsulStore) GetNode(index int) (model.NodeRecord, bool, error) {
	if s.cli == nil {
		return model.NodeRecord{}, false, fmt.Errorf("consul client not configured")
	}
	kv, _, err := s.cli.KV().Get(nodeKey(index), nil)
	if err != nil || kv == nil {
		return model.NodeRecord{}, false, err
	}
	var rec model.NodeRecord
	if err := json.Unmarshal(kv.Value, &rec); err != nil {
		return model.NodeRecord{}, false, err
	}
	return rec, true, nil
}

func (s *ConsulStore) ListNodes() ([]model.NodeRecord, error) {
	if s.cli == nil {
		return nil, fmt.Errorf("consul client not configured")
	}
	pairs, _, err := s.cli.KV().List(nodePrefix, nil)
	if err != nil {
		return nil, err
	}
	var out []model.NodeRecord
	for _, p := range pairs {
		var rec model.NodeRecord
		if err := json.Unmarshal(p.Value, &rec); err == nil {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *ConsulStore) Clear() error {
	if s.cli == nil {
		return fmt.Errorf("consul client not configured")
	}
	_, err := s.cli.KV().DeleteTree(nodePrefix, nil)
	return err
}

func nodeKey(index int) string {
	return nodePrefix + strconv.Itoa(index)
}
