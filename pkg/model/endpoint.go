package model

import (
	"fmt"
	"strings"
)

// LoopbackHost is the only host the launcher binds nodes to.
const LoopbackHost = "127.0.0.1"

// Endpoint is the local TCP address assigned to exactly one node.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Multiaddr renders the endpoint in the node binary's native addressing scheme.
func (e Endpoint) Multiaddr() string {
	return fmt.Sprintf("/ip4/%s/tcp/%d", e.Host, e.Port)
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// JoinMultiaddrs serializes a peer set into the comma-joined form the node
// binary reads from its peer-list env var. Order is preserved exactly; the
// wire format must be stable across runs with the same node count.
func JoinMultiaddrs(peers []Endpoint) string {
	if len(peers) == 0 {
		return ""
	}
	parts := make([]string, 0, len(peers))
	for _, p := range peers {
		parts = append(parts, p.Multiaddr())
	}
	return strings.Join(parts, ",")
}
