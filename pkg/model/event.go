package model

import "time"

// Event types emitted over the status API's websocket feed.
const (
	EventNodeLaunched       = "node_launched"
	EventNodeExited         = "node_exited"
	EventClusterTerminating = "cluster_terminating"
)

// Event is one lifecycle event of the running cluster.
type Event struct {
	Type string      `json:"type"`
	Node *NodeRecord `json:"node,omitempty"`
	Time time.Time   `json:"time"`
}
