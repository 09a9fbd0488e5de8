package model

import "time"

// NodeState tracks a node through its lifecycle.
type NodeState string

const (
	StateLaunched NodeState = "launched"
	StateExited   NodeState = "exited"
	StateSignaled NodeState = "signaled"
)

// NodeRecord captures the observable state of one launched node, as published
// to the registry and the run journal.
type NodeRecord struct {
	Index      int       `json:"index"`
	Endpoint   Endpoint  `json:"endpoint"`
	Multiaddr  string    `json:"multiaddr"`
	PID        int       `json:"pid"`
	State      NodeState `json:"state"`
	ExitCode   int       `json:"exitCode"`
	LogPath    string    `json:"logPath"`
	LaunchedAt time.Time `json:"launchedAt"`
	ExitedAt   time.Time `json:"exitedAt,omitempty"`
}
