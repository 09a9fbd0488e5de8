// Package topology derives the launch plan for every node in a run: a unique
// loopback endpoint per index, and a peer set naming all earlier nodes.
package topology

import (
	"fmt"
	"path/filepath"

	"swarmlab/pkg/model"
)

// Endpoint maps a node index to its unique local endpoint. Pure: the port is
// always basePort+index, so endpoints never collide within a run.
func Endpoint(basePort, index int) model.Endpoint {
	return model.Endpoint{Host: model.LoopbackHost, Port: basePort + index}
}

// Planner hands out launch plans in strictly increasing index order. Each
// plan's peer set is a snapshot of every endpoint allocated before it, in
// allocation order, so node 0 starts with no peers and node k with exactly k.
type Planner struct {
	basePort int
	logDir   string
	next     int
	known    []model.Endpoint
}

func NewPlanner(basePort int, logDir string) *Planner {
	return &Planner{basePort: basePort, logDir: logDir}
}

// Next returns the plan for the next index and records its endpoint for all
// later plans. The returned peer set is a copy; later calls never mutate it.
func (p *Planner) Next() model.LaunchPlan {
	ep := Endpoint(p.basePort, p.next)
	peers := make([]model.Endpoint, len(p.known))
	copy(peers, p.known)
	plan := model.LaunchPlan{
		Index:    p.next,
		Endpoint: ep,
		Peers:    peers,
		LogPath:  filepath.Join(p.logDir, fmt.Sprintf("%d.log", ep.Port)),
	}
	p.known = append(p.known, ep)
	p.next++
	return plan
}

// BuildPlans produces the plans for a whole run: indices 0..count inclusive,
// count+1 plans in total.
func BuildPlans(count, basePort int, logDir string) []model.LaunchPlan {
	p := NewPlanner(basePort, logDir)
	plans := make([]model.LaunchPlan, 0, count+1)
	for i := 0; i <= count; i++ {
		plans = append(plans, p.Next())
	}
	return plans
}
