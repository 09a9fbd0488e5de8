// Package proc tracks launched node processes as a single unit: every process
// registers with the Group, the Group is joined once, and one external
// cancellation terminates every tracked process.
package proc

import (
	"context"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"swarmlab/pkg/model"
)

// Managed is one running node process owned by the Group from launch until
// it is reaped.
type Managed struct {
	Index    int
	Endpoint model.Endpoint
	LogPath  string
	Cmd      *exec.Cmd
	LogFile  *os.File
	Started  time.Time
}

// PID returns the OS pid, or 0 before the process is started.
func (m *Managed) PID() int {
	if m.Cmd == nil || m.Cmd.Process == nil {
		return 0
	}
	return m.Cmd.Process.Pid
}

// State is the group lifecycle: Launching accepts registrations, Running
// means all plans were submitted, Terminating means the kill request was
// triggered, Drained means the group is done with its processes.
type State int

const (
	Launching State = iota
	Running
	Terminating
	Drained
)

func (s State) String() string {
	switch s {
	case Launching:
		return "launching"
	case Running:
		return "running"
	case Terminating:
		return "terminating"
	case Drained:
		return "drained"
	default:
		return "unknown"
	}
}

// Notifier observes node lifecycle transitions. Implementations must not
// block; they are called from the launch path and from reaper goroutines.
type Notifier interface {
	NodeLaunched(model.NodeRecord)
	NodeExited(model.NodeRecord)
	Terminating()
}

// Group is the tracked set of node processes for one run. The tracked map is
// the only state shared between the launch/await path and the asynchronous
// termination path; every access holds mu.
type Group struct {
	mu       sync.Mutex
	state    State
	tracked  map[int]*Managed
	nonZero  int
	wg       sync.WaitGroup
	notifier Notifier
}

func NewGroup(n Notifier) *Group {
	return &Group{
		tracked:  map[int]*Managed{},
		notifier: n,
	}
}

// Register adds a started process to the tracked set and spawns its reaper.
// If termination was already triggered, the process is signaled immediately
// so a registration racing the kill request cannot miss it.
func (g *Group) Register(m *Managed) {
	g.mu.Lock()
	g.tracked[m.Index] = m
	late := g.state >= Terminating
	g.mu.Unlock()

	if late {
		terminateProcess(m.Cmd)
	}
	if g.notifier != nil {
		g.notifier.NodeLaunched(record(m, model.StateLaunched, 0))
	}
	g.wg.Add(1)
	go g.reap(m)
}

// SealLaunches marks the end of the launch phase.
func (g *Group) SealLaunches() {
	g.mu.Lock()
	if g.state == Launching {
		g.state = Running
	}
	g.mu.Unlock()
}

// Terminate sends a termination request to every currently tracked process.
// One-shot and best-effort: it snapshots the tracked set under the lock,
// signals each process group, and returns without waiting for exits.
func (g *Group) Terminate() {
	g.mu.Lock()
	if g.state >= Terminating {
		g.mu.Unlock()
		return
	}
	g.state = Terminating
	snapshot := make([]*Managed, 0, len(g.tracked))
	for _, m := range g.tracked {
		snapshot = append(snapshot, m)
	}
	g.mu.Unlock()

	log.Printf("terminating %d node(s)", len(snapshot))
	for _, m := range snapshot {
		terminateProcess(m.Cmd)
	}
	// Notify only after every kill request is out; a stalled sink must not
	// delay the termination requests.
	if g.notifier != nil {
		g.notifier.Terminating()
	}
}

// Wait blocks until every tracked process has been reaped, or until ctx is
// cancelled, in which case it issues the group termination request and
// returns without waiting for exit confirmation.
func (g *Group) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		g.Terminate()
	}
	g.mu.Lock()
	g.state = Drained
	g.mu.Unlock()
}

// State reports the current group state.
func (g *Group) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Len reports how many processes are currently tracked.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tracked)
}

// NonZeroExits reports how many reaped nodes exited with a non-zero status.
func (g *Group) NonZeroExits() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nonZero
}

func (g *Group) reap(m *Managed) {
	defer g.wg.Done()
	err := m.Cmd.Wait()
	if m.LogFile != nil {
		_ = m.LogFile.Close()
	}

	code := 0
	if m.Cmd.ProcessState != nil {
		code = m.Cmd.ProcessState.ExitCode()
	}
	state := model.StateExited
	if code == -1 {
		state = model.StateSignaled
	}

	g.mu.Lock()
	delete(g.tracked, m.Index)
	if code > 0 {
		g.nonZero++
	}
	g.mu.Unlock()

	if err != nil {
		log.Printf("node %d exited: pid=%d code=%d err=%v", m.Index, m.PID(), code, err)
	} else {
		log.Printf("node %d exited: pid=%d code=0", m.Index, m.PID())
	}
	if g.notifier != nil {
		g.notifier.NodeExited(record(m, state, code))
	}
}

func record(m *Managed, state model.NodeState, code int) model.NodeRecord {
	rec := model.NodeRecord{
		Index:      m.Index,
		Endpoint:   m.Endpoint,
		Multiaddr:  m.Endpoint.Multiaddr(),
		PID:        m.PID(),
		State:      state,
		ExitCode:   code,
		LogPath:    m.LogPath,
		LaunchedAt: m.Started,
	}
	if state != model.StateLaunched {
		rec.ExitedAt = time.Now()
	}
	return rec
}
