// Package launcher starts one node process per launch plan.
package launcher

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"swarmlab/pkg/model"
	"swarmlab/pkg/proc"
)

// Env vars the node binary reads at startup. PEERS carries the comma-joined
// peer multiaddrs; the log var pins one verbosity level for the whole run.
const (
	peersEnv    = "PEERS"
	logLevelEnv = "RUST_LOG"
)

// LaunchError reports which node failed to start and the underlying OS error.
type LaunchError struct {
	Index int
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch node %d: %v", e.Index, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Launcher starts node processes. Launch is fire-and-forget: it returns as
// soon as the process is started; readiness is the node's own concern.
type Launcher struct {
	Bin      string
	LogLevel string
}

func New(bin, logLevel string) *Launcher {
	return &Launcher{Bin: bin, LogLevel: logLevel}
}

// Launch starts the node for plan: `--port=<port>` on the command line, the
// serialized peer set and log level in the environment, stderr redirected to
// the plan's log file (created fresh each run).
func (l *Launcher) Launch(plan model.LaunchPlan) (*proc.Managed, error) {
	if err := os.MkdirAll(filepath.Dir(plan.LogPath), 0o755); err != nil {
		return nil, &LaunchError{Index: plan.Index, Err: fmt.Errorf("create log dir: %w", err)}
	}
	f, err := os.OpenFile(plan.LogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &LaunchError{Index: plan.Index, Err: fmt.Errorf("open node log: %w", err)}
	}

	cmd := exec.Command(l.Bin, fmt.Sprintf("--port=%d", plan.Endpoint.Port))
	cmd.Env = append(os.Environ(),
		peersEnv+"="+plan.PeerList(),
		logLevelEnv+"="+l.LogLevel,
	)
	cmd.Stderr = f
	proc.ConfigureProcess(cmd)
	if err := cmd.Start(); err != nil {
		_ = f.Close()
		return nil, &LaunchError{Index: plan.Index, Err: err}
	}

	log.Printf("node %d started: pid=%d addr=%s peers=%d log=%s",
		plan.Index, cmd.Process.Pid, plan.Endpoint.Multiaddr(), len(plan.Peers), plan.LogPath)
	return &proc.Managed{
		Index:    plan.Index,
		Endpoint: plan.Endpoint,
		LogPath:  plan.LogPath,
		Cmd:      cmd,
		LogFile:  f,
		Started:  time.Now(),
	}, nil
}

// LaunchAll launches every plan in order, registering each process with the
// group, and seals the group once all plans are submitted. The first failure
// aborts the remaining launches and is returned; nodes already started are
// left running and stay registered.
func LaunchAll(l *Launcher, plans []model.LaunchPlan, g *proc.Group) error {
	for _, plan := range plans {
		m, err := l.Launch(plan)
		if err != nil {
			return err
		}
		g.Register(m)
	}
	g.SealLaunches()
	return nil
}
