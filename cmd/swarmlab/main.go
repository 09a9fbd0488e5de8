package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"swarmlab/pkg/api"
	"swarmlab/pkg/config"
	"swarmlab/pkg/journal"
	"swarmlab/pkg/launcher"
	"swarmlab/pkg/model"
	"swarmlab/pkg/proc"
	"swarmlab/pkg/store"
	"swarmlab/pkg/topology"
	"swarmlab/pkg/version"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("SWARMLAB_CONFIG"), "cluster config file, yaml or json (optional)")
	showVersion := flag.Bool("v", false, "print version and exit")
	basePort := flag.Int("base-port", 0, "first node port; node k listens on base+k")
	bin := flag.String("bin", "", "node binary path")
	logDir := flag.String("log-dir", "", "directory for per-node logs")
	logLevel := flag.String("log-level", "", "node log verbosity for the whole run")
	apiAddr := flag.String("api", "", "status API listen address (empty = disabled)")
	storeType := flag.String("store", "", "registry backend: memory|consul (consul requires build tag consul)")
	consulAddr := flag.String("consul-addr", "", "consul address (when store=consul)")
	journalPath := flag.String("journal", "", "sqlite run journal path (empty = disabled)")
	failOnExit := flag.Bool("fail-on-exit", false, "treat a non-zero node exit as a run failure")
	flag.Parse()

	if *showVersion {
		log.Printf("swarmlab version=%s", version.Build)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// Explicit flags win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-port":
			cfg.BasePort = *basePort
		case "bin":
			cfg.Bin = *bin
		case "log-dir":
			cfg.LogDir = *logDir
		case "log-level":
			cfg.LogLevel = *logLevel
		case "api":
			cfg.APIAddr = *apiAddr
		case "store":
			cfg.StoreType = *storeType
		case "consul-addr":
			cfg.ConsulAddr = *consulAddr
		case "journal":
			cfg.JournalPath = *journalPath
		case "fail-on-exit":
			cfg.FailOnExit = *failOnExit
		}
	})
	if flag.NArg() > 0 {
		n, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			log.Fatalf("node count %q: %v", flag.Arg(0), err)
		}
		cfg.Nodes = n
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	var st store.Store
	switch cfg.StoreType {
	case "consul":
		st = store.NewConsulStore(cfg.ConsulAddr)
	case "memory":
		st = store.NewMemory()
	default:
		log.Fatalf("unsupported store type: %s", cfg.StoreType)
	}
	if err := st.Clear(); err != nil {
		log.Printf("registry clear failed: %v", err)
	}

	var jr *journal.Journal
	if cfg.JournalPath != "" {
		jr, err = journal.Open(cfg.JournalPath)
		if err != nil {
			log.Fatalf("journal: %v", err)
		}
		defer jr.Close()
		log.Printf("journal run=%s path=%s", jr.RunID(), cfg.JournalPath)
	}

	var hub *api.Hub
	if cfg.APIAddr != "" {
		hub = api.NewHub()
	}
	group := proc.NewGroup(&notifier{st: st, jr: jr, hub: hub})
	if hub != nil {
		srv := api.NewServer(st, hub, func() string { return group.State().String() })
		go func() {
			if err := srv.Serve(cfg.APIAddr); err != nil {
				log.Printf("status api: %v", err)
			}
		}()
		log.Printf("status api listening on %s", cfg.APIAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plans := topology.BuildPlans(cfg.Nodes, cfg.BasePort, cfg.LogDir)
	l := launcher.New(cfg.Bin, cfg.LogLevel)
	if err := launcher.LaunchAll(l, plans, group); err != nil {
		// Fail fast on the remaining launches, but leave already-started
		// nodes running: a partial cluster still has diagnostic value.
		log.Fatalf("%v; aborting remaining launches, leaving %d node(s) running", err, group.Len())
	}
	log.Printf("launched %d node(s) on ports %d-%d", len(plans), cfg.BasePort, cfg.BasePort+cfg.Nodes)

	group.Wait(ctx)
	if cfg.FailOnExit && group.NonZeroExits() > 0 {
		if jr != nil {
			_ = jr.Close()
		}
		log.Printf("%d node(s) exited non-zero", group.NonZeroExits())
		os.Exit(1)
	}
}

// notifier fans node lifecycle transitions out to the registry, the run
// journal and the websocket event feed.
type notifier struct {
	st  store.Store
	jr  *journal.Journal
	hub *api.Hub
}

func (n *notifier) NodeLaunched(rec model.NodeRecord) {
	if err := n.st.SaveNode(rec); err != nil {
		log.Printf("registry save failed node=%d: %v", rec.Index, err)
	}
	if n.jr != nil {
		if err := n.jr.RecordLaunch(rec); err != nil {
			log.Printf("journal launch failed node=%d: %v", rec.Index, err)
		}
	}
	n.broadcast(model.EventNodeLaunched, &rec)
}

func (n *notifier) NodeExited(rec model.NodeRecord) {
	if err := n.st.SaveNode(rec); err != nil {
		log.Printf("registry save failed node=%d: %v", rec.Index, err)
	}
	if n.jr != nil {
		if err := n.jr.RecordExit(rec); err != nil {
			log.Printf("journal exit failed node=%d: %v", rec.Index, err)
		}
	}
	n.broadcast(model.EventNodeExited, &rec)
}

func (n *notifier) Terminating() {
	n.broadcast(model.EventClusterTerminating, nil)
}

func (n *notifier) broadcast(typ string, rec *model.NodeRecord) {
	if n.hub == nil {
		return
	}
	n.hub.Broadcast(model.Event{Type: typ, Node: rec, Time: time.Now()})
}
