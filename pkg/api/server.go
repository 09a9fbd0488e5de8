// Package api exposes the optional status surface of a running cluster:
// current membership as JSON and a websocket feed of lifecycle events.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"swarmlab/pkg/model"
	"swarmlab/pkg/store"
)

// Server serves the status API. State reports the process group's current
// state for /api/v1/status.
type Server struct {
	Store store.Store
	Hub   *Hub
	State func() string
}

func NewServer(st store.Store, hub *Hub, state func() string) *Server {
	return &Server{Store: st, Hub: hub, State: state}
}

// Routes registers the API handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/nodes", s.handleNodes)
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/events", s.Hub.HandleEvents)
}

// Serve listens on addr until the listener fails. Meant to run in its own
// goroutine; the server dies with the orchestrator.
func (s *Server) Serve(addr string) error {
	mux := http.NewServeMux()
	s.Routes(mux)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.Store.ListNodes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, nodes)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.Store.ListNodes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	running := 0
	for _, n := range nodes {
		if n.State == model.StateLaunched {
			running++
		}
	}
	writeJSON(w, map[string]any{
		"state":       s.State(),
		"tracked":     running,
		"total":       len(nodes),
		"subscribers": s.Hub.Subscribers(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
