package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"swarmlab/pkg/model"
	"swarmlab/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, store.Store) {
	t.Helper()
	st := store.NewMemory()
	srv := NewServer(st, NewHub(), func() string { return "running" })
	mux := http.NewServeMux()
	srv.Routes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts, st
}

func TestHandleNodes(t *testing.T) {
	_, ts, st := newTestServer(t)
	ep := model.Endpoint{Host: model.LoopbackHost, Port: 10000}
	_ = st.SaveNode(model.NodeRecord{Index: 0, Endpoint: ep, Multiaddr: ep.Multiaddr(), State: model.StateLaunched})

	resp, err := http.Get(ts.URL + "/api/v1/nodes")
	if err != nil {
		t.Fatalf("GET nodes: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var nodes []model.NodeRecord
	if err := json.NewDecoder(resp.Body).Decode(&nodes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Multiaddr != "/ip4/127.0.0.1/tcp/10000" {
		t.Errorf("unexpected nodes: %+v", nodes)
	}
}

func TestHandleStatus(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["state"] != "running" {
		t.Errorf("unexpected state: %v", body["state"])
	}
}

type failingStore struct{}

func (failingStore) SaveNode(model.NodeRecord) error        { return errStore }
func (failingStore) GetNode(int) (model.NodeRecord, bool, error) {
	return model.NodeRecord{}, false, errStore
}
func (failingStore) ListNodes() ([]model.NodeRecord, error) { return nil, errStore }
func (failingStore) Clear() error                           { return errStore }

var errStore = errors.New("store unavailable")

func TestHandleStatusStoreError(t *testing.T) {
	srv := NewServer(failingStore{}, NewHub(), func() string { return "running" })
	mux := http.NewServeMux()
	srv.Routes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	for _, path := range []string{"/api/v1/status", "/api/v1/nodes"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("GET %s: status %d, want 500", path, resp.StatusCode)
		}
	}
}

func TestEventBroadcast(t *testing.T) {
	srv, ts, _ := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial events feed: %v", err)
	}
	defer c.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && srv.Hub.Subscribers() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Hub.Subscribers() != 1 {
		t.Fatal("subscriber never registered")
	}

	ep := model.Endpoint{Host: model.LoopbackHost, Port: 10000}
	rec := model.NodeRecord{Index: 0, Endpoint: ep, Multiaddr: ep.Multiaddr(), State: model.StateLaunched}
	srv.Hub.Broadcast(model.Event{Type: model.EventNodeLaunched, Node: &rec, Time: time.Now()})

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev model.Event
	if err := c.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != model.EventNodeLaunched || ev.Node == nil || ev.Node.Index != 0 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestBroadcastDropsStalledSubscriber(t *testing.T) {
	srv, ts, _ := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial events feed: %v", err)
	}
	defer c.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && srv.Hub.Subscribers() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Hub.Subscribers() != 1 {
		t.Fatal("subscriber never registered")
	}

	// The subscriber never reads. Large payloads fill the socket buffers, so
	// writes start blocking; the per-write deadline must cut the connection
	// loose instead of stalling the caller.
	ep := model.Endpoint{Host: model.LoopbackHost, Port: 10000}
	rec := model.NodeRecord{Index: 0, Endpoint: ep, Multiaddr: ep.Multiaddr(), State: model.StateLaunched, LogPath: strings.Repeat("x", 1<<20)}
	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			srv.Hub.Broadcast(model.Event{Type: model.EventNodeLaunched, Node: &rec, Time: time.Now()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(8 * time.Second):
		t.Fatal("broadcast loop stalled behind a non-reading subscriber")
	}
	if n := srv.Hub.Subscribers(); n != 0 {
		t.Errorf("stalled subscriber still registered, have %d", n)
	}
}
