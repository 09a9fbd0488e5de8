package model

import "testing"

func TestMultiaddr(t *testing.T) {
	ep := Endpoint{Host: LoopbackHost, Port: 10000}
	if got := ep.Multiaddr(); got != "/ip4/127.0.0.1/tcp/10000" {
		t.Errorf("unexpected multiaddr: %s", got)
	}
}

func TestJoinMultiaddrs(t *testing.T) {
	tests := []struct {
		name  string
		peers []Endpoint
		want  string
	}{
		{"empty", nil, ""},
		{"single", []Endpoint{{Host: LoopbackHost, Port: 10000}}, "/ip4/127.0.0.1/tcp/10000"},
		{
			"ordered",
			[]Endpoint{{Host: LoopbackHost, Port: 10000}, {Host: LoopbackHost, Port: 10001}},
			"/ip4/127.0.0.1/tcp/10000,/ip4/127.0.0.1/tcp/10001",
		},
	}
	for _, tt := range tests {
		if got := JoinMultiaddrs(tt.peers); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}
