package model

// LaunchPlan is the fully resolved input needed to start one node: created
// once during plan construction, consumed once by the launcher.
type LaunchPlan struct {
	Index    int        `json:"index"`
	Endpoint Endpoint   `json:"endpoint"`
	Peers    []Endpoint `json:"peers"`
	LogPath  string     `json:"logPath"`
}

// PeerList returns the serialized peer set handed to the node at launch.
func (p LaunchPlan) PeerList() string {
	return JoinMultiaddrs(p.Peers)
}
