package geo

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// NodeID identifies a node of the road network.
// The simulator emits ids either as JSON strings or as JSON integers; both
// decode to the same textual form.
type NodeID string

// UnmarshalJSON accepts a JSON string or a JSON number.
func (id *NodeID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = NodeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("node id: %w", err)
	}
	*id = NodeID(n.String())
	return nil
}

// Node is a network node with its geographic position.
type Node struct {
	X    float64 `json:"x"` // longitude
	Y    float64 `json:"y"` // latitude
	City string  `json:"city,omitempty"`
}

// Point returns the node position as an orb point (lon, lat).
func (n Node) Point() orb.Point {
	return orb.Point{n.X, n.Y}
}

// NodeMap is the immutable id → node mapping loaded once at startup.
type NodeMap map[NodeID]Node

// Lookup returns the node for id.
func (m NodeMap) Lookup(id NodeID) (Node, bool) {
	n, ok := m[id]
	return n, ok
}

// Resolve maps a path of node ids to coordinates. Unknown ids are skipped.
func (m NodeMap) Resolve(path []NodeID) orb.LineString {
	line := make(orb.LineString, 0, len(path))
	for _, id := range path {
		if n, ok := m[id]; ok {
			line = append(line, n.Point())
		}
	}
	return line
}

// MapState is one complete snapshot of the dynamic map layers.
// Absent or null collections decode as empty.
type MapState struct {
	Routes    [][]NodeID `json:"routes"`
	Exporters []NodeID   `json:"exporters"`
	Importers []NodeID   `json:"importers"`
	Both      []NodeID   `json:"both"`
	Disrupted []NodeID   `json:"disrupted"`
}

// DecodeMapState parses a map_state response body.
func DecodeMapState(data []byte) (*MapState, error) {
	var st MapState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode map state: %w", err)
	}
	return &st, nil
}

// Edge is one segment of the static road network.
type Edge struct {
	From NodeID
	To   NodeID
}

// DecodeEdges parses an edge list. Entries may be [u, v] pairs or objects
// keyed source/target or u/v; entries in any other shape are skipped.
func DecodeEdges(data []byte) ([]Edge, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode edges: %w", err)
	}
	edges := make([]Edge, 0, len(raw))
	for _, r := range raw {
		if e, ok := decodeEdge(r); ok {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

func decodeEdge(r json.RawMessage) (Edge, bool) {
	var pair []NodeID
	if err := json.Unmarshal(r, &pair); err == nil {
		if len(pair) < 2 {
			return Edge{}, false
		}
		return Edge{From: pair[0], To: pair[1]}, true
	}
	var obj struct {
		Source NodeID `json:"source"`
		Target NodeID `json:"target"`
		U      NodeID `json:"u"`
		V      NodeID `json:"v"`
	}
	if err := json.Unmarshal(r, &obj); err != nil {
		return Edge{}, false
	}
	switch {
	case obj.Source != "" && obj.Target != "":
		return Edge{From: obj.Source, To: obj.Target}, true
	case obj.U != "" && obj.V != "":
		return Edge{From: obj.U, To: obj.V}, true
	}
	return Edge{}, false
}
