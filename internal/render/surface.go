package render

import "github.com/paulmach/orb"

// LayerID is an opaque handle for a visual layer on a Surface.
type LayerID string

// Role tags a marker with the reason it is on the map.
type Role string

const (
	RoleExporter  Role = "exporter"
	RoleImporter  Role = "importer"
	RoleBoth      Role = "both"
	RoleDisrupted Role = "disrupted"
	RoleHighlight Role = "highlight"
)

// LineStyle describes how a polyline is stroked.
type LineStyle struct {
	Color  string
	Weight int
	// Network marks base road-network edges, as opposed to routes.
	Network bool
}

// Marker is a point annotation bound to a node.
type Marker struct {
	Point   orb.Point
	Role    Role
	Color   string
	Radius  int
	Tooltip string
}

// Surface is the drawing target of the Renderer.
// Implementations need not be safe for concurrent use; the Renderer
// serializes all calls.
type Surface interface {
	AddPolyline(line orb.LineString, style LineStyle) LayerID
	AddMarker(m Marker) LayerID
	RemoveLayer(id LayerID)
}
