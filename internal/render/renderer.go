package render

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/geo"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/metrics"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/snapshot"
)

const routeWeight = 3

// markerStyles holds the fixed look and fallback tooltip of each role.
var markerStyles = map[Role]struct {
	color   string
	radius  int
	tooltip string
}{
	RoleExporter:  {"green", 6, "Exporter"},
	RoleImporter:  {"red", 6, "Importer"},
	RoleBoth:      {"orange", 6, "Exporter/Importer"},
	RoleDisrupted: {"black", 6, "Disrupted"},
	RoleHighlight: {"yellow", 8, "Selected node"},
}

// Color returns the stroke colour of route i out of total routes.
// Hues are spread evenly over the colour wheel.
func Color(i, total int) string {
	if total <= 0 {
		total = 1
	}
	hue := float64(i) * (360 / float64(total))
	for hue >= 360 {
		hue -= 360
	}
	return fmt.Sprintf("hsl(%s, 60%%, 55%%)", strconv.FormatFloat(hue, 'f', -1, 64))
}

// routeLayer is the drawn state of one route index.
type routeLayer struct {
	layer  LayerID
	cancel context.CancelFunc
}

// Renderer reconciles MapState snapshots onto a Surface.
type Renderer struct {
	mu        sync.Mutex
	surface   Surface
	nodes     geo.NodeMap
	store     *snapshot.Store
	step      time.Duration
	routes    map[int]*routeLayer
	markers   []LayerID
	highlight LayerID
	network   []LayerID

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Renderer drawing onto surface. A zero step draws changed
// routes at once instead of tracing them.
func New(surface Surface, nodes geo.NodeMap, store *snapshot.Store, step time.Duration) *Renderer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Renderer{
		surface: surface,
		nodes:   nodes,
		store:   store,
		step:    step,
		routes:  make(map[int]*routeLayer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetStep changes the trace interval for routes drawn from now on.
func (r *Renderer) SetStep(step time.Duration) {
	r.mu.Lock()
	r.step = step
	r.mu.Unlock()
}

// ApplyState renders state: changed routes are retraced, unchanged routes
// keep their layer, and every marker set is rebuilt from scratch.
func (r *Renderer) ApplyState(state *geo.MapState) {
	if state == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx.Err() != nil {
		return
	}

	total := len(state.Routes)
	for i, path := range state.Routes {
		line := r.nodes.Resolve(path)
		prev, ok := r.store.At(i)
		if ok && slices.Equal(prev, path) {
			metrics.RoutesUnchanged.Inc()
			continue
		}
		if len(line) < 2 {
			continue
		}
		r.discardRoute(i)
		r.traceRoute(i, line, LineStyle{Color: Color(i, total), Weight: routeWeight})
	}
	for i := range r.routes {
		if i >= total {
			r.discardRoute(i)
		}
	}
	r.store.Set(state.Routes)

	for _, id := range r.markers {
		r.surface.RemoveLayer(id)
	}
	r.markers = r.markers[:0]
	r.addMarkers(state.Exporters, RoleExporter)
	r.addMarkers(state.Importers, RoleImporter)
	r.addMarkers(state.Both, RoleBoth)
	r.addMarkers(state.Disrupted, RoleDisrupted)

	slog.Debug("map updated", "routes", total, "markers", len(r.markers))
}

// HighlightNode replaces the selection marker. An unknown id clears it.
func (r *Renderer) HighlightNode(id geo.NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.highlight != "" {
		r.surface.RemoveLayer(r.highlight)
		r.highlight = ""
	}
	n, ok := r.nodes.Lookup(id)
	if !ok {
		return
	}
	r.highlight = r.surface.AddMarker(newMarker(n, RoleHighlight))
}

// DrawNetwork draws the static road network as a thin base layer,
// replacing any previously drawn network.
func (r *Renderer) DrawNetwork(edges []geo.Edge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.network {
		r.surface.RemoveLayer(id)
	}
	r.network = r.network[:0]
	style := LineStyle{Color: "#999999", Weight: 1, Network: true}
	for _, e := range edges {
		line := r.nodes.Resolve([]geo.NodeID{e.From, e.To})
		if len(line) < 2 {
			continue
		}
		r.network = append(r.network, r.surface.AddPolyline(line, style))
	}
}

// Wait blocks until every running trace animation has finished.
func (r *Renderer) Wait() {
	r.wg.Wait()
}

// Close cancels running trace animations and waits for them to stop.
func (r *Renderer) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Renderer) addMarkers(ids []geo.NodeID, role Role) {
	for _, id := range ids {
		n, ok := r.nodes.Lookup(id)
		if !ok {
			continue
		}
		r.markers = append(r.markers, r.surface.AddMarker(newMarker(n, role)))
		metrics.MarkersDrawn.WithLabelValues(string(role)).Inc()
	}
}

func newMarker(n geo.Node, role Role) Marker {
	st := markerStyles[role]
	tip := st.tooltip
	if n.City != "" && role != RoleHighlight {
		tip = n.City
	}
	return Marker{Point: n.Point(), Role: role, Color: st.color, Radius: st.radius, Tooltip: tip}
}

// discardRoute stops the animation of route i and removes its layer.
// Caller holds r.mu.
func (r *Renderer) discardRoute(i int) {
	rl, ok := r.routes[i]
	if !ok {
		return
	}
	if rl.cancel != nil {
		rl.cancel()
	}
	if rl.layer != "" {
		r.surface.RemoveLayer(rl.layer)
	}
	delete(r.routes, i)
}

// traceRoute draws line under index i, one coordinate per step.
// Caller holds r.mu.
func (r *Renderer) traceRoute(i int, line orb.LineString, style LineStyle) {
	metrics.RoutesTraced.Inc()
	rl := &routeLayer{}
	r.routes[i] = rl
	if r.step <= 0 {
		rl.layer = r.surface.AddPolyline(line.Clone(), style)
		return
	}
	ctx, cancel := context.WithCancel(r.ctx)
	rl.cancel = cancel
	step := r.step
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		ticker := time.NewTicker(step)
		defer ticker.Stop()
		for n := 2; n <= len(line); n++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			r.mu.Lock()
			if ctx.Err() != nil {
				r.mu.Unlock()
				return
			}
			if rl.layer != "" {
				r.surface.RemoveLayer(rl.layer)
			}
			rl.layer = r.surface.AddPolyline(line[:n].Clone(), style)
			r.mu.Unlock()
		}
	}()
}
