// Package surface provides an in-memory map surface whose layers can be
// exported as a GeoJSON FeatureCollection.
package surface

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/render"
)

type layerKind int

const (
	kindPolyline layerKind = iota
	kindMarker
)

type layer struct {
	seq    uint64
	kind   layerKind
	line   orb.LineString
	style  render.LineStyle
	marker render.Marker
}

// Stats summarizes what is currently drawn.
type Stats struct {
	Routes  int            `json:"routes"`
	Network int            `json:"network"`
	Markers map[string]int `json:"markers"`
}

// Layers is a concurrency-safe render.Surface.
type Layers struct {
	mu     sync.RWMutex
	seq    uint64
	layers map[render.LayerID]*layer
	notify func()
}

var _ render.Surface = (*Layers)(nil)

// New returns an empty surface.
func New() *Layers {
	return &Layers{layers: make(map[render.LayerID]*layer)}
}

// OnChange registers fn to be called after every mutation.
func (s *Layers) OnChange(fn func()) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// AddPolyline implements render.Surface.
func (s *Layers) AddPolyline(line orb.LineString, style render.LineStyle) render.LayerID {
	return s.add(&layer{kind: kindPolyline, line: line.Clone(), style: style})
}

// AddMarker implements render.Surface.
func (s *Layers) AddMarker(m render.Marker) render.LayerID {
	return s.add(&layer{kind: kindMarker, marker: m})
}

// RemoveLayer implements render.Surface. Unknown ids are ignored.
func (s *Layers) RemoveLayer(id render.LayerID) {
	s.mu.Lock()
	_, ok := s.layers[id]
	delete(s.layers, id)
	fn := s.notify
	s.mu.Unlock()
	if ok && fn != nil {
		fn()
	}
}

func (s *Layers) add(l *layer) render.LayerID {
	id := render.LayerID(uuid.New().String())
	s.mu.Lock()
	s.seq++
	l.seq = s.seq
	s.layers[id] = l
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return id
}

// Len returns the number of layers on the surface.
func (s *Layers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// Stats counts route polylines, network edges and markers by role.
func (s *Layers) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Markers: make(map[string]int)}
	for _, l := range s.layers {
		switch l.kind {
		case kindPolyline:
			if l.style.Network {
				st.Network++
			} else {
				st.Routes++
			}
		case kindMarker:
			st.Markers[string(l.marker.Role)]++
		}
	}
	return st
}

// FeatureCollection exports the surface in drawing order.
// Polylines carry stroke/stroke-width/network properties, markers carry
// role/color/radius/tooltip.
func (s *Layers) FeatureCollection() *geojson.FeatureCollection {
	s.mu.RLock()
	ordered := make([]struct {
		id render.LayerID
		l  *layer
	}, 0, len(s.layers))
	for id, l := range s.layers {
		ordered = append(ordered, struct {
			id render.LayerID
			l  *layer
		}{id, l})
	}
	s.mu.RUnlock()
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].l.seq < ordered[j].l.seq })

	fc := geojson.NewFeatureCollection()
	for _, o := range ordered {
		var f *geojson.Feature
		switch o.l.kind {
		case kindPolyline:
			coords := make([][]float64, len(o.l.line))
			for i, p := range o.l.line {
				coords[i] = []float64{p.Lon(), p.Lat()}
			}
			f = geojson.NewLineStringFeature(coords)
			f.SetProperty("stroke", o.l.style.Color)
			f.SetProperty("stroke-width", o.l.style.Weight)
			f.SetProperty("network", o.l.style.Network)
		case kindMarker:
			m := o.l.marker
			f = geojson.NewPointFeature([]float64{m.Point.Lon(), m.Point.Lat()})
			f.SetProperty("role", string(m.Role))
			f.SetProperty("color", m.Color)
			f.SetProperty("radius", m.Radius)
			f.SetProperty("tooltip", m.Tooltip)
		}
		f.ID = string(o.id)
		fc.AddFeature(f)
	}
	return fc
}
