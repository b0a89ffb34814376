package surface_test

import (
	"encoding/json"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/render"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/surface"
)

func TestLayers_AddRemove(t *testing.T) {
	s := surface.New()
	changes := 0
	s.OnChange(func() { changes++ })

	line := s.AddPolyline(orb.LineString{{1, 2}, {3, 4}}, render.LineStyle{Color: "hsl(0, 60%, 55%)", Weight: 3})
	s.AddMarker(render.Marker{Point: orb.Point{1, 2}, Role: render.RoleExporter, Color: "green", Radius: 6, Tooltip: "Warsaw"})
	require.Equal(t, 2, s.Len())

	s.RemoveLayer(line)
	s.RemoveLayer("unknown")
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 3, changes)

	st := s.Stats()
	assert.Zero(t, st.Routes)
	assert.Equal(t, map[string]int{"exporter": 1}, st.Markers)
}

func TestLayers_FeatureCollection(t *testing.T) {
	s := surface.New()
	s.AddPolyline(orb.LineString{{21, 52}, {19, 50}}, render.LineStyle{Color: "red", Weight: 3})
	s.AddMarker(render.Marker{Point: orb.Point{17, 51}, Role: render.RoleDisrupted, Color: "black", Radius: 6, Tooltip: "Disrupted"})

	data, err := json.Marshal(s.FeatureCollection())
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	ls := fc.Features[0]
	require.True(t, ls.Geometry.IsLineString())
	assert.Equal(t, [][]float64{{21, 52}, {19, 50}}, ls.Geometry.LineString)
	assert.Equal(t, "red", ls.Properties["stroke"])

	pt := fc.Features[1]
	require.True(t, pt.Geometry.IsPoint())
	assert.Equal(t, []float64{17, 51}, pt.Geometry.Point)
	assert.Equal(t, "disrupted", pt.Properties["role"])
	assert.Equal(t, "Disrupted", pt.Properties["tooltip"])
}

func TestLayers_StatsSeparatesNetworkFromRoutes(t *testing.T) {
	s := surface.New()
	network := render.LineStyle{Color: "#999999", Weight: 1, Network: true}
	s.AddPolyline(orb.LineString{{21, 52}, {19, 50}}, network)
	s.AddPolyline(orb.LineString{{19, 50}, {17, 51}}, network)
	s.AddPolyline(orb.LineString{{21, 52}, {17, 51}}, render.LineStyle{Color: "red", Weight: 3})

	st := s.Stats()
	assert.Equal(t, 1, st.Routes)
	assert.Equal(t, 2, st.Network)

	fc := s.FeatureCollection()
	require.Len(t, fc.Features, 3)
	assert.Equal(t, true, fc.Features[0].Properties["network"])
	assert.Equal(t, false, fc.Features[2].Properties["network"])
}
