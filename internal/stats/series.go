package stats

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// SeriesKind tags how a series was keyed on the wire.
type SeriesKind int

const (
	// Ordered series come from JSON arrays; X is the 1-based position.
	Ordered SeriesKind = iota
	// Sparse series come from time-keyed objects; X is the numeric key.
	Sparse
)

func (k SeriesKind) String() string {
	if k == Sparse {
		return "sparse"
	}
	return "ordered"
}

// Series is a normalized numeric series. Missing or non-numeric values are NaN.
type Series struct {
	Kind SeriesKind
	X    []float64
	Y    []float64
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.X) }

// NormalizeSeries converts an array or a time-keyed object into a Series.
// Anything else, including null, yields an empty Ordered series.
func NormalizeSeries(raw json.RawMessage) Series {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Series{}
	}
	switch raw[0] {
	case '[':
		var vals []json.RawMessage
		if err := json.Unmarshal(raw, &vals); err != nil {
			return Series{}
		}
		s := Series{Kind: Ordered, X: make([]float64, len(vals)), Y: make([]float64, len(vals))}
		for i, v := range vals {
			s.X[i] = float64(i + 1)
			s.Y[i] = toFloat(v)
		}
		return s
	case '{':
		members, err := decodeObject(raw)
		if err != nil {
			return Series{}
		}
		type point struct{ x, y float64 }
		var pts []point
		for _, m := range members {
			if x, ok := numericKey(m.Key); ok {
				pts = append(pts, point{x, toFloat(m.Value)})
			}
		}
		if len(pts) > 0 {
			sort.SliceStable(pts, func(i, j int) bool { return pts[i].x < pts[j].x })
			s := Series{Kind: Sparse, X: make([]float64, len(pts)), Y: make([]float64, len(pts))}
			for i, p := range pts {
				s.X[i], s.Y[i] = p.x, p.y
			}
			return s
		}
		s := Series{Kind: Ordered, X: make([]float64, len(members)), Y: make([]float64, len(members))}
		for i, m := range members {
			s.X[i] = float64(i + 1)
			s.Y[i] = toFloat(m.Value)
		}
		return s
	}
	return Series{}
}

func toFloat(v json.RawMessage) float64 {
	v = bytes.TrimSpace(v)
	if len(v) > 0 && v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return math.NaN()
		}
		v = []byte(s)
	}
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Aggregate holds the four aggregate series of one aggregation kind.
type Aggregate struct {
	Kind      string // "avg" or "sum"
	Fulfilled Series
	Lost      Series
	Cost      Series
	Loss      Series
}

// DecodeAggregate reads the <kind>_fulfilled_demand, <kind>_lost_demand,
// <kind>_cost and <kind>_loss series from an aggregate response.
// Absent series are empty.
func DecodeAggregate(kind string, data []byte) (*Aggregate, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return &Aggregate{
		Kind:      kind,
		Fulfilled: NormalizeSeries(fields[kind+"_fulfilled_demand"]),
		Lost:      NormalizeSeries(fields[kind+"_lost_demand"]),
		Cost:      NormalizeSeries(fields[kind+"_cost"]),
		Loss:      NormalizeSeries(fields[kind+"_loss"]),
	}, nil
}
