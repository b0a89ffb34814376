package stats_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/stats"
)

func TestWideCSV(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single agent sparse keys",
			in:   `{"Agent 0": {"0": 1.5, "2": 3.0}}`,
			want: "Agent 0\n1.5\n3",
		},
		{
			name: "download scenario",
			in:   `{"Agent 0": {"1": 5}}`,
			want: "Agent 0\n5",
		},
		{
			name: "missing keys are empty fields",
			in:   `{"Agent 0": {"0": 1, "2": 2}, "Agent 1": {"1": 7, "0": 4}}`,
			want: "Agent 0,Agent 1\n1,4\n,7\n2,",
		},
		{
			name: "numeric order not lexical",
			in:   `{"A": {"10": 10, "9": 9, "1": 1}}`,
			want: "A\n1\n9\n10",
		},
		{
			name: "non-numeric keys after numeric",
			in:   `{"A": {"total": 3, "1": 1, "avg": 2}}`,
			want: "A\n1\n3\n2",
		},
		{
			name: "NaN key is not numeric",
			in:   `{"A": {"2": 20, "NaN": 0, "1": 10}}`,
			want: "A\n10\n20\n0",
		},
		{
			name: "only Infinity spelling is numeric",
			in:   `{"A": {"inf": 2, "Infinity": 3, "1": 1, "-Infinity": 0}}`,
			want: "A\n0\n1\n3\n2",
		},
		{
			name: "tiny and huge values in exponent form",
			in:   `{"A": {"1": 1e-7, "2": 0.000001, "3": 1.5e21, "4": -2e-10}}`,
			want: "A\n1e-7\n0.000001\n1.5e+21\n-2e-10",
		},
		{
			name: "no agents",
			in:   `{}`,
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := stats.WideCSV([]byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWideCSV_NotObject(t *testing.T) {
	_, err := stats.WideCSV([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestNormalizeSeries(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name string
		in   string
		want stats.Series
	}{
		{"null", `null`, stats.Series{}},
		{"array", `[1, null, "3"]`, stats.Series{Kind: stats.Ordered, X: []float64{1, 2, 3}, Y: []float64{1, nan, 3}}},
		{"time keyed", `{"5": 2, "0": 1}`, stats.Series{Kind: stats.Sparse, X: []float64{0, 5}, Y: []float64{1, 2}}},
		{"value object", `{"a": 4, "b": 5}`, stats.Series{Kind: stats.Ordered, X: []float64{1, 2}, Y: []float64{4, 5}}},
		{"scalar", `7`, stats.Series{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stats.NormalizeSeries([]byte(tc.in))
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateNaNs(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("NormalizeSeries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeAggregate(t *testing.T) {
	agg, err := stats.DecodeAggregate("sum", []byte(`{
		"sum_fulfilled_demand": [1, 2, 3],
		"sum_cost": {"1": 10, "2": 20}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 3, agg.Fulfilled.Len())
	assert.Equal(t, stats.Sparse, agg.Cost.Kind)
	assert.Zero(t, agg.Lost.Len())
	assert.Zero(t, agg.Loss.Len())
}

func TestDownload_CSV(t *testing.T) {
	dir := t.TempDir()
	v := &stats.View{Dataset: "fulfilled", Source: "graph", Format: stats.FormatCSV, Data: []byte(`{"Agent 0": {"1": 5}}`)}

	path, err := stats.Download(dir, v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fulfilled_graph.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Agent 0\n5", string(content))
}

func TestDownload_JSON(t *testing.T) {
	dir := t.TempDir()
	v := &stats.View{Dataset: "cost", Source: "graph", Format: stats.FormatJSON, Data: []byte(`{"Agent 0":{"1":5}}`)}

	path, err := stats.Download(dir, v)
	require.NoError(t, err)
	assert.Equal(t, "cost_graph.json", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"Agent 0\": {\n    \"1\": 5\n  }\n}", string(content))
}

func TestDownload_NoData(t *testing.T) {
	_, err := stats.Download(t.TempDir(), &stats.View{Dataset: "x", Source: "graph", Format: stats.FormatJSON})
	assert.ErrorIs(t, err, stats.ErrNoData)
}

func TestFormat(t *testing.T) {
	f, err := stats.ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, stats.FormatJSON, f.Toggle())
	assert.Equal(t, stats.FormatCSV, f.Toggle().Toggle())
	_, err = stats.ParseFormat("xml")
	assert.Error(t, err)
}

func TestRenderCharts(t *testing.T) {
	dir := t.TempDir()
	agg, err := stats.DecodeAggregate("avg", []byte(`{
		"avg_fulfilled_demand": [1, 2, 4, 3],
		"avg_lost_demand": [0, 1, 0, 2],
		"avg_cost": {"1": 10, "2": 12, "3": 9},
		"avg_loss": []
	}`))
	require.NoError(t, err)

	paths, err := stats.RenderCharts(dir, agg)
	require.Error(t, err, "empty loss series must fail to render")
	assert.ErrorIs(t, err, stats.ErrEmptySeries)
	require.Len(t, paths, 2)
	for _, p := range paths {
		info, statErr := os.Stat(p)
		require.NoError(t, statErr)
		assert.Positive(t, info.Size())
	}
	_, err = os.Stat(filepath.Join(dir, "avg-loss-chart.png"))
	assert.True(t, os.IsNotExist(err))
}
