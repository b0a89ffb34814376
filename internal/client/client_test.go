package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/client"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/config"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/geo"
)

func newClient(t *testing.T, h http.Handler) *client.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.Default()
	cfg.Server.BaseURL = srv.URL + "/"
	return client.New(cfg.Server, cfg.Endpoints, srv.Client())
}

func TestClient_NodesAndMapState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/nodes", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		io.WriteString(w, `{"1": {"x": 21.0, "y": 52.2, "city": "Warsaw"}, "2": {"x": 19.9, "y": 50.0}}`)
	})
	mux.HandleFunc("GET /api/map_state", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"routes": [[1, 2]], "disrupted": [2]}`)
	})
	c := newClient(t, mux)

	nodes, err := c.Nodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Warsaw", nodes["1"].City)

	st, err := c.MapState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]geo.NodeID{{"1", "2"}}, st.Routes)
	assert.Equal(t, []geo.NodeID{"2"}, st.Disrupted)
}

func TestClient_StatusError(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := c.MapState(context.Background())
	var se *client.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "/api/map_state", se.URL)
	assert.Equal(t, "boom", se.Body)
}

func TestClient_Options(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/duration", r.URL.Path)
		io.WriteString(w, `[1, 2, "7 days"]`)
	}))

	opts, err := c.Options(context.Background(), config.FieldDuration)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "7 days"}, opts)

	_, err = c.Options(context.Background(), "colour")
	assert.Error(t, err)
}

func TestClient_StartSimulation(t *testing.T) {
	var got map[string]any
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/graph", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message": "No action taken"}`)
	}))

	body, err := c.StartSimulation(context.Background())
	assert.Equal(t, map[string]any{"start": true}, got)
	var se *client.StatusError
	require.True(t, errors.As(err, &se))
	assert.JSONEq(t, `{"message": "No action taken"}`, string(body))
}

func TestClient_Aggregate(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sum_stats", r.URL.Path)
		io.WriteString(w, `{"sum_cost": [1, 2]}`)
	}))

	agg, err := c.Aggregate(context.Background(), "sum")
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Cost.Len())

	_, err = c.Aggregate(context.Background(), "median")
	assert.Error(t, err)
}

func TestClient_Dataset(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/final_stats", r.URL.Path)
		io.WriteString(w, `{"Agent 0": {"1": 5}}`)
	}))

	raw, err := c.Dataset(context.Background(), "final")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Agent 0": {"1": 5}}`, string(raw))

	_, err = c.Dataset(context.Background(), "unknown")
	assert.Error(t, err)
}
