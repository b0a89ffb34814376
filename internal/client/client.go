// Package client talks to the simulator's HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/config"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/geo"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/stats"
)

const maxBodyBytes = 64 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Client is a simulator API client.
type Client struct {
	base string
	ep   config.EndpointsConf
	http *http.Client
}

// New creates a Client for the given server and endpoint configuration.
// A nil httpClient uses one with the configured timeout.
func New(server config.ServerConf, ep config.EndpointsConf, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: server.Timeout()}
	}
	return &Client{
		base: strings.TrimRight(server.BaseURL, "/"),
		ep:   ep,
		http: httpClient,
	}
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	return c.base + path
}

// Nodes fetches the node mapping.
func (c *Client) Nodes(ctx context.Context) (geo.NodeMap, error) {
	var nodes geo.NodeMap
	if err := c.getJSON(ctx, c.ep.Nodes, &nodes); err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = geo.NodeMap{}
	}
	return nodes, nil
}

// Edges fetches the static road network.
func (c *Client) Edges(ctx context.Context) ([]geo.Edge, error) {
	body, err := c.get(ctx, c.ep.Edges)
	if err != nil {
		return nil, err
	}
	return geo.DecodeEdges(body)
}

// MapState fetches the current map-state snapshot.
func (c *Client) MapState(ctx context.Context) (*geo.MapState, error) {
	body, err := c.get(ctx, c.ep.MapState)
	if err != nil {
		return nil, err
	}
	return geo.DecodeMapState(body)
}

// Options fetches the allowed values of one form field.
// Values are returned as text whatever their JSON type.
func (c *Client) Options(ctx context.Context, field string) ([]string, error) {
	path, ok := c.ep.Options[field]
	if !ok {
		return nil, fmt.Errorf("no options endpoint for field %q", field)
	}
	var raw []json.RawMessage
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, strings.TrimSpace(string(r)))
	}
	return out, nil
}

// Dataset fetches the raw per-agent statistics of a named dataset.
func (c *Client) Dataset(ctx context.Context, name string) (json.RawMessage, error) {
	path, ok := c.ep.Datasets[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q not available", name)
	}
	return c.get(ctx, path)
}

// Aggregate fetches the "avg" or "sum" aggregate statistics.
func (c *Client) Aggregate(ctx context.Context, kind string) (*stats.Aggregate, error) {
	var path string
	switch kind {
	case "avg":
		path = c.ep.AverageStats
	case "sum":
		path = c.ep.SumStats
	default:
		return nil, fmt.Errorf("unknown aggregate %q (want avg or sum)", kind)
	}
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	agg, err := stats.DecodeAggregate(kind, body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return agg, nil
}

// SubmitConfig posts the selected simulation parameters.
func (c *Client) SubmitConfig(ctx context.Context, payload map[string]string) (json.RawMessage, error) {
	return c.post(ctx, c.ep.Process, payload)
}

// StartSimulation posts {"start": true}. The response body is returned
// for non-2xx statuses too, alongside a *StatusError, since the simulator
// explains refusals in it.
func (c *Client) StartSimulation(ctx context.Context) (json.RawMessage, error) {
	return c.post(ctx, c.ep.Start, map[string]bool{"start": true})
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, v any) (json.RawMessage, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("X-Request-ID", uuid.New().String())
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, &StatusError{
			Method: req.Method,
			URL:    req.URL.Path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}
	slog.Debug("simulator request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "ms", time.Since(start).Milliseconds())
	return body, nil
}
