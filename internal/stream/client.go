// Package stream consumes the simulator's server-sent log stream.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/metrics"
)

// LostNotice is the line handed to the Handler when the stream fails.
const LostNotice = "Connection to log stream lost"

const maxLineBytes = 1 << 20

// ErrClosed is returned by Run on a client whose stream has already closed.
var ErrClosed = errors.New("stream: closed")

// State is the connection state. Closed is terminal.
type State int32

const (
	Connecting State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Handler receives stream lines in arrival order.
type Handler interface {
	HandleLine(line string)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(line string)

// HandleLine calls f(line).
func (f HandlerFunc) HandleLine(line string) { f(line) }

// Client is a one-shot event stream connection: once closed it never
// reconnects.
type Client struct {
	url     string
	http    *http.Client
	state   atomic.Int32
	started atomic.Bool
}

// New creates a client for the stream at url. httpClient must not impose
// a total timeout; a nil httpClient uses one without.
func New(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{url: url, http: httpClient}
	c.setState(Connecting)
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	metrics.StreamState.WithLabelValues(prev.String()).Set(0)
	metrics.StreamState.WithLabelValues(s.String()).Set(1)
}

// Run connects and delivers every message line to h until the stream ends.
// A transport failure, a non-200 response or the server closing the stream
// delivers LostNotice to h and returns the cause. Cancelling ctx closes the
// stream quietly and returns ctx.Err().
func (c *Client) Run(ctx context.Context, h Handler) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrClosed
	}
	err := c.run(ctx, h)
	c.setState(Closed)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	slog.Warn("event stream lost", "url", c.url, "err", err)
	h.HandleLine(LostNotice)
	return err
}

func (c *Client) run(ctx context.Context, h Handler) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("connect %s: status %d", c.url, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "text/event-stream") {
		return fmt.Errorf("connect %s: unexpected content type %q", c.url, ct)
	}

	c.setState(Open)
	slog.Info("event stream open", "url", c.url)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var f frame
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line != "" {
			f.field(line)
			continue
		}
		ev, ok := f.flush()
		if !ok || !ev.IsMessage() {
			continue
		}
		metrics.StreamLines.Inc()
		h.HandleLine(ev.Data)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return errors.New("stream closed by server")
}
