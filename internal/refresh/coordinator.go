// Package refresh serializes map-state refreshes so that only the most
// recently requested snapshot is ever rendered.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/geo"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/metrics"
)

// Fetcher loads the current map state.
type Fetcher interface {
	MapState(ctx context.Context) (*geo.MapState, error)
}

// Applier consumes a fetched map state.
type Applier interface {
	ApplyState(state *geo.MapState)
}

// Coordinator is a single-slot, latest-request-wins refresher.
// Trigger cancels the in-flight fetch, if any; a response belonging to a
// superseded request is discarded even if it arrives.
type Coordinator struct {
	fetch Fetcher
	apply Applier

	mu       sync.Mutex
	gen      uint64
	inflight context.CancelFunc

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New creates a Coordinator.
func New(fetch Fetcher, apply Applier) *Coordinator {
	ctx, stop := context.WithCancel(context.Background())
	return &Coordinator{fetch: fetch, apply: apply, ctx: ctx, stop: stop}
}

// Trigger requests a refresh. It never blocks on the network.
func (c *Coordinator) Trigger() {
	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	if c.inflight != nil {
		c.inflight()
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(c.ctx)
	c.inflight = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	metrics.RefreshesTriggered.Inc()
	go c.refresh(ctx, cancel, gen)
}

func (c *Coordinator) refresh(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer c.wg.Done()
	defer cancel()

	start := time.Now()
	st, err := c.fetch.MapState(ctx)
	metrics.RefreshDuration.Observe(float64(time.Since(start).Milliseconds()))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.ctx.Err() != nil {
		metrics.RefreshesSuperseded.Inc()
		return
	}
	c.inflight = nil
	if err != nil {
		metrics.RefreshErrors.Inc()
		slog.Error("map state refresh failed", "err", err)
		return
	}
	c.apply.ApplyState(st)
	metrics.RefreshesApplied.Inc()
}

// Wait blocks until no refresh is in flight.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels any in-flight refresh and waits for it to return.
// Later Triggers are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.stop()
	c.mu.Unlock()
	c.wg.Wait()
}
