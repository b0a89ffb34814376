// Package session routes event stream lines to the log panel and, for
// map-update signals, to the refresh coordinator.
package session

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/metrics"
)

// Panel receives every stream line.
type Panel interface {
	AppendLine(text string)
}

// Refresher is asked for a new map state on every signal line.
type Refresher interface {
	Trigger()
}

// Classify reports whether line carries the map-update marker token.
func Classify(line, token string) bool {
	return token != "" && strings.Contains(line, token)
}

// Session implements stream.Handler. Lines are queued and handled by a
// single worker, so the panel sees them in arrival order and the stream
// reader never waits on rendering.
type Session struct {
	panel     Panel
	refresher Refresher
	token     atomic.Pointer[string]
	ctx       context.Context
	pool      *workerPool[string]
}

// New starts a session. Queued lines are handled until ctx is done or
// Close is called.
func New(ctx context.Context, panel Panel, refresher Refresher, token string, queueDepth int) *Session {
	if queueDepth < 1 {
		queueDepth = 1
	}
	s := &Session{panel: panel, refresher: refresher, ctx: ctx}
	s.SetToken(token)
	s.pool = newWorkerPool[string](ctx, 1, queueDepth, func(_ context.Context, line string) {
		s.dispatch(line)
	})
	return s
}

// SetToken replaces the marker token for lines handled from now on.
func (s *Session) SetToken(token string) {
	s.token.Store(&token)
}

// Token returns the current marker token.
func (s *Session) Token() string {
	return *s.token.Load()
}

// HandleLine queues line for dispatch, waiting for queue room.
func (s *Session) HandleLine(line string) {
	if !s.pool.SubmitWait(s.ctx, line) {
		metrics.DispatchDropped.Inc()
	}
}

func (s *Session) dispatch(line string) {
	s.panel.AppendLine(line)
	if Classify(line, s.Token()) {
		s.refresher.Trigger()
	}
}

// QueueUtilization returns queue used / capacity (0–1).
func (s *Session) QueueUtilization() float64 {
	if s.pool.QueueCap() == 0 {
		return 0
	}
	return float64(s.pool.QueueLen()) / float64(s.pool.QueueCap())
}

// Close dispatches every queued line and stops the worker.
func (s *Session) Close() {
	s.pool.Drain()
}
