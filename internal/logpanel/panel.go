package logpanel

import (
	"strconv"
	"strings"
	"sync"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/metrics"
)

const (
	LabelOpen   = "Logs ▲"
	LabelClosed = "Logs ▼"

	defaultScrollback = 5000
)

// Panel is a bounded, append-only list of log lines with an expand/collapse
// flag. It is safe for concurrent use.
type Panel struct {
	mu         sync.RWMutex
	lines      []string
	scrollback int
	open       bool
	subs       []chan struct{}
}

// New returns a closed panel keeping at most scrollback lines.
// A non-positive scrollback uses the default.
func New(scrollback int) *Panel {
	if scrollback <= 0 {
		scrollback = defaultScrollback
	}
	return &Panel{scrollback: scrollback}
}

// AppendLine adds text as a new row. The text is kept literally; control
// characters are escaped so a line can never restructure the view.
func (p *Panel) AppendLine(text string) {
	line := sanitize(text)
	p.mu.Lock()
	p.lines = append(p.lines, line)
	if over := len(p.lines) - p.scrollback; over > 0 {
		p.lines = append(p.lines[:0:0], p.lines[over:]...)
	}
	n := len(p.lines)
	subs := p.subs
	p.mu.Unlock()

	metrics.PanelLines.Set(float64(n))
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Lines returns a copy of the held lines, oldest first.
func (p *Panel) Lines() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.lines...)
}

// Last returns the newest line, or "" when empty.
func (p *Panel) Last() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.lines) == 0 {
		return ""
	}
	return p.lines[len(p.lines)-1]
}

// Len returns the number of held lines.
func (p *Panel) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.lines)
}

// ToggleOpen flips the expanded flag and returns the new state.
func (p *Panel) ToggleOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = !p.open
	return p.open
}

// Open reports whether the panel is expanded.
func (p *Panel) Open() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.open
}

// Label is the toggle caption for the current state.
func (p *Panel) Label() string {
	if p.Open() {
		return LabelOpen
	}
	return LabelClosed
}

// Subscribe returns a channel that receives a value (coalesced) whenever
// lines are appended.
func (p *Panel) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

func sanitize(s string) string {
	if !strings.ContainsFunc(s, isControl) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if isControl(r) {
			q := strconv.QuoteRune(r)
			b.WriteString(q[1 : len(q)-1])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 && r != '\t' || r == 0x7f
}
