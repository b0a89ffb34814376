// Package tui is the terminal view of a watch session: a map summary
// header over the collapsible log panel.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/logpanel"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/surface"
)

const (
	headerHeight = 2
	footerHeight = 1
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#21D375"))
	statStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	footerStyle = lipgloss.NewStyle().Faint(true)
	closedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75")).Bold(true)
)

// StatsSource reports what the map currently shows and calls the
// OnChange hook whenever that changes.
type StatsSource interface {
	Stats() surface.Stats
	OnChange(fn func())
}

type lineMsg struct{}

type mapMsg struct{}

// StatusMsg asks the model to redraw the stream state.
type StatusMsg struct{}

// Model is the Bubble Tea model of the watch screen.
type Model struct {
	panel    *logpanel.Panel
	src      StatsSource
	status   func() string
	sub      <-chan struct{}
	mapSub   <-chan struct{}
	viewport viewport.Model
	width    int
	height   int
}

// New creates a Model over panel and src. status returns the stream
// state shown in the header. New takes over src's OnChange hook.
func New(panel *logpanel.Panel, src StatsSource, status func() string) Model {
	changes := make(chan struct{}, 1)
	src.OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	m := Model{
		panel:    panel,
		src:      src,
		status:   status,
		sub:      panel.Subscribe(),
		mapSub:   changes,
		viewport: viewport.New(80, 20),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForLine(m.sub), waitForMap(m.mapSub))
}

func waitForLine(sub <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-sub
		return lineMsg{}
	}
}

// waitForMap coalesces surface changes into one redraw each.
func waitForMap(sub <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-sub
		return mapMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "l":
			m.panel.ToggleOpen()
			m.refresh()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.refresh()
		return m, nil
	case lineMsg:
		m.refresh()
		return m, waitForLine(m.sub)
	case mapMsg:
		return m, waitForMap(m.mapSub)
	case StatusMsg:
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refresh reloads the panel lines and scrolls to the newest one.
func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.panel.Lines(), "\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(m.panel.Label()))
	b.WriteString("\n")
	if m.panel.Open() {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render("l: toggle logs • ↑/↓: scroll • q: quit"))
	return b.String()
}

func (m Model) header() string {
	st := m.src.Stats()
	roles := make([]string, 0, len(st.Markers))
	for role := range st.Markers {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	parts := []string{fmt.Sprintf("routes %d", st.Routes)}
	for _, r := range roles {
		parts = append(parts, fmt.Sprintf("%s %d", r, st.Markers[r]))
	}

	state := "unknown"
	if m.status != nil {
		state = m.status()
	}
	stateText := statStyle.Render("stream " + state)
	if state == "closed" {
		stateText = closedStyle.Render("stream " + state)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("disruptwatch"), "  ",
		stateText, "  ",
		statStyle.Render(strings.Join(parts, " · ")))
}
