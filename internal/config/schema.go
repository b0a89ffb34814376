package config

import "time"

// ClientConfig is the top-level YAML structure.
type ClientConfig struct {
	Version   string        `yaml:"version"`
	Server    ServerConf    `yaml:"server"`
	Endpoints EndpointsConf `yaml:"endpoints"`
	Stream    StreamConf    `yaml:"stream"`
	Render    RenderConf    `yaml:"render"`
	Panel     PanelConf     `yaml:"panel"`
	Form      FormConf      `yaml:"form"`
	Stats     StatsConf     `yaml:"stats"`
}

// ServerConf locates the simulator backend.
type ServerConf struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"` // per request; the event stream is exempt
}

// EndpointsConf holds the simulator paths, relative to BaseURL.
type EndpointsConf struct {
	Events       string            `yaml:"events"`
	Nodes        string            `yaml:"nodes"`
	Edges        string            `yaml:"edges"`
	MapState     string            `yaml:"map_state"`
	Process      string            `yaml:"process"`
	Start        string            `yaml:"start"`
	AverageStats string            `yaml:"average_stats"`
	SumStats     string            `yaml:"sum_stats"`
	Options      map[string]string `yaml:"options"`  // form field → enumeration path
	Datasets     map[string]string `yaml:"datasets"` // dataset name → statistics path
}

// StreamConf tunes the event stream.
type StreamConf struct {
	MarkerToken string `yaml:"marker_token"`
	QueueDepth  int    `yaml:"queue_depth"`
}

// RenderConf tunes the map renderer.
type RenderConf struct {
	TraceStepMs int `yaml:"trace_step_ms"` // negative draws changed routes at once
}

// PanelConf tunes the log panel.
type PanelConf struct {
	Scrollback int `yaml:"scrollback"`
}

// FormConf tunes the form controller.
type FormConf struct {
	ConfirmDelayMs int `yaml:"confirm_delay_ms"`
}

// StatsConf tunes statistics downloads.
type StatsConf struct {
	DownloadDir string `yaml:"download_dir"`
}

// Timeout returns the per-request timeout.
func (s ServerConf) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// TraceStep returns the route trace interval.
func (r RenderConf) TraceStep() time.Duration {
	if r.TraceStepMs < 0 {
		return 0
	}
	return time.Duration(r.TraceStepMs) * time.Millisecond
}

// ConfirmDelay returns the pause before a submit confirmation.
func (f FormConf) ConfirmDelay() time.Duration {
	if f.ConfirmDelayMs < 0 {
		return 0
	}
	return time.Duration(f.ConfirmDelayMs) * time.Millisecond
}
