package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Form field names, in submission order.
const (
	FieldDisruptionType    = "disruptionType"
	FieldSeverity          = "severity"
	FieldDuration          = "duration"
	FieldDayOfStart        = "dayOfStart"
	FieldPlaceOfDisruption = "placeOfDisruption"
)

// FormFields lists every field the simulator expects in a configuration.
var FormFields = []string{
	FieldDisruptionType,
	FieldSeverity,
	FieldDuration,
	FieldDayOfStart,
	FieldPlaceOfDisruption,
}

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *ClientConfig
	onChange []func(*ClientConfig)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
// An empty path yields the built-in defaults.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *ClientConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*ClientConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	if l.path == "" {
		return nil, errors.New("config watcher: no config file")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed, keeping previous config", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*ClientConfig, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*ClientConfig), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*ClientConfig, error) {
	var cfg ClientConfig
	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", l.path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", l.path, err)
		}
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *ClientConfig {
	var cfg ClientConfig
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults fills every zero field with its default.
func ApplyDefaults(cfg *ClientConfig) {
	if cfg.Version == "" {
		cfg.Version = "v1"
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:5000"
	}
	if cfg.Server.TimeoutMs == 0 {
		cfg.Server.TimeoutMs = 10000
	}

	ep := &cfg.Endpoints
	setDefault(&ep.Events, "/events")
	setDefault(&ep.Nodes, "/api/nodes")
	setDefault(&ep.Edges, "/api/edges")
	setDefault(&ep.MapState, "/api/map_state")
	setDefault(&ep.Process, "/api/process")
	setDefault(&ep.Start, "/api/graph")
	setDefault(&ep.AverageStats, "/api/average_stats")
	setDefault(&ep.SumStats, "/api/sum_stats")
	if ep.Options == nil {
		ep.Options = make(map[string]string)
	}
	for field, path := range map[string]string{
		FieldDisruptionType:    "/api/disruption_type",
		FieldSeverity:          "/api/disruption_severity",
		FieldDuration:          "/api/duration",
		FieldDayOfStart:        "/api/day_of_start",
		FieldPlaceOfDisruption: "/api/place_of_disruption",
	} {
		if ep.Options[field] == "" {
			ep.Options[field] = path
		}
	}
	if ep.Datasets == nil {
		ep.Datasets = map[string]string{
			"fulfilled": "/api/fulfilled_demand_stats",
			"lost":      "/api/lost_demand_stats",
			"cost":      "/api/cost_stats",
			"loss":      "/api/loss_stats",
			"final":     "/api/final_stats",
		}
	}

	if cfg.Stream.MarkerToken == "" {
		cfg.Stream.MarkerToken = "MAP_UPDATE"
	}
	if cfg.Stream.QueueDepth == 0 {
		cfg.Stream.QueueDepth = 1024
	}
	if cfg.Render.TraceStepMs == 0 {
		cfg.Render.TraceStepMs = 5
	}
	if cfg.Panel.Scrollback == 0 {
		cfg.Panel.Scrollback = 5000
	}
	if cfg.Form.ConfirmDelayMs == 0 {
		cfg.Form.ConfirmDelayMs = 500
	}
	if cfg.Stats.DownloadDir == "" {
		cfg.Stats.DownloadDir = "."
	}
}

func setDefault(field *string, v string) {
	if *field == "" {
		*field = v
	}
}
