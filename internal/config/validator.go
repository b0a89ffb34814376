package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the config for:
//   - A parseable absolute base URL
//   - Absolute endpoint paths
//   - An enumeration endpoint for every form field
//   - A non-empty marker token and sane sizes
func Validate(cfg *ClientConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	u, err := url.Parse(cfg.Server.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Sprintf("server.base_url: %s", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Sprintf("server.base_url: scheme must be http or https, got %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, "server.base_url: host is required")
	}
	if cfg.Server.TimeoutMs < 0 {
		errs = append(errs, "server.timeout_ms must not be negative")
	}

	ep := cfg.Endpoints
	for name, path := range map[string]string{
		"events":        ep.Events,
		"nodes":         ep.Nodes,
		"edges":         ep.Edges,
		"map_state":     ep.MapState,
		"process":       ep.Process,
		"start":         ep.Start,
		"average_stats": ep.AverageStats,
		"sum_stats":     ep.SumStats,
	} {
		validatePath("endpoints."+name, path, &errs)
	}
	for _, field := range FormFields {
		path, ok := ep.Options[field]
		if !ok {
			errs = append(errs, fmt.Sprintf("endpoints.options: missing field %s", field))
			continue
		}
		validatePath("endpoints.options."+field, path, &errs)
	}
	for name, path := range ep.Datasets {
		validatePath("endpoints.datasets."+name, path, &errs)
	}

	if strings.TrimSpace(cfg.Stream.MarkerToken) == "" {
		errs = append(errs, "stream.marker_token must not be blank")
	}
	if cfg.Stream.QueueDepth < 1 {
		errs = append(errs, "stream.queue_depth must be at least 1")
	}
	if cfg.Panel.Scrollback < 1 {
		errs = append(errs, "panel.scrollback must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validatePath(name, path string, errs *[]string) {
	if !strings.HasPrefix(path, "/") {
		*errs = append(*errs, fmt.Sprintf("%s: path %q must start with /", name, path))
	}
}
