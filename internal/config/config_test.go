package config_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/config"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "disruptwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	l, err := config.NewLoader("")
	require.NoError(t, err)
	cfg := l.Config()

	assert.Equal(t, "http://localhost:5000", cfg.Server.BaseURL)
	assert.Equal(t, "/events", cfg.Endpoints.Events)
	assert.Equal(t, "/api/map_state", cfg.Endpoints.MapState)
	assert.Equal(t, "MAP_UPDATE", cfg.Stream.MarkerToken)
	assert.Equal(t, 5*time.Millisecond, cfg.Render.TraceStep())
	assert.Equal(t, 500*time.Millisecond, cfg.Form.ConfirmDelay())
	assert.Len(t, cfg.Endpoints.Options, len(config.FormFields))
	assert.Equal(t, "/api/fulfilled_demand_stats", cfg.Endpoints.Datasets["fulfilled"])
	require.NoError(t, config.Validate(cfg))
}

func TestLoader_SampleMatchesDefaults(t *testing.T) {
	l, err := config.NewLoader(filepath.Join("..", "..", "configs", "disruptwatch.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(config.Default(), l.Config()); diff != "" {
		t.Errorf("sample config differs from defaults (-want +got):\n%s", diff)
	}
}

func TestLoader_FileOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
version: v2
server:
  base_url: https://sim.example:8443
stream:
  marker_token: REFRESH
render:
  trace_step_ms: -1
endpoints:
  options:
    severity: /api/levels
`)
	l, err := config.NewLoader(path)
	require.NoError(t, err)
	cfg := l.Config()

	assert.Equal(t, "v2", cfg.Version)
	assert.Equal(t, "https://sim.example:8443", cfg.Server.BaseURL)
	assert.Equal(t, "REFRESH", cfg.Stream.MarkerToken)
	assert.Zero(t, cfg.Render.TraceStep())
	assert.Equal(t, "/api/levels", cfg.Endpoints.Options[config.FieldSeverity])
	assert.Equal(t, "/api/duration", cfg.Endpoints.Options[config.FieldDuration])
	require.NoError(t, config.Validate(cfg))
}

func TestLoader_BadYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "server: [unterminated")
	_, err := config.NewLoader(path)
	assert.Error(t, err)
}

func TestLoader_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "stream:\n  marker_token: A\n")
	l, err := config.NewLoader(path)
	require.NoError(t, err)

	var seen atomic.Value
	l.OnChange(func(c *config.ClientConfig) { seen.Store(c.Stream.MarkerToken) })

	writeConfig(t, dir, "stream:\n  marker_token: B\n")
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, "B", cfg.Stream.MarkerToken)
	assert.Equal(t, "B", l.Config().Stream.MarkerToken)
	assert.Equal(t, "B", seen.Load())
}

func TestLoader_Watch(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "stream:\n  marker_token: A\n")
	l, err := config.NewLoader(path)
	require.NoError(t, err)

	stop, err := l.Watch()
	require.NoError(t, err)
	defer stop()

	writeConfig(t, dir, "stream:\n  marker_token: WATCHED\n")
	require.Eventually(t, func() bool {
		return l.Config().Stream.MarkerToken == "WATCHED"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestLoader_WatchWithoutFile(t *testing.T) {
	l, err := config.NewLoader("")
	require.NoError(t, err)
	_, err = l.Watch()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.ClientConfig)
		wantErr string
	}{
		{"ok", func(*config.ClientConfig) {}, ""},
		{"bad scheme", func(c *config.ClientConfig) { c.Server.BaseURL = "ftp://x" }, "scheme must be http or https"},
		{"no host", func(c *config.ClientConfig) { c.Server.BaseURL = "http://" }, "host is required"},
		{"relative path", func(c *config.ClientConfig) { c.Endpoints.MapState = "api/map_state" }, "endpoints.map_state"},
		{"missing option", func(c *config.ClientConfig) { delete(c.Endpoints.Options, config.FieldDayOfStart) }, "missing field dayOfStart"},
		{"blank token", func(c *config.ClientConfig) { c.Stream.MarkerToken = "  " }, "marker_token"},
		{"queue", func(c *config.ClientConfig) { c.Stream.QueueDepth = -1 }, "queue_depth"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			err := config.Validate(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
