package form_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/client"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/config"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/form"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/geo"
)

type notes struct {
	mu   sync.Mutex
	msgs []string
}

func (n *notes) Notify(msg string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, msg)
	n.mu.Unlock()
}

func (n *notes) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

func newController(t *testing.T, h http.Handler, delay time.Duration) (*form.Controller, *notes) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.Default()
	cfg.Server.BaseURL = srv.URL
	n := &notes{}
	return form.New(client.New(cfg.Server, cfg.Endpoints, srv.Client()), n, delay), n
}

var sel = form.Selection{
	DisruptionType:    "Blockade",
	Severity:          "high",
	Duration:          "7",
	DayOfStart:        "3",
	PlaceOfDisruption: "12",
}

func TestSubmit_OnePostWithAllFields(t *testing.T) {
	var posts atomic.Int32
	var got map[string]string
	var mu sync.Mutex
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process", func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		got = body
		mu.Unlock()
		io.WriteString(w, `{"status": "ok"}`)
	})
	c, n := newController(t, mux, 20*time.Millisecond)

	start := time.Now()
	require.NoError(t, c.Submit(context.Background(), sel))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	assert.Equal(t, int32(1), posts.Load())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]string{
		"disruptionType":    "Blockade",
		"severity":          "high",
		"duration":          "7",
		"dayOfStart":        "3",
		"placeOfDisruption": "12",
	}, got)
	assert.Equal(t, []string{form.MsgSubmitted}, n.all())
}

func TestSubmit_FailureNotRetried(t *testing.T) {
	var posts atomic.Int32
	c, n := newController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		http.Error(w, "bad", http.StatusBadRequest)
	}), 0)

	err := c.Submit(context.Background(), sel)
	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, int32(1), posts.Load())
	assert.Empty(t, n.all())
}

func TestSubmit_CancelledDuringDelay(t *testing.T) {
	c, n := newController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}), time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Submit(ctx, sel), context.DeadlineExceeded)
	assert.Empty(t, n.all())
}

func TestStart(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", http.StatusOK, `{"message": "Simulation started"}`, "Simulation started"},
		{"no message", http.StatusOK, `{ "status" : "running" }`, `{"status":"running"}`},
		{"empty message", http.StatusOK, `{"message": ""}`, `{"message":""}`},
		{"refusal", http.StatusConflict, `{"message": "Already running"}`, "Already running"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/graph", func(w http.ResponseWriter, r *http.Request) {
				var body map[string]bool
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, map[string]bool{"start": true}, body)
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})
			c, n := newController(t, mux, 0)

			msg, err := c.Start(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, msg)
			assert.Equal(t, []string{tc.want}, n.all())
		})
	}
}

func TestStart_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.Default()
	cfg.Server.BaseURL = url
	n := &notes{}
	c := form.New(client.New(cfg.Server, cfg.Endpoints, nil), n, 0)

	_, err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{form.MsgStartError}, n.all())
}

func TestStart_UnreadableReply(t *testing.T) {
	c, n := newController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>oops</html>")
	}), 0)

	_, err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{form.MsgStartError}, n.all())
}

type fakeOptions map[string][]string

func (f fakeOptions) Options(_ context.Context, field string) ([]string, error) {
	v, ok := f[field]
	if !ok {
		return nil, errors.New("not found")
	}
	return v, nil
}

func (fakeOptions) SubmitConfig(context.Context, map[string]string) (json.RawMessage, error) {
	return nil, nil
}

func (fakeOptions) StartSimulation(context.Context) (json.RawMessage, error) {
	return nil, nil
}

func TestOptions(t *testing.T) {
	api := fakeOptions{
		"disruptionType":    {"Blockade", "Strike"},
		"severity":          {"low", "high"},
		"duration":          {"1", "7"},
		"dayOfStart":        {"3"},
		"placeOfDisruption": {"12", "13"},
	}
	c := form.New(api, &notes{}, 0)

	opts, err := c.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, form.Options(api), opts)
	assert.NoError(t, opts.Validate(sel))

	bad := sel
	bad.Severity = "extreme"
	bad.Duration = ""
	err = opts.Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `severity: "extreme" is not one of low, high`)
	assert.Contains(t, err.Error(), "duration: value is required")
}

func TestOptions_MissingField(t *testing.T) {
	c := form.New(fakeOptions{"severity": {"low"}}, &notes{}, 0)
	_, err := c.Options(context.Background())
	assert.Error(t, err)
}

type highlights struct{ ids []geo.NodeID }

func (h *highlights) HighlightNode(id geo.NodeID) { h.ids = append(h.ids, id) }

func TestSelect_HighlightsPlace(t *testing.T) {
	c := form.New(fakeOptions{}, &notes{}, 0)
	h := &highlights{}
	c.SetHighlighter(h)

	var s form.Selection
	require.NoError(t, c.Select(&s, "severity", "low"))
	require.NoError(t, c.Select(&s, "placeOfDisruption", "42"))
	assert.Error(t, c.Select(&s, "colour", "red"))

	assert.Equal(t, "low", s.Severity)
	assert.Equal(t, "42", s.PlaceOfDisruption)
	assert.Equal(t, []geo.NodeID{"42"}, h.ids)
}
