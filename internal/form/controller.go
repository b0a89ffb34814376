// Package form drives the simulation configuration form: it lists the
// allowed values of each field, submits a selection and starts a run.
package form

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/config"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/geo"
)

const (
	MsgSubmitted  = "Data submitted successfully. You can start the simulation"
	MsgStartError = "Error starting simulation"
)

// API is the part of the simulator client the form needs.
type API interface {
	Options(ctx context.Context, field string) ([]string, error)
	SubmitConfig(ctx context.Context, payload map[string]string) (json.RawMessage, error)
	StartSimulation(ctx context.Context) (json.RawMessage, error)
}

// Notifier shows a one-off message to the user.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Highlighter marks the node picked as place of disruption.
type Highlighter interface {
	HighlightNode(id geo.NodeID)
}

// Selection holds one value per form field.
type Selection struct {
	DisruptionType    string
	Severity          string
	Duration          string
	DayOfStart        string
	PlaceOfDisruption string
}

// Payload returns the request body for the configuration endpoint.
func (s Selection) Payload() map[string]string {
	return map[string]string{
		config.FieldDisruptionType:    s.DisruptionType,
		config.FieldSeverity:          s.Severity,
		config.FieldDuration:          s.Duration,
		config.FieldDayOfStart:        s.DayOfStart,
		config.FieldPlaceOfDisruption: s.PlaceOfDisruption,
	}
}

// Get returns the value of field.
func (s Selection) Get(field string) string {
	return s.Payload()[field]
}

// Set assigns value to field.
func (s *Selection) Set(field, value string) error {
	switch field {
	case config.FieldDisruptionType:
		s.DisruptionType = value
	case config.FieldSeverity:
		s.Severity = value
	case config.FieldDuration:
		s.Duration = value
	case config.FieldDayOfStart:
		s.DayOfStart = value
	case config.FieldPlaceOfDisruption:
		s.PlaceOfDisruption = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// Options maps each field to its allowed values.
type Options map[string][]string

// Validate checks that every field of sel is set to an allowed value.
// All problems are reported together.
func (o Options) Validate(sel Selection) error {
	var errs []string
	for _, f := range config.FormFields {
		v := sel.Get(f)
		if v == "" {
			errs = append(errs, fmt.Sprintf("%s: value is required", f))
			continue
		}
		allowed, ok := o[f]
		if ok && !slices.Contains(allowed, v) {
			errs = append(errs, fmt.Sprintf("%s: %q is not one of %s", f, v, strings.Join(allowed, ", ")))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid selection:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Controller runs form actions against the simulator.
type Controller struct {
	api       API
	notify    Notifier
	delay     time.Duration
	highlight Highlighter
}

// New creates a Controller. delay is the pause between a successful
// submit and its confirmation.
func New(api API, notify Notifier, delay time.Duration) *Controller {
	return &Controller{api: api, notify: notify, delay: delay}
}

// SetHighlighter wires place-of-disruption selections to a map.
func (c *Controller) SetHighlighter(h Highlighter) {
	c.highlight = h
}

// Select records a field change on sel. Picking a place of disruption
// highlights that node.
func (c *Controller) Select(sel *Selection, field, value string) error {
	if err := sel.Set(field, value); err != nil {
		return err
	}
	if field == config.FieldPlaceOfDisruption && c.highlight != nil {
		c.highlight.HighlightNode(geo.NodeID(value))
	}
	return nil
}

// Options fetches the allowed values of every field concurrently.
func (c *Controller) Options(ctx context.Context) (Options, error) {
	results := make([][]string, len(config.FormFields))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range config.FormFields {
		g.Go(func() error {
			vals, err := c.api.Options(gctx, f)
			if err != nil {
				return fmt.Errorf("options for %s: %w", f, err)
			}
			results[i] = vals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	opts := make(Options, len(results))
	for i, f := range config.FormFields {
		opts[f] = results[i]
	}
	return opts, nil
}

// Submit posts sel as the simulation configuration. Failures are logged
// and returned without retry.
func (c *Controller) Submit(ctx context.Context, sel Selection) error {
	if _, err := c.api.SubmitConfig(ctx, sel.Payload()); err != nil {
		slog.Error("submit configuration failed", "err", err)
		return fmt.Errorf("submit configuration: %w", err)
	}
	if c.delay > 0 {
		t := time.NewTimer(c.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.notify.Notify(MsgSubmitted)
	return nil
}

// Start asks the simulator to begin a run and shows its reply: the
// message field when present, the compact JSON body otherwise. A reply
// that cannot be read is reported as a start error.
func (c *Controller) Start(ctx context.Context) (string, error) {
	body, err := c.api.StartSimulation(ctx)
	if len(body) == 0 {
		if err == nil {
			err = errors.New("empty response")
		}
		return "", c.startFailed(err)
	}
	msg, perr := replyText(body)
	if perr != nil {
		return "", c.startFailed(errors.Join(err, perr))
	}
	if err != nil {
		slog.Warn("simulator refused to start", "err", err)
	}
	c.notify.Notify(msg)
	return msg, nil
}

func (c *Controller) startFailed(err error) error {
	slog.Error("start simulation failed", "err", err)
	c.notify.Notify(MsgStartError)
	return fmt.Errorf("start simulation: %w", err)
}

func replyText(body []byte) (string, error) {
	var reply struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &reply); err == nil && reply.Message != nil && *reply.Message != "" {
		return *reply.Message, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	return buf.String(), nil
}
