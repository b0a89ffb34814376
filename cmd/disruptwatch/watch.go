package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/api"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/config"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/geo"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/logpanel"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/refresh"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/render"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/session"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/snapshot"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/stream"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/surface"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/tui"
)

var (
	headless   bool
	listenAddr string
	highlight  string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the simulation log and keep the route map in sync",
	Long: `Connect to the simulator's log stream and show every line in the log
panel. Lines carrying the map-update marker refresh the route map, which is
served as GeoJSON by the inspection API.

The stream is not reconnected once lost; the map stays available.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&headless, "headless", false, "Print log lines to stdout instead of running the terminal UI")
	watchCmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:8080", "Inspection API listen address (empty disables)")
	watchCmd.Flags().StringVar(&highlight, "highlight", "", "Node id to mark as the place of disruption")
}

// stdoutPanel mirrors panel lines to stdout in headless mode.
type stdoutPanel struct {
	*logpanel.Panel
}

func (p stdoutPanel) AppendLine(text string) {
	p.Panel.AppendLine(text)
	fmt.Fprintln(os.Stdout, p.Panel.Last())
}

func runWatch(cmd *cobra.Command, args []string) error {
	sigCtx, stopSignals := signalContext(cmd)
	defer stopSignals()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	cfg := loader.Config()
	sim := simulator()

	// ── Static map data ───────────────────────────────────────────────────────
	nodes, err := sim.Nodes(ctx)
	if err != nil {
		return fmt.Errorf("load nodes: %w", err)
	}
	edges, err := sim.Edges(ctx)
	if err != nil {
		slog.Warn("road network unavailable", "err", err)
	}
	slog.Info("map data loaded", "nodes", len(nodes), "edges", len(edges))

	// ── Renderer, refresh and session ─────────────────────────────────────────
	layers := surface.New()
	renderer := render.New(layers, nodes, snapshot.New(), cfg.Render.TraceStep())
	defer renderer.Close()
	renderer.DrawNetwork(edges)
	if highlight != "" {
		renderer.HighlightNode(geo.NodeID(highlight))
	}

	coord := refresh.New(sim, renderer)
	defer coord.Close()

	panel := logpanel.New(cfg.Panel.Scrollback)
	var sink session.Panel = panel
	if headless {
		sink = stdoutPanel{panel}
	}
	sess := session.New(ctx, sink, coord, cfg.Stream.MarkerToken, cfg.Stream.QueueDepth)
	defer sess.Close()

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.ClientConfig) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		sess.SetToken(newCfg.Stream.MarkerToken)
		renderer.SetStep(newCfg.Render.TraceStep())
		slog.Info("config hot-reloaded", "marker_token", newCfg.Stream.MarkerToken)
	})
	if cfgPath != "" {
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// The first map is drawn without waiting for a marker line.
	coord.Trigger()

	events := stream.New(sim.URL(cfg.Endpoints.Events), nil)
	g, gctx := errgroup.WithContext(ctx)

	var prog *tea.Program
	if !headless {
		model := tui.New(panel, layers, func() string { return events.State().String() })
		prog = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
	}

	g.Go(func() error {
		err := events.Run(gctx, sess)
		if err != nil && gctx.Err() == nil {
			slog.Warn("log stream closed, map stays available", "err", err)
		}
		if prog != nil {
			prog.Send(tui.StatusMsg{})
		}
		return nil
	})

	if listenAddr != "" {
		srv := &http.Server{
			Addr: listenAddr,
			Handler: api.New(api.Deps{
				Surface:          layers,
				Panel:            panel,
				Nodes:            nodes,
				Highlight:        renderer.HighlightNode,
				StreamState:      events.State,
				QueueUtilization: sess.QueueUtilization,
			}),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		g.Go(func() error {
			slog.Info("inspection API starting", "addr", listenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("inspection API: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutCancel()
			return srv.Shutdown(shutCtx)
		})
	}

	if headless {
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	} else {
		g.Go(func() error {
			// Quitting the UI ends the whole session.
			defer cancel()
			_, err := prog.Run()
			if err != nil && gctx.Err() == nil {
				return fmt.Errorf("terminal UI: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	slog.Info("shutting down…")
	return err
}
