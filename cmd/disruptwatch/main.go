// Command disruptwatch is a terminal client for the supply chain
// disruption simulator: it follows the simulator's log stream, keeps the
// route map in sync, configures and starts runs, and exports statistics.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/client"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/config"
)

var (
	cfgPath string
	verbose bool
	logFile string
	baseURL string

	loader  *config.Loader
	logSink io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "disruptwatch",
	Short: "Watch and drive the supply chain disruption simulator",
	Long: `disruptwatch talks to a running disruption simulator.

  watch     follow the simulation log and keep the route map up to date
  options   list the allowed values of each configuration field
  submit    send a disruption configuration
  start     start the simulation
  stats     show, download or chart run statistics`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		var err error
		loader, err = config.NewLoader(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg := loader.Config()
		if baseURL != "" {
			cfg.Server.BaseURL = baseURL
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
		slog.Debug("config loaded", "path", cfgPath, "base_url", cfg.Server.BaseURL)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logSink != nil {
			_ = logSink.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to YAML config (defaults built in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "disruptwatch.log", "Log file used while the terminal UI is running")
	rootCmd.PersistentFlags().StringVar(&baseURL, "server", "", "Simulator base URL (overrides server.base_url)")

	statsCmd.AddCommand(statsShowCmd)
	statsCmd.AddCommand(statsDownloadCmd)
	statsCmd.AddCommand(statsChartCmd)

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog logger. The terminal UI owns the
// screen, so while it runs logs go to --log-file instead of stderr.
func setupLogging(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var out io.Writer = os.Stderr
	if cmd == watchCmd && !headless {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out, logSink = f, f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

// simulator returns a client for the loaded configuration.
func simulator() *client.Client {
	cfg := loader.Config()
	return client.New(cfg.Server, cfg.Endpoints, nil)
}
