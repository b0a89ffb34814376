package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/config"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/form"
)

var (
	selection   form.Selection
	skipCheck   bool
	optionsJSON bool
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the allowed values of each configuration field",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		opts, err := newController(cmd).Options(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if optionsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(opts)
		}
		for _, f := range config.FormFields {
			fmt.Fprintf(out, "%-18s %s\n", f+":", strings.Join(opts[f], ", "))
		}
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send a disruption configuration to the simulator",
	Long: `Send the five configuration fields in one request. Values are checked
against the simulator's allowed options first unless --no-check is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		ctrl := newController(cmd)
		if !skipCheck {
			opts, err := ctrl.Options(ctx)
			if err != nil {
				return err
			}
			if err := opts.Validate(selection); err != nil {
				return err
			}
		}
		return ctrl.Submit(ctx, selection)
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		_, err := newController(cmd).Start(ctx)
		return err
	},
}

func init() {
	optionsCmd.Flags().BoolVar(&optionsJSON, "json", false, "Print options as JSON")

	f := submitCmd.Flags()
	f.StringVar(&selection.DisruptionType, "type", "", "Disruption type")
	f.StringVar(&selection.Severity, "severity", "", "Disruption severity")
	f.StringVar(&selection.Duration, "duration", "", "Disruption duration")
	f.StringVar(&selection.DayOfStart, "day", "", "Day the disruption starts")
	f.StringVar(&selection.PlaceOfDisruption, "place", "", "Node id of the place of disruption")
	f.BoolVar(&skipCheck, "no-check", false, "Skip validation against the simulator's options")
}

func newController(cmd *cobra.Command) *form.Controller {
	out := cmd.OutOrStdout()
	notify := form.NotifierFunc(func(msg string) { fmt.Fprintln(out, msg) })
	return form.New(simulator(), notify, loader.Config().Form.ConfirmDelay())
}
