package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/stats"
)

const statsSource = "graph"

var (
	statsFormat string
	statsDir    string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show, download or chart run statistics",
}

var statsShowCmd = &cobra.Command{
	Use:   "show <dataset>",
	Short: "Print a per-agent dataset as JSON or wide CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := loadView(cmd, args[0])
		if err != nil {
			return err
		}
		content, err := v.Render()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), content)
		return nil
	},
}

var statsDownloadCmd = &cobra.Command{
	Use:   "download <dataset>",
	Short: "Save a per-agent dataset as <dataset>_graph.<json|csv>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := loadView(cmd, args[0])
		if err != nil {
			return err
		}
		path, err := stats.Download(outputDir(), v)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var statsChartCmd = &cobra.Command{
	Use:       "chart <avg|sum>",
	Short:     "Render demand, cost and loss charts of the average or summed statistics",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"avg", "sum"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		agg, err := simulator().Aggregate(ctx, args[0])
		if err != nil {
			return err
		}
		paths, err := stats.RenderCharts(outputDir(), agg)
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		if err != nil {
			slog.Warn("chart rendering incomplete", "err", err)
			return fmt.Errorf("failed to render: %w", err)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{statsShowCmd, statsDownloadCmd} {
		c.Flags().StringVarP(&statsFormat, "format", "f", string(stats.FormatJSON), "Output format: json or csv")
		c.ValidArgsFunction = datasetNames
	}
	statsDownloadCmd.Flags().StringVarP(&statsDir, "dir", "d", "", "Output directory (overrides stats.download_dir)")
	statsChartCmd.Flags().StringVarP(&statsDir, "dir", "d", "", "Output directory (overrides stats.download_dir)")
}

func loadView(cmd *cobra.Command, dataset string) (*stats.View, error) {
	format, err := stats.ParseFormat(statsFormat)
	if err != nil {
		return nil, err
	}
	if _, ok := loader.Config().Endpoints.Datasets[dataset]; !ok {
		names, _ := datasetNames(cmd, nil, "")
		return nil, fmt.Errorf("dataset %q not available (want one of %s)", dataset, strings.Join(names, ", "))
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	data, err := simulator().Dataset(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return &stats.View{Dataset: dataset, Source: statsSource, Format: format, Data: data}, nil
}

func outputDir() string {
	if statsDir != "" {
		return statsDir
	}
	return loader.Config().Stats.DownloadDir
}

func datasetNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if loader == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(loader.Config().Endpoints.Datasets))
	for name := range loader.Config().Endpoints.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, cobra.ShellCompDirectiveNoFileComp
}
