package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredericcarre/xcprobe/internal/cli"
	"github.com/fredericcarre/xcprobe/internal/config"
	"github.com/fredericcarre/xcprobe/pkg/analyzer"
	"github.com/fredericcarre/xcprobe/pkg/bundle"
	"github.com/fredericcarre/xcprobe/pkg/packplan"
)

var analyzeFlags struct {
	bundlePath string
	outDir     string
	format     string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a sealed bundle into a pack plan",
	Long: `Analyze loads a bundle produced by xcprobe collect, scores and clusters
its processes into application candidates, detects dependencies between
them, and writes the resulting pack plan. Analysis is offline and
input-pure: the same bundle always produces a byte-identical pack plan.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFlags.bundlePath, "bundle", "bundle.tar.gz", "bundle file to analyze")
	analyzeCmd.Flags().StringVar(&analyzeFlags.outDir, "out", ".", "directory to write pack-plan.json into")
	analyzeCmd.Flags().StringVar(&analyzeFlags.format, "format", string(cli.FormatText), "summary output format: text or json")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	f, err := os.Open(analyzeFlags.bundlePath)
	if err != nil {
		return cli.NewCommandError("analyze", fmt.Errorf("open bundle: %w", err))
	}
	defer f.Close()

	b, err := bundle.Read(f)
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}

	opts := analyzer.Options{
		ClusterPrefix:  cfg.Analyzer.ClusterPrefix,
		MinConfidence:  cfg.Analyzer.MinConfidence,
		StrictEvidence: cfg.Analyzer.StrictEvidence,
	}

	plan, err := analyzer.Analyze(b, opts, time.Now().UTC())
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}

	path, err := packplan.WriteFile(analyzeFlags.outDir, plan)
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}

	return printPlanSummary(plan, path)
}

func printPlanSummary(plan *packplan.PackPlan, path string) error {
	var formatter cli.Formatter
	switch cli.OutputFormat(analyzeFlags.format) {
	case cli.FormatJSON:
		formatter = &cli.JSONFormatter{}
	default:
		formatter = &cli.TextFormatter{}
	}

	flagged := 0
	for _, c := range plan.Clusters {
		if c.BelowMinConfidence {
			flagged++
		}
	}

	summary := map[string]any{
		"pack_plan":           path,
		"clusters":            len(plan.Clusters),
		"edges":               len(plan.Edges),
		"below_min_confidence": flagged,
		"warnings":            len(plan.Warnings),
	}
	return formatter.FormatTo(os.Stdout, summary)
}
