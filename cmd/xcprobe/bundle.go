package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fredericcarre/xcprobe/internal/cli"
	"github.com/fredericcarre/xcprobe/pkg/bundle"
)

var bundleFlags struct {
	path string
}

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Inspect or verify a bundle archive without running analysis",
}

var bundleVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a bundle's integrity and schema without analyzing it",
	Long: `Verify runs the bundle's integrity check (every archive member's digest
matches checksums.json) and schema validation (manifest.json conforms to
the current schema version), reporting success or the specific
BundleIntegrity/BundleSchema failure. It never scores or clusters
anything — useful as a CI smoke test on a collector's output before it is
handed to an analyst.`,
	RunE: runBundleVerify,
}

var bundleInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a read-only summary of a bundle",
	Long: `Inspect prints the audit record count, total evidence bytes, and
per-bundle redaction summary without running any analysis.`,
	RunE: runBundleInspect,
}

func init() {
	rootCmd.AddCommand(bundleCmd)
	bundleCmd.AddCommand(bundleVerifyCmd)
	bundleCmd.AddCommand(bundleInspectCmd)

	bundleCmd.PersistentFlags().StringVar(&bundleFlags.path, "bundle", "bundle.tar.gz", "bundle file")
}

func openBundle() (*bundle.Bundle, error) {
	f, err := os.Open(bundleFlags.path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()
	return bundle.Read(f)
}

func runBundleVerify(cmd *cobra.Command, args []string) error {
	if _, err := openBundle(); err != nil {
		return cli.NewCommandError("bundle verify", err)
	}
	fmt.Printf("bundle %s: integrity and schema OK\n", bundleFlags.path)
	return nil
}

func runBundleInspect(cmd *cobra.Command, args []string) error {
	b, err := openBundle()
	if err != nil {
		return cli.NewCommandError("bundle inspect", err)
	}

	var evidenceBytes int
	for _, data := range b.Evidence {
		evidenceBytes += len(data)
	}

	replacements := 0
	for _, c := range b.Manifest.Facts.Configs {
		replacements += c.RedactionReport.Replacements
	}

	fmt.Printf("run_id:          %s\n", b.Manifest.RunID)
	fmt.Printf("host:            %s\n", b.Manifest.Host)
	fmt.Printf("collected_at:    %s\n", b.Manifest.CollectedAt)
	fmt.Printf("audit records:   %d\n", len(b.Audit))
	fmt.Printf("evidence bytes:  %d\n", evidenceBytes)
	fmt.Printf("processes:       %d\n", len(b.Manifest.Facts.Processes))
	fmt.Printf("services:        %d\n", len(b.Manifest.Facts.Services))
	fmt.Printf("ports:           %d\n", len(b.Manifest.Facts.Ports))
	fmt.Printf("config snippets: %d (redaction replacements: %d)\n", len(b.Manifest.Facts.Configs), replacements)
	if len(b.Manifest.Facts.Warnings) > 0 {
		fmt.Printf("parse warnings:  %d\n", len(b.Manifest.Facts.Warnings))
	}
	return nil
}
