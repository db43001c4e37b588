package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fredericcarre/xcprobe/internal/cli"
	"github.com/fredericcarre/xcprobe/internal/config"
	"github.com/fredericcarre/xcprobe/internal/telemetry/metrics"
	"github.com/fredericcarre/xcprobe/pkg/bundle"
	"github.com/fredericcarre/xcprobe/pkg/collector"
	"github.com/fredericcarre/xcprobe/pkg/evidence"
	"github.com/fredericcarre/xcprobe/pkg/facts"
	"github.com/fredericcarre/xcprobe/pkg/redact"
)

var collectFlags struct {
	host           string
	out            string
	watchAllowlist bool
	schedule       string
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect evidence from a target host into a sealed bundle",
	Long: `Collect runs every command on the configured allowlist against the
target, bounded by the worker pool and per-command/global timeouts, and
seals the result into a tar+gzip bundle ready for xcprobe analyze.

The allowlist grammar, redaction, and sealing are defined by the core
packages; this command only wires configuration and local command
execution together.`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectFlags.host, "target", "localhost", "target host label recorded in the bundle manifest")
	collectCmd.Flags().StringVar(&collectFlags.out, "out", "bundle.tar.gz", "output bundle path")
	collectCmd.Flags().BoolVar(&collectFlags.watchAllowlist, "watch-allowlist", false, "log changes to the allowlist file during this run (the running pass keeps its allowlist)")
	collectCmd.Flags().StringVar(&collectFlags.schedule, "schedule", "", "cron expression for recurring collection; runs once if empty")
}

func runCollect(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	if collectFlags.watchAllowlist {
		cfg.Collector.WatchAllowlist = true
	}
	if collectFlags.schedule != "" {
		cfg.Schedule.Enabled = true
		cfg.Schedule.CronExpression = collectFlags.schedule
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func(runCtx context.Context) {
		if err := collectOnce(runCtx, cfg); err != nil {
			slog.Error("collection run failed", "error", err)
		}
	}

	if !cfg.Schedule.Enabled {
		run(ctx)
		return nil
	}

	sched := collector.NewScheduler(cfg.Schedule.CronExpression, run)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// collectOnce runs a single collection pass and writes a sealed bundle.
func collectOnce(ctx context.Context, cfg *config.Config) error {
	commands, err := config.ReadAllowlist(cfg.Collector.AllowlistPath)
	if err != nil {
		return fmt.Errorf("read allowlist: %w", err)
	}
	allowlist := collector.NewAllowlist(commands)
	store := evidence.NewStore(int(cfg.Collector.MaxEvidenceBytes))
	transport := &localTransport{}

	jobs := make([]collector.Job, 0, len(commands))
	for _, c := range commands {
		jobs = append(jobs, collector.Job{Slug: c, Command: c})
	}

	progress := cli.NewProgressReporter(os.Stderr)
	pool := collector.NewPool(transport, allowlist, store, cfg.Collector.Workers, cfg.Collector.CommandTimeout, cfg.Collector.GlobalBudget)

	if cfg.Telemetry.Metrics.Enabled {
		mc := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
		pool.Metrics = mc
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, mc.Handler())
		server := &http.Server{Addr: ":9090", Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Warn("metrics server stopped", "error", err)
			}
		}()
		defer server.Close()
	}

	if cfg.Collector.WatchAllowlist {
		watcher, err := config.NewAllowlistWatcher(cfg.Collector.AllowlistPath)
		if err == nil {
			watchCtx, cancelWatch := context.WithCancel(ctx)
			defer cancelWatch()
			go watcher.Watch(watchCtx, func(updated []string) {
				slog.Info("allowlist changed", "commands", len(updated))
			})
		}
	}

	progress.Start(int64(len(jobs)))
	results := pool.Run(ctx, jobs)
	progress.Update(int64(len(results)))
	progress.Finish()

	redactMode := redact.ModeStandard
	if cfg.Redaction.Mode == "hash" {
		redactMode = redact.ModeHash
	}
	redactedEvidence, warnings := redactEvidence(store, redactMode)
	for _, w := range warnings {
		slog.Warn("evidence redacted", "warning", w)
	}

	b := &bundle.Bundle{
		Manifest: bundle.Manifest{
			SchemaVersion: bundle.SchemaVersion,
			RunID:         uuid.New().String(),
			Host:          collectFlags.host,
			CollectedAt:   time.Now().UTC(),
			Facts:         parseFacts(store, redactedEvidence),
		},
		Audit:    store.Records(),
		Evidence: redactedEvidence,
	}

	out, err := os.Create(collectFlags.out)
	if err != nil {
		return fmt.Errorf("create bundle file: %w", err)
	}
	defer out.Close()

	if err := bundle.Write(out, b); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	fmt.Printf("bundle written to %s (%d commands, %d evidence records)\n", collectFlags.out, len(jobs), len(b.Audit))
	return nil
}

// redactEvidence re-scans every raw evidence record with the redaction
// engine before it is written to the bundle: the evidence store's own job
// is never to drop a record, not to redact it, so the collector owns the
// redaction pass described by §4.2.
func redactEvidence(store *evidence.Store, mode redact.Mode) (map[evidence.Ref][]byte, []string) {
	out := make(map[evidence.Ref][]byte)
	var warnings []string
	for _, rec := range store.Records() {
		data, ok := store.Evidence(rec.EvidenceRef)
		if !ok {
			continue
		}
		redacted, report := redact.Redact(string(data), mode)
		if !report.Empty() {
			warnings = append(warnings, fmt.Sprintf("%s: %d secret(s) redacted", rec.EvidenceRef, report.Replacements))
		}
		out[rec.EvidenceRef] = []byte(redacted)
	}
	return out, warnings
}

// parseFacts dispatches each evidence record to the fact parser matching
// its command slug. Slugs outside this table are left unparsed: the exact
// set of platform commands a collector runs is outside this core's scope,
// and an unrecognized slug is simply retained as raw evidence with no
// structured facts derived from it.
func parseFacts(store *evidence.Store, redactedEvidence map[evidence.Ref][]byte) facts.Set {
	var set facts.Set
	for _, rec := range store.Records() {
		text := string(redactedEvidence[rec.EvidenceRef])
		var warnings []string
		switch rec.Command {
		case "ps":
			var procs []facts.Process
			procs, warnings = facts.ParseProcessesLinux(text, rec.EvidenceRef)
			set.Processes = append(set.Processes, procs...)
		case "ss":
			var ports []facts.PortBinding
			ports, warnings = facts.ParsePortsLinux(text, rec.EvidenceRef)
			set.Ports = append(set.Ports, ports...)
		case "systemctl":
			var services []facts.Service
			services, warnings = facts.ParseSystemdShow(text, rec.EvidenceRef)
			set.Services = append(set.Services, services...)
		case "dpkg":
			var pkgs []facts.Package
			pkgs, warnings = facts.ParsePackagesDpkg(text, rec.EvidenceRef)
			set.Packages = append(set.Packages, pkgs...)
		case "rpm":
			var pkgs []facts.Package
			pkgs, warnings = facts.ParsePackagesRPM(text, rec.EvidenceRef)
			set.Packages = append(set.Packages, pkgs...)
		}
		set.Warnings = append(set.Warnings, warnings...)
	}
	return set
}

// localTransport runs allowlisted commands locally via os/exec, for
// collecting evidence from the host xcprobe itself runs on. Remote
// SSH/WinRM transports implement the same Transport interface but are not
// part of this core (see spec's Transport collaborator boundary).
type localTransport struct{}

func (t *localTransport) Execute(ctx context.Context, command string, args []string) (collector.CommandResult, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := collector.CommandResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		return result, err
	}
	result.ExitCode = 0
	return result, nil
}
