package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fredericcarre/xcprobe/pkg/evidence"
)

// Job is one allowlisted command to execute against a target host.
type Job struct {
	Slug    string
	Command string
	Args    []string
}

// MetricsRecorder receives per-command observability events. It is
// satisfied by telemetry/metrics.Collector; Pool works with a nil
// MetricsRecorder (every call is skipped) so metrics stay optional.
type MetricsRecorder interface {
	RecordCommand(transport, outcome string, duration time.Duration)
	RecordTimeout(kind string)
	AddEvidenceBytes(n int)
}

// Pool runs Jobs against a Transport with a bounded number of concurrent
// workers, a per-command timeout, and a global budget for the whole batch.
// Every started job's outcome — success, non-zero exit, or timeout — is
// appended to the evidence store. Jobs not yet submitted when the global
// budget elapses are not run and get no record.
type Pool struct {
	transport      Transport
	allowlist      *Allowlist
	store          *evidence.Store
	workers        int
	commandTimeout time.Duration
	globalBudget   time.Duration

	// Metrics is optional; leave nil to record nothing.
	Metrics MetricsRecorder
}

// NewPool builds a Pool. workers, commandTimeout, and globalBudget fall back
// to the package defaults when zero.
func NewPool(transport Transport, allowlist *Allowlist, store *evidence.Store, workers int, commandTimeout, globalBudget time.Duration) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if commandTimeout <= 0 {
		commandTimeout = 30 * time.Second
	}
	if globalBudget <= 0 {
		globalBudget = 300 * time.Second
	}
	return &Pool{
		transport:      transport,
		allowlist:      allowlist,
		store:          store,
		workers:        workers,
		commandTimeout: commandTimeout,
		globalBudget:   globalBudget,
	}
}

// Run executes every job in jobs, fanning out across the worker pool. Once
// the global budget elapses, Run stops submitting new jobs but returns
// normally — in-flight jobs are allowed to finish, and the bundle built from
// the resulting evidence store is still valid. Jobs rejected by the
// allowlist are recorded with exit_code -1 and never reach the Transport.
func (p *Pool) Run(ctx context.Context, jobs []Job) []evidence.Record {
	budgetCtx, cancel := context.WithTimeout(ctx, p.globalBudget)
	defer cancel()

	jobCh := make(chan Job)
	resultCh := make(chan evidence.Record, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				resultCh <- p.runOne(budgetCtx, job)
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-budgetCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]evidence.Record, 0, len(jobs))
	for rec := range resultCh {
		results = append(results, rec)
	}
	return results
}

// runOne executes a single job under the per-command timeout and always
// appends a record to the evidence store, even on rejection or timeout.
func (p *Pool) runOne(ctx context.Context, job Job) evidence.Record {
	startedAt := time.Now()

	if p.allowlist != nil && !p.allowlist.Allows(job.Command) {
		p.recordMetrics("rejected", 0, nil)
		return p.store.Append(job.Slug, startedAt, time.Now(), job.Command, -1,
			[]byte(fmt.Sprintf("command %q rejected: not in allowlist", job.Command)))
	}
	if ContainsSentinel(job.Args) {
		p.recordMetrics("rejected", 0, nil)
		return p.store.Append(job.Slug, startedAt, time.Now(), job.Command, -1,
			[]byte(fmt.Sprintf("command %q rejected: argument failed safe-argument grammar", job.Command)))
	}

	cmdCtx, cancel := context.WithTimeout(ctx, p.commandTimeout)
	defer cancel()

	result, err := p.transport.Execute(cmdCtx, job.Command, job.Args)
	completedAt := time.Now()

	if err != nil {
		content := result.Stdout
		if cmdCtx.Err() != nil {
			// Per the collector's timeout contract: a command that blows its
			// budget still yields a partial evidence file and an
			// AuditRecord with exit_code -1, and collection continues.
			content = append(content, []byte(fmt.Sprintf("\n[TRANSPORT TIMEOUT: %v]", err))...)
			p.recordMetrics("timeout", result.Duration, &TransportTimeoutError{Command: job.Command, Timeout: p.commandTimeout.String()})
		} else {
			content = append(content, []byte(fmt.Sprintf("\n[TRANSPORT ERROR: %v]", err))...)
			p.recordMetrics("error", result.Duration, nil)
		}
		rec := p.store.Append(job.Slug, startedAt, completedAt, job.Command, -1, content)
		p.recordEvidenceBytes(rec.Bytes)
		return rec
	}

	p.recordMetrics("success", result.Duration, nil)
	rec := p.store.Append(job.Slug, startedAt, completedAt, job.Command, result.ExitCode, result.Stdout)
	p.recordEvidenceBytes(rec.Bytes)
	return rec
}

func (p *Pool) recordMetrics(outcome string, duration time.Duration, timeoutErr *TransportTimeoutError) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.RecordCommand("local", outcome, duration)
	if timeoutErr != nil {
		p.Metrics.RecordTimeout("command")
	}
}

func (p *Pool) recordEvidenceBytes(n int) {
	if p.Metrics != nil {
		p.Metrics.AddEvidenceBytes(n)
	}
}
