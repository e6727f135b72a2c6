// Package engine runs batches of SSB transfer-function computations.
//
// A batch is a list of Jobs, typically the cartesian product of aberration
// values from a sweep. The Engine distributes jobs across a bounded pool of
// goroutines; each job builds its probe, evaluates the CTF (itself split
// across CTFWorkers goroutines) and reduces it to a radial profile.
//
// Execution model:
//  1. Expand the configuration into Jobs (JobsFromConfig)
//  2. Run jobs concurrently with at most Workers in flight
//  3. Stop scheduling on the first failure or context cancellation
//  4. Return results in job order and accumulate execution statistics
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/sbl8/ssbctf/config"
	"github.com/sbl8/ssbctf/core"
	"github.com/sbl8/ssbctf/internal/logging"
	"github.com/sbl8/ssbctf/optics"
	"github.com/sbl8/ssbctf/ssb"
)

// Job is one probe configuration to evaluate.
type Job struct {
	ID     string
	Grid   core.Grid
	Params optics.ProbeParams
	QMax   float64
}

// Result holds everything computed for a Job.
type Result struct {
	Job     Job
	Probe   core.Field
	CTF     *mat.Dense
	Profile []ssb.Bin
	Elapsed time.Duration
}

// Options configures engine behavior.
type Options struct {
	Workers    int     // concurrent jobs
	CTFWorkers int     // goroutines per CTF evaluation
	ProfileBin float64 // radial bin width, 0 = one reciprocal pixel
}

// DefaultOptions runs one job at a time and parallelises inside the CTF.
func DefaultOptions() Options {
	return Options{
		Workers:    1,
		CTFWorkers: runtime.NumCPU(),
	}
}

// Stats tracks execution metrics across Run calls.
type Stats struct {
	TotalJobs      int64
	FailedJobs     int64
	TotalElapsed   time.Duration
	AverageLatency time.Duration
}

// Engine executes Jobs.
type Engine struct {
	opts   Options
	logger *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(opts Options, logger *zap.Logger) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Engine{
		opts:   opts,
		logger: logging.OrNop(logger),
	}
}

// Workers reports the job concurrency.
func (e *Engine) Workers() int {
	return e.opts.Workers
}

// Run executes jobs and returns their results in the same order. The first
// failing job cancels the rest and its error is returned wrapped in a
// config.OpError of kind execution.
func (e *Engine) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.runJob(gctx, job)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// Interrupted by a sibling failure or the caller, not failed.
				e.logger.Debug("job cancelled", zap.String("job", job.ID), zap.Error(err))
				return err
			}
			if err != nil {
				e.record(0, true)
				e.logger.Error("job failed", zap.String("job", job.ID), zap.Error(err))
				return &config.OpError{
					Op:   "engine.run",
					Kind: config.KindExecution,
					Err:  fmt.Errorf("job %s: %w", job.ID, err),
				}
			}
			e.record(res.Elapsed, false)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) runJob(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	log := e.logger.With(zap.String("job", job.ID))
	log.Debug("job started",
		zap.Int("n", job.Grid.N),
		zap.Float64("c10", job.Params.Aberrations.C10),
		zap.Float64("c30", job.Params.Aberrations.C30),
		zap.Float64("q_max", job.QMax))

	probe, err := optics.ComplexProbe(job.Grid, job.Params)
	if err != nil {
		return Result{}, fmt.Errorf("build probe: %w", err)
	}

	q := job.Grid.Q()
	ctf, err := ssb.CTF(ctx, probe, q, job.QMax, ssb.Options{Workers: e.opts.CTFWorkers})
	if err != nil {
		return Result{}, fmt.Errorf("evaluate ctf: %w", err)
	}

	bin := e.opts.ProfileBin
	if bin <= 0 {
		bin = job.Grid.ReciprocalSampling()
	}
	profile, err := ssb.RadialProfile(ctf, q, bin)
	if err != nil {
		return Result{}, fmt.Errorf("radial profile: %w", err)
	}

	res := Result{
		Job:     job,
		Probe:   probe,
		CTF:     ctf,
		Profile: profile,
		Elapsed: time.Since(start),
	}
	log.Debug("job finished", zap.Duration("elapsed", res.Elapsed), zap.Float64("ctf_max", mat.Max(ctf)))
	return res, nil
}

func (e *Engine) record(elapsed time.Duration, failed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if failed {
		e.stats.FailedJobs++
		return
	}
	e.stats.TotalJobs++
	e.stats.TotalElapsed += elapsed
	e.stats.AverageLatency = e.stats.TotalElapsed / time.Duration(e.stats.TotalJobs)
}

// Stats returns a snapshot of the execution statistics.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
