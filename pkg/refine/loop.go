// Package refine iterates candidate automation functions to an accepted
// result. Each iteration executes the current code in isolation, checks
// the outcome against an accept predicate, and on rejection asks a
// repairer for a corrected candidate before trying again.
package refine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/entrhq/replay/pkg/executor"
	"github.com/entrhq/replay/pkg/logging"
)

// DefaultMaxIterations bounds a loop when no limit is configured.
const DefaultMaxIterations = 3

// Runner executes one candidate. *executor.Executor satisfies it; tests
// substitute canned runners.
type Runner interface {
	Run(ctx context.Context, code string, params map[string]any, opts executor.Options) *executor.Result
}

// Options configures a refinement loop.
type Options struct {
	// MaxIterations caps the number of executions. Zero or negative
	// selects DefaultMaxIterations.
	MaxIterations int

	// OutputDir is the root the per-iteration bundle directories are
	// created under.
	OutputDir string

	// Timeout bounds each individual execution.
	Timeout time.Duration

	// Headless is the default browser mode for executions.
	Headless bool

	// Accept decides whether a result ends the loop. Nil accepts any
	// successful execution.
	Accept Predicate
}

// Attempt records one iteration of the loop.
type Attempt struct {
	// Iteration numbers attempts from 1.
	Iteration int

	// Code is the candidate source this attempt executed.
	Code string

	// Result is the execution outcome.
	Result *executor.Result

	// OutputDir is the iteration's own bundle directory.
	OutputDir string
}

// Outcome is the final state of a finished loop.
type Outcome struct {
	// Accepted reports whether any attempt satisfied the predicate.
	Accepted bool

	// Code is the last candidate executed. When Accepted it is the code
	// that produced the accepted result.
	Code string

	// Attempts holds every iteration in order.
	Attempts []Attempt
}

// Loop drives execute, check, repair rounds over a candidate.
type Loop struct {
	runner   Runner
	repairer Repairer
	logger   *logging.Logger
	opts     Options
}

// New creates a loop. The repairer may be nil, in which case rejected code
// is retried unchanged.
func New(runner Runner, repairer Repairer, opts Options) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Accept == nil {
		opts.Accept = Succeeded()
	}
	logger, _ := logging.NewLogger("refine")
	return &Loop{
		runner:   runner,
		repairer: repairer,
		logger:   logger,
		opts:     opts,
	}
}

// Run refines code until the accept predicate passes or the iteration
// budget is spent. Every iteration gets its own bundle directory and
// session namespace, so recordings never collide across attempts. The
// returned outcome always carries all attempts, accepted or not.
//
// A repairer failure does not end the loop; the previous candidate is
// retried. Context cancellation ends it immediately with the context
// error.
func (l *Loop) Run(ctx context.Context, code string, params map[string]any) (*Outcome, error) {
	outcome := &Outcome{Code: code}

	for iteration := 1; iteration <= l.opts.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		attemptDir := filepath.Join(l.opts.OutputDir, fmt.Sprintf("attempt_%03d", iteration))
		l.logger.Infof("iteration %d/%d (output %s)", iteration, l.opts.MaxIterations, attemptDir)

		result := l.runner.Run(ctx, code, params, executor.Options{
			SessionName: fmt.Sprintf("attempt-%03d", iteration),
			OutputDir:   attemptDir,
			Timeout:     l.opts.Timeout,
			Headless:    l.opts.Headless,
		})

		outcome.Code = code
		outcome.Attempts = append(outcome.Attempts, Attempt{
			Iteration: iteration,
			Code:      code,
			Result:    result,
			OutputDir: attemptDir,
		})

		if l.opts.Accept(result) {
			l.logger.Infof("iteration %d accepted", iteration)
			outcome.Accepted = true
			return outcome, nil
		}

		if iteration == l.opts.MaxIterations {
			break
		}

		code = l.repair(ctx, code, result)
	}

	l.logger.Warnf("no attempt accepted after %d iterations", l.opts.MaxIterations)
	return outcome, nil
}

// repair asks the repairer for a corrected candidate, keeping the current
// code when no repairer is configured or the repair fails.
func (l *Loop) repair(ctx context.Context, code string, result *executor.Result) string {
	if l.repairer == nil {
		return code
	}

	repaired, err := l.repairer.Repair(ctx, code, result)
	if err != nil {
		l.logger.Errorf("repair failed, retrying previous candidate: %v", err)
		return code
	}
	if repaired == "" {
		l.logger.Warnf("repairer returned no code, retrying previous candidate")
		return code
	}
	return repaired
}
