// Package executor runs generated automation functions inside an
// interpreter sandbox. Candidates never touch the browser stack directly;
// GetInstance and FinalizeRecording are bound per run so every session a
// candidate opens lands in the run's output directory and gets finalized
// even when the candidate crashes or times out.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"

	"github.com/entrhq/replay/pkg/browser"
	"github.com/entrhq/replay/pkg/harness"
	"github.com/entrhq/replay/pkg/logging"
	"github.com/entrhq/replay/pkg/recording"
)

// entryFunc is the required candidate entry point signature.
type entryFunc = func(map[string]any) (any, error)

// Options configures one execution.
type Options struct {
	// SessionName is the default session name for instances the candidate
	// requests without naming one. Empty falls back to "session".
	SessionName string

	// OutputDir is where recording bundles for this run are created.
	// Candidate code cannot override it.
	OutputDir string

	// Timeout bounds the candidate's run time. Zero means no deadline
	// beyond the caller's context.
	Timeout time.Duration

	// Headless is the default browser mode when the candidate does not
	// choose one.
	Headless bool
}

// Executor runs candidate code against a shared provider and registry.
type Executor struct {
	provider *browser.Provider
	registry *recording.Registry
	logger   *logging.Logger
}

// New creates an executor on the given provider and registry.
func New(provider *browser.Provider, registry *recording.Registry) *Executor {
	logger, _ := logging.NewLogger("executor")
	return &Executor{
		provider: provider,
		registry: registry,
		logger:   logger,
	}
}

// runState tracks the sessions one execution opens so cleanup can finalize
// them on every exit path.
type runState struct {
	exec *Executor
	opts Options

	mu       sync.Mutex
	sessions []string
}

// Run evaluates the candidate and invokes main.Run with params. The result
// always reports duration, and carries the finalized recording info when
// the candidate opened a session. Load failures (bad imports, evaluation
// errors, missing entry point) are reported without launching anything.
func (e *Executor) Run(ctx context.Context, code string, params map[string]any, opts Options) *Result {
	started := time.Now()
	res := &Result{}
	defer func() {
		res.Duration = time.Since(started)
	}()

	state := &runState{exec: e, opts: opts}
	defer state.cleanup(res)

	entry, err := e.load(code, state)
	if err != nil {
		e.logger.Errorf("candidate load failed: %v", err)
		res.Err = &Error{Kind: ErrorKindLoad, Err: err}
		return res
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	e.logger.Infof("running candidate (session default %q, output %s)", opts.SessionName, opts.OutputDir)

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("candidate panicked: %v", r)}
			}
		}()
		value, runErr := entry(params)
		done <- outcome{value: value, err: runErr}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			e.logger.Warnf("candidate failed: %v", out.err)
			res.Err = &Error{Kind: ErrorKindRuntime, Err: out.err}
			return res
		}
		res.Success = true
		res.Value = out.value
		return res
	case <-ctx.Done():
		kind := ErrorKindRuntime
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = ErrorKindTimeout
		}
		e.logger.Warnf("candidate cut off: %v", ctx.Err())
		res.Err = &Error{Kind: kind, Err: ctx.Err()}
		return res
	}
}

// load validates, evaluates, and resolves the candidate entry point.
func (e *Executor) load(code string, state *runState) (entryFunc, error) {
	if err := validateImports(code); err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(sandboxSymbols()); err != nil {
		return nil, fmt.Errorf("failed to load sandbox symbols: %w", err)
	}
	if err := i.Use(harnessSymbols(state.getInstance, state.finalizeRecording)); err != nil {
		return nil, fmt.Errorf("failed to bind harness: %w", err)
	}

	if _, err := i.Eval(wrapCode(code)); err != nil {
		return nil, fmt.Errorf("code evaluation failed: %w", err)
	}

	v, err := i.Eval("main.Run")
	if err != nil {
		return nil, fmt.Errorf("entry point main.Run not found: %w", err)
	}
	entry, ok := v.Interface().(entryFunc)
	if !ok {
		return nil, fmt.Errorf("main.Run has wrong signature, want func(map[string]any) (any, error)")
	}
	return entry, nil
}

// getInstance is the harness binding handed to candidate code. It forces
// the run's output directory and default settings before delegating to the
// provider.
func (s *runState) getInstance(opts harness.Options) (*harness.Instance, error) {
	name := opts.SessionName
	if opts.Recording && name == "" {
		name = s.opts.SessionName
		if name == "" {
			name = "session"
		}
	}

	headless := s.opts.Headless
	if opts.Headless != nil {
		headless = *opts.Headless
	}

	instance, err := s.exec.provider.GetInstance(browser.InstanceOptions{
		Recording:   opts.Recording,
		SessionName: name,
		OutputDir:   s.opts.OutputDir,
		Headless:    headless,
		Viewport:    opts.Viewport,
		Timeout:     opts.Timeout,
	})
	if err != nil {
		return nil, err
	}

	if instance.SessionName != "" {
		s.mu.Lock()
		s.sessions = append(s.sessions, instance.SessionName)
		s.mu.Unlock()
	}
	return instance, nil
}

// finalizeRecording is the harness binding for explicit finalization from
// candidate code.
func (s *runState) finalizeRecording(name string) (*harness.Info, error) {
	session, err := s.exec.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	session.RequestStop()
	return session.Finalize()
}

// cleanup finalizes every session the run opened and releases all browser
// instances. It runs after the candidate result is decided, so the
// recording lands in the result on success, error, and timeout paths
// alike. Finalize is idempotent, sessions the candidate already finalized
// just return their cached info.
func (s *runState) cleanup(res *Result) {
	s.mu.Lock()
	sessions := append([]string(nil), s.sessions...)
	s.mu.Unlock()

	for _, name := range sessions {
		session, err := s.exec.registry.Lookup(name)
		if err != nil {
			continue
		}
		session.RequestStop()
		info, err := session.Finalize()
		if err != nil {
			s.exec.logger.Errorf("failed to finalize session %q: %v", name, err)
			continue
		}
		if res.Recording == nil {
			res.Recording = info
		}
		s.exec.registry.Remove(name)
	}

	s.exec.provider.ReleaseAll()
}
