package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/splatbench/internal/config"
	"github.com/vk/splatbench/internal/ctxlog"
	"github.com/vk/splatbench/internal/metrics"
	"github.com/vk/splatbench/internal/scene"
)

// ExecutionError is returned when a scene's trainer fails. ExitCode is -1
// when the process did not exit on its own; Err then says why (a start
// failure, a *SignalError, or cancellation).
type ExecutionError struct {
	Scene    string
	ExitCode int
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scene %q: %v", e.Scene, e.Err)
	}
	return fmt.Sprintf("scene %q: trainer exited with status %d", e.Scene, e.ExitCode)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Result describes one completed scene run.
type Result struct {
	Invocation Invocation
	Duration   time.Duration
}

// Executor runs every scene of a benchmark in order.
type Executor struct {
	bench    *config.Benchmark
	resolver *scene.Resolver
	launcher Launcher
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithMetrics records every run in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an executor for a validated benchmark.
func New(b *config.Benchmark, resolver *scene.Resolver, launcher Launcher, opts ...Option) *Executor {
	e := &Executor{
		bench:    b,
		resolver: resolver,
		launcher: launcher,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run invokes the trainer once per scene and waits for each to finish
// before starting the next. The first failure aborts the batch; the
// returned results cover the scenes that completed before it.
func (e *Executor) Run(ctx context.Context) ([]Result, error) {
	logger := ctxlog.FromContext(ctx)

	if cp, steps := e.bench.Checkpoint(), e.bench.EffectiveSteps(); cp >= steps {
		logger.Warn("Checkpoint step is beyond the trainer's step budget; stats artifacts will likely be missing.",
			"checkpoint_step", cp, "effective_steps", steps)
	}

	resolved := e.resolver.Resolve(e.bench.Scenes)
	e.metrics.SetScenes(len(resolved))
	results := make([]Result, 0, len(resolved))

	for i, r := range resolved {
		if err := ctx.Err(); err != nil {
			e.skipRemaining(resolved[i:])
			return results, &ExecutionError{Scene: r.Scene, ExitCode: -1, Err: err}
		}

		inv := Build(e.bench, r)
		sceneCtx := ctxlog.WithAttrs(ctx, "scene", r.Scene)
		sceneLogger := ctxlog.FromContext(sceneCtx)
		sceneLogger.Info("▶️ Running scene.", "index", i+1, "of", len(resolved), "data_factor", r.DataFactor)
		sceneLogger.Debug("Trainer command.", "command", inv.CommandLine())

		start := e.now()
		code, err := e.launcher.Launch(sceneCtx, inv)
		elapsed := e.now().Sub(start)

		if err != nil || code != 0 {
			e.metrics.ObserveRun(r.Scene, metrics.StatusFailed, elapsed)
			e.skipRemaining(resolved[i+1:])
			execErr := &ExecutionError{Scene: r.Scene, ExitCode: code, Err: err}
			sceneLogger.Error("Scene failed, aborting batch.", "exit_code", code, "error", execErr)
			return results, execErr
		}

		e.metrics.ObserveRun(r.Scene, metrics.StatusSucceeded, elapsed)
		sceneLogger.Info("✅ Scene finished.", "duration", elapsed.Round(time.Millisecond))
		results = append(results, Result{Invocation: inv, Duration: elapsed})
	}
	return results, nil
}

func (e *Executor) skipRemaining(rest []scene.Resolved) {
	for _, r := range rest {
		e.metrics.ObserveRun(r.Scene, metrics.StatusSkipped, 0)
	}
}
