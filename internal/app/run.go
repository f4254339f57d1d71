package app

import (
	"context"
	"fmt"

	"github.com/vk/splatbench/internal/config"
	"github.com/vk/splatbench/internal/ctxlog"
	"github.com/vk/splatbench/internal/fsutil"
	"github.com/vk/splatbench/internal/runner"
	"github.com/vk/splatbench/internal/scene"
	"github.com/vk/splatbench/internal/stats"
)

// IncompleteReportError is returned in strict mode when stats artifacts
// were missing at report time.
type IncompleteReportError struct {
	Missing int
	Err     error
}

func (e *IncompleteReportError) Error() string {
	return fmt.Sprintf("%d stats artifact(s) missing: %v", e.Missing, e.Err)
}

func (e *IncompleteReportError) Unwrap() error { return e.Err }

// Run executes every scene and then reports their stats. Execution stops at
// the first failed scene; reporting is best-effort across scenes.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
		defer a.closeHealthcheckServer(ctx)
	}

	if err := a.preflight(ctx); err != nil {
		return err
	}

	resolver := scene.NewResolver(a.bench.Table())
	exec := runner.New(a.bench, resolver, a.launcher, runner.WithMetrics(a.metrics))

	a.logger.Info("🚀 Starting benchmark.",
		"benchmark", a.bench.Name,
		"scenes", len(a.bench.Scenes),
		"devices", a.bench.Run.DeviceIDs,
		"checkpoint_step", a.bench.Checkpoint(),
		"dry_run", a.config.DryRun,
	)
	if _, err := exec.Run(ctx); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	if a.config.DryRun {
		a.logger.Info("Dry run complete, stats collection skipped.")
		return nil
	}

	reporter := stats.NewReporter(a.bench.ResultRoot, a.bench.Checkpoint(), a.outW, stats.WithMetrics(a.metrics))
	report, err := reporter.Collect(ctx, a.bench.Scenes)
	if err != nil {
		return err
	}

	if a.archiver != nil {
		if _, err := a.archiver.Upload(ctx, report.Artifacts()); err != nil {
			a.logger.Error("Archive upload incomplete.", "error", err)
		}
	}

	if err := report.Err(); err != nil && a.config.StrictReport {
		return &IncompleteReportError{Missing: len(report.Missing()), Err: err}
	}

	a.logger.Info("🏁 Benchmark finished.", "missing_artifacts", len(report.Missing()))
	return nil
}

// preflight rejects configurations that would fail part way through.
func (a *App) preflight(ctx context.Context) error {
	if !a.config.CheckData || a.config.DryRun {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	for _, s := range a.bench.Scenes {
		dir := a.bench.SceneDataDir(s)
		if !fsutil.DirExists(dir) {
			return config.Errorf(a.bench.Name, "unknown scene %q: data directory %s not found", s, dir)
		}
	}
	logger.Debug("Preflight data check passed.", "scenes", len(a.bench.Scenes))
	return nil
}
