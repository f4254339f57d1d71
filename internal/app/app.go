package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/vk/splatbench/internal/archive"
	"github.com/vk/splatbench/internal/config"
	"github.com/vk/splatbench/internal/ctxlog"
	"github.com/vk/splatbench/internal/fsutil"
	"github.com/vk/splatbench/internal/hcl"
	"github.com/vk/splatbench/internal/metrics"
	"github.com/vk/splatbench/internal/runner"
	"github.com/vk/splatbench/internal/yamlconf"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "splatbench"

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	bench      *config.Benchmark
	metrics    *metrics.Metrics
	launcher   runner.Launcher
	archiver   *archive.Archiver
	httpServer *http.Server
}

// Option customises an App, mostly for tests.
type Option func(*App)

// WithLauncher replaces the process launcher.
func WithLauncher(l runner.Launcher) Option {
	return func(a *App) { a.launcher = l }
}

// WithArchiver replaces the archive client built from the configuration.
func WithArchiver(ar *archive.Archiver) Option {
	return func(a *App) { a.archiver = ar }
}

// NewApp loads and validates the benchmark configuration. The report and the
// trainer's output go to outW; logs go to logW.
func NewApp(outW, logW io.Writer, appConfig *Config, opts ...Option) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	bench, err := loadBenchmark(ctx, appConfig)
	if err != nil {
		return nil, err
	}
	if len(appConfig.Scenes) > 0 {
		bench.Scenes = appConfig.Scenes
	}
	if bench.Archive != nil {
		bench.Archive.AccessKey = appConfig.ArchiveAccessKey
		bench.Archive.SecretKey = appConfig.ArchiveSecretKey
	}
	if err := bench.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Benchmark configuration validated.",
		"benchmark", bench.Name, "scenes", bench.Scenes, "checkpoint_step", bench.Checkpoint())

	a := &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		bench:   bench,
		metrics: metrics.New(MetricsNamespace, bench.Name),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.launcher == nil {
		if appConfig.DryRun {
			a.launcher = &runner.DryRunLauncher{Out: outW}
		} else {
			a.launcher = &runner.ProcessLauncher{Stdout: outW, Stderr: logW}
		}
	}
	if a.archiver == nil && bench.Archive != nil && !appConfig.DryRun {
		a.archiver, err = archive.NewMinIO(bench.Archive, a.metrics)
		if err != nil {
			return nil, &config.Error{Source: bench.Name, Err: err}
		}
	}
	return a, nil
}

// Benchmark returns the resolved benchmark configuration.
func (a *App) Benchmark() *config.Benchmark {
	return a.bench
}

// Metrics returns the app's collectors.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// FlushMetrics writes the metrics textfile if one was requested.
func (a *App) FlushMetrics() error {
	if a.config.MetricsFile == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.config.MetricsFile); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	a.logger.Debug("Metrics textfile written.", "path", a.config.MetricsFile)
	return nil
}

// loadBenchmark picks a loader from the configured path. Without a path
// the built-in profile is used.
func loadBenchmark(ctx context.Context, appConfig *Config) (*config.Benchmark, error) {
	path := appConfig.ConfigPath
	if path == "" {
		ctxlog.FromContext(ctx).Debug("No configuration file given, using built-in profile.")
		return config.Default(), nil
	}

	var loader config.Loader = hcl.NewLoader()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		loader = yamlconf.NewLoader()
	default:
		if fsutil.DirExists(path) {
			hclFiles, _ := fsutil.FindFilesByExtension(path, ".hcl")
			if len(hclFiles) == 0 {
				loader = yamlconf.NewLoader()
			}
		}
	}
	return loader.Load(ctx, path, appConfig.BenchmarkName)
}
