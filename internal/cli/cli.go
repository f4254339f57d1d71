package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/splatbench/internal/app"
	"github.com/vk/splatbench/internal/config"
	"github.com/vk/splatbench/internal/runner"
)

// Process exit codes.
const (
	ExitOK               = 0
	ExitExecutionFailure = 1
	ExitConfigError      = 2
	ExitIncompleteReport = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError classifies err into the exit code the process should use.
// A nil err yields nil.
func NewExitError(err error) *ExitError {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: ExitCodeFor(err), Message: err.Error(), Err: err}
}

// ExitCodeFor maps an application error to a process exit code.
func ExitCodeFor(err error) int {
	var (
		exitErr    *ExitError
		cfgErr     *config.Error
		execErr    *runner.ExecutionError
		incomplete *app.IncompleteReportError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.As(err, &execErr):
		return ExitExecutionFailure
	case errors.As(err, &incomplete):
		return ExitIncompleteReport
	default:
		return ExitExecutionFailure
	}
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Environment variables (and the .env file) only fill in flags that were not
// given on the command line.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("splatbench", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
splatbench - Runs a scene benchmark through an external multi-GPU trainer
and prints the stats each run produced.

Usage:
  splatbench [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a .hcl/.yaml file or a directory of them. Without one the
    built-in 7-scene, 4-GPU profile is used.

Environment:
  SPLATBENCH_CONFIG, SPLATBENCH_LOG_LEVEL, SPLATBENCH_LOG_FORMAT
    Defaults for -config, -log-level and -log-format.
  SPLATBENCH_ARCHIVE_ACCESS_KEY, SPLATBENCH_ARCHIVE_SECRET_KEY
    Credentials for the optional archive bucket.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the benchmark config file or directory.")
	cFlag := flagSet.String("c", "", "Path to the benchmark config file or directory (shorthand).")
	benchmarkFlag := flagSet.String("benchmark", "", "Name of the benchmark block to run when the config defines several.")
	scenesFlag := flagSet.String("scenes", "", "Comma-separated scene list overriding the configured one.")
	envFileFlag := flagSet.String("env-file", ".env", "Path to a .env file with environment defaults. Ignored if absent.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	metricsFileFlag := flagSet.String("metrics-file", "", "Write Prometheus metrics in text format to this file on exit.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print each trainer command line instead of running it.")
	checkDataFlag := flagSet.Bool("check-data", false, "Fail before the first run if a scene's data directory is missing.")
	strictFlag := flagSet.Bool("strict-report", false, "Exit with status 3 if any stats artifact is missing.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitConfigError, Message: err.Error(), Err: err}
	}
	slog.Debug("Arguments parsed successfully.")

	env, err := LoadEnv(*envFileFlag)
	if err != nil {
		return nil, false, &ExitError{Code: ExitConfigError, Message: err.Error(), Err: err}
	}

	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	path := ""
	switch {
	case *configFlag != "":
		path = *configFlag
	case *cFlag != "":
		path = *cFlag
	case flagSet.NArg() > 0:
		path = flagSet.Arg(0)
	default:
		path, _ = env.Lookup(EnvConfig)
	}
	slog.Debug("Config path determined.", "path", path)

	logFormat := *logFormatFlag
	if v, ok := env.Lookup(EnvLogFormat); ok && !set["log-format"] {
		logFormat = v
	}
	logLevel := *logLevelFlag
	if v, ok := env.Lookup(EnvLogLevel); ok && !set["log-level"] {
		logLevel = v
	}

	var scenes []string
	if set["scenes"] {
		scenes = splitList(*scenesFlag)
	}

	accessKey, _ := env.Lookup(EnvArchiveAccessKey)
	secretKey, _ := env.Lookup(EnvArchiveSecretKey)

	cfg, err := app.NewConfig(app.Config{
		ConfigPath:       path,
		BenchmarkName:    *benchmarkFlag,
		Scenes:           scenes,
		LogFormat:        strings.ToLower(logFormat),
		LogLevel:         strings.ToLower(logLevel),
		HealthcheckPort:  *healthPortFlag,
		MetricsFile:      *metricsFileFlag,
		DryRun:           *dryRunFlag,
		CheckData:        *checkDataFlag,
		StrictReport:     *strictFlag,
		ArchiveAccessKey: accessKey,
		ArchiveSecretKey: secretKey,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitConfigError, Message: err.Error(), Err: err}
	}

	slog.Debug("CLI parser finished successfully.", "config_path", cfg.ConfigPath, "dry_run", cfg.DryRun)
	return cfg, false, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
