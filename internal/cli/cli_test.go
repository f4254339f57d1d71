package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/splatbench/internal/app"
	"github.com/vk/splatbench/internal/config"
	"github.com/vk/splatbench/internal/runner"
)

// noEnvFile points -env-file at a path that does not exist.
func noEnvFile(t *testing.T) string {
	t.Helper()
	return "-env-file=" + filepath.Join(t.TempDir(), "absent.env")
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		wantConfig *app.Config
		wantExit   bool
		wantErr    string
	}{
		{
			name: "defaults without config path",
			args: []string{},
			wantConfig: &app.Config{
				LogFormat: "text",
				LogLevel:  "info",
			},
		},
		{
			name: "positional path and flags",
			args: []string{"-log-level=DEBUG", "-dry-run", "-strict-report", "-healthcheck-port=9100", "bench.hcl"},
			wantConfig: &app.Config{
				ConfigPath:      "bench.hcl",
				LogFormat:       "text",
				LogLevel:        "debug",
				HealthcheckPort: 9100,
				DryRun:          true,
				StrictReport:    true,
			},
		},
		{
			name: "shorthand config and scene override",
			args: []string{"-c", "conf/", "-benchmark", "nightly", "-scenes", "garden, room,,", "-check-data", "-metrics-file", "out.prom"},
			wantConfig: &app.Config{
				ConfigPath:    "conf/",
				BenchmarkName: "nightly",
				Scenes:        []string{"garden", "room"},
				LogFormat:     "text",
				LogLevel:      "info",
				MetricsFile:   "out.prom",
				CheckData:     true,
			},
		},
		{
			name: "long flag wins over positional",
			args: []string{"-config", "a.hcl", "b.hcl"},
			wantConfig: &app.Config{
				ConfigPath: "a.hcl",
				LogFormat:  "text",
				LogLevel:   "info",
			},
		},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "unknown flag", args: []string{"-workers=3"}, wantErr: "flag provided but not defined"},
		{name: "invalid log format", args: []string{"-log-format=xml"}, wantErr: "invalid log format"},
		{name: "empty scene override", args: []string{"-scenes="}, wantErr: "must not be empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			args := append([]string{noEnvFile(t)}, tc.args...)
			cfg, shouldExit, err := Parse(args, &out)

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				assert.Equal(t, ExitConfigError, ExitCodeFor(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, shouldExit)
			if tc.wantExit {
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			if diff := cmp.Diff(tc.wantConfig, cfg); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_EnvDefaults(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := fmt.Sprintf("%s=from-file.hcl\n%s=json\n%s=AKIA\n%s=secret\n",
		EnvConfig, EnvLogFormat, EnvArchiveAccessKey, EnvArchiveSecretKey)
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvArchiveSecretKey, "exported")

	t.Run("env fills unset flags", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-env-file", envFile}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "from-file.hcl", cfg.ConfigPath)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "AKIA", cfg.ArchiveAccessKey)
		assert.Equal(t, "exported", cfg.ArchiveSecretKey, "process env takes precedence over the file")
	})

	t.Run("explicit flags win", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-env-file", envFile, "-log-level=error", "-log-format=text", "cli.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "cli.hcl", cfg.ConfigPath)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "error", cfg.LogLevel)
	})

	_, present := os.LookupEnv(EnvLogFormat)
	assert.False(t, present, "the .env file must not leak into the process environment")
}

func TestExitCodeFor(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "config", err: config.Errorf("bench.hcl", "no benchmark defined"), want: ExitConfigError},
		{name: "execution", err: fmt.Errorf("execution failed: %w", &runner.ExecutionError{Scene: "garden", ExitCode: 1}), want: ExitExecutionFailure},
		{name: "incomplete report", err: &app.IncompleteReportError{Missing: 1, Err: errors.New("missing")}, want: ExitIncompleteReport},
		{name: "exit error", err: &ExitError{Code: 7, Message: "x"}, want: 7},
		{name: "other", err: errors.New("boom"), want: ExitExecutionFailure},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeFor(tc.err))
		})
	}
}

func TestNewExitError(t *testing.T) {
	assert.Nil(t, NewExitError(nil))

	cause := config.Errorf("", "empty scene list")
	exitErr := NewExitError(fmt.Errorf("startup: %w", cause))
	require.NotNil(t, exitErr)
	assert.Equal(t, ExitConfigError, exitErr.Code)
	assert.Contains(t, exitErr.Message, "empty scene list")
	assert.ErrorIs(t, exitErr, cause)
}
