package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test. It stands in for the trainer when
// re-executed by helperInvocation.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("SPLATBENCH_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) > 1 && args[1] == "kill" {
		p, _ := os.FindProcess(os.Getpid())
		_ = p.Kill()
		time.Sleep(time.Minute)
	}
	code := 0
	if len(args) > 1 {
		code, _ = strconv.Atoi(args[1])
	}
	fmt.Fprintf(os.Stdout, "devices=%s\n", os.Getenv(DevicesEnv))
	os.Exit(code)
}

func helperInvocation(exitCode int, env ...string) Invocation {
	return Invocation{
		Scene:   "bonsai",
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--", strconv.Itoa(exitCode)},
		Env:     append([]string{"SPLATBENCH_WANT_HELPER_PROCESS=1"}, env...),
	}
}

func TestProcessLauncher_Success(t *testing.T) {
	var stdout bytes.Buffer
	l := &ProcessLauncher{
		Stdout:  &stdout,
		Stderr:  &bytes.Buffer{},
		Environ: func() []string { return []string{DevicesEnv + "=7"} },
	}

	code, err := l.Launch(context.Background(), helperInvocation(0, DevicesEnv+"=0,1,2,3"))
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "devices=0,1,2,3")
}

func TestProcessLauncher_ExitStatus(t *testing.T) {
	l := &ProcessLauncher{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	code, err := l.Launch(context.Background(), helperInvocation(3))
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestProcessLauncher_KilledBySignal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("processes are not terminated by signals on windows")
	}
	l := &ProcessLauncher{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	inv := helperInvocation(0)
	inv.Args[len(inv.Args)-1] = "kill"

	code, err := l.Launch(context.Background(), inv)
	assert.Equal(t, -1, code)

	var sigErr *SignalError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, syscall.SIGKILL, sigErr.Signal)
	assert.Equal(t, "trainer terminated by signal: killed", err.Error())
}

func TestProcessLauncher_MissingBinary(t *testing.T) {
	l := NewProcessLauncher()

	code, err := l.Launch(context.Background(), Invocation{Command: "splatbench-no-such-trainer"})
	require.Error(t, err)
	assert.Equal(t, -1, code)
}

func TestDryRunLauncher(t *testing.T) {
	var out bytes.Buffer
	l := &DryRunLauncher{Out: &out}

	code, err := l.Launch(context.Background(), Invocation{
		Command: "python",
		Args:    []string{"simple_trainer.py"},
		Env:     []string{"CUDA_VISIBLE_DEVICES=0"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "[dry-run] CUDA_VISIBLE_DEVICES=0 python simple_trainer.py\n", out.String())
}
