package runner

import (
	"strconv"
	"strings"

	"github.com/vk/splatbench/internal/config"
	"github.com/vk/splatbench/internal/scene"
)

// DevicesEnv restricts which physical accelerators the trainer can see.
const DevicesEnv = "CUDA_VISIBLE_DEVICES"

// Invocation is everything needed to start the trainer for one scene.
type Invocation struct {
	Scene      string
	DataFactor int
	DataDir    string
	ResultDir  string

	Command string
	Args    []string
	// Env is added on top of the inherited environment.
	Env []string
}

// Build assembles the invocation for a resolved scene. Step counts and the
// scaler pass through unchanged; boolean flags are only emitted when set.
func Build(b *config.Benchmark, r scene.Resolved) Invocation {
	inv := Invocation{
		Scene:      r.Scene,
		DataFactor: r.DataFactor,
		DataDir:    b.SceneDataDir(r.Scene),
		ResultDir:  b.SceneResultDir(r.Scene),
		Command:    b.Trainer.Command[0],
	}

	args := append([]string(nil), b.Trainer.Command[1:]...)
	args = append(args,
		"--max_steps", strconv.Itoa(b.Run.MaxSteps),
		"--eval_steps", strconv.Itoa(b.Run.EvalSteps),
	)
	if b.Run.DisableViewer {
		args = append(args, "--disable_viewer")
	}
	args = append(args,
		"--data_factor", strconv.Itoa(r.DataFactor),
		"--steps_scaler", strconv.FormatFloat(b.Run.StepsScaler, 'g', -1, 64),
	)
	if b.Run.Packed {
		args = append(args, "--packed")
	}
	args = append(args,
		"--data_dir", inv.DataDir,
		"--result_dir", inv.ResultDir,
	)
	inv.Args = args

	if len(b.Run.DeviceIDs) > 0 {
		inv.Env = []string{DevicesEnv + "=" + joinInts(b.Run.DeviceIDs)}
	}
	return inv
}

// CommandLine renders the invocation the way an operator would type it.
func (i Invocation) CommandLine() string {
	parts := make([]string, 0, len(i.Env)+len(i.Args)+1)
	parts = append(parts, i.Env...)
	parts = append(parts, i.Command)
	parts = append(parts, i.Args...)
	return strings.Join(parts, " ")
}

func joinInts(ids []int) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.Itoa(id)
	}
	return strings.Join(s, ",")
}
