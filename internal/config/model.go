package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/vk/splatbench/internal/scene"
)

// Benchmark is the resolved configuration of one benchmark run.
type Benchmark struct {
	Name       string
	Scenes     []string
	DataRoot   string
	ResultRoot string

	// CheckpointStep is the step whose stats artifacts the reporter reads.
	// Nil means it is derived from the run's step budget.
	CheckpointStep *int

	// DataFactors is layered over scene.DefaultTable. It may add scenes but
	// not redefine the built-in ones.
	DataFactors scene.Table

	Trainer Trainer
	Run     Run
	Archive *Archive
}

// Trainer describes how to start the external training process.
type Trainer struct {
	// Command is the argv prefix; per-scene flags are appended to it.
	Command []string
}

// Run is the global block passed unchanged to every scene's invocation.
type Run struct {
	MaxSteps      int
	EvalSteps     int
	StepsScaler   float64
	Packed        bool
	DisableViewer bool
	// DeviceIDs is an ordered, exact set of accelerator ids. Empty means no
	// restriction.
	DeviceIDs []int
}

// Archive configures the optional upload of stats artifacts to an
// S3-compatible bucket. Credentials come from the environment.
type Archive struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	UseSSL    bool
	AccessKey string
	SecretKey string
}

// DefaultScenes is the mip-NeRF 360 scene list in benchmark order.
var DefaultScenes = []string{"garden", "bicycle", "stump", "bonsai", "counter", "kitchen", "room"}

// Default returns the built-in benchmark profile.
func Default() *Benchmark {
	return &Benchmark{
		Name:       "benchmark_4gpus",
		Scenes:     append([]string(nil), DefaultScenes...),
		DataRoot:   "data/360_v2",
		ResultRoot: "results/benchmark_4gpus",
		Trainer: Trainer{
			Command: []string{"python", "simple_trainer.py", "default"},
		},
		Run: Run{
			MaxSteps:      30000,
			EvalSteps:     -1,
			StepsScaler:   0.25,
			Packed:        true,
			DisableViewer: true,
			DeviceIDs:     []int{0, 1, 2, 3},
		},
	}
}

// stepTolerance absorbs binary floating point error in max_steps*steps_scaler,
// e.g. 3000*0.07 = 210.00000000000003.
const stepTolerance = 1e-9

// EffectiveSteps is the number of steps the trainer executes once the
// scaler is applied.
func (b *Benchmark) EffectiveSteps() int {
	x := float64(b.Run.MaxSteps) * b.Run.StepsScaler
	if r := math.Round(x); math.Abs(x-r) <= stepTolerance*math.Max(1, math.Abs(x)) {
		return int(r)
	}
	return int(math.Ceil(x))
}

// Checkpoint returns the step number embedded in the stats artifact names.
// Without an explicit value it is the last step the trainer runs.
func (b *Benchmark) Checkpoint() int {
	if b.CheckpointStep != nil {
		return *b.CheckpointStep
	}
	return b.EffectiveSteps() - 1
}

// Table returns the full scene → data factor table for this benchmark.
func (b *Benchmark) Table() scene.Table {
	return scene.DefaultTable().Merge(b.DataFactors)
}

// SceneDataDir is data_root/scene/.
func (b *Benchmark) SceneDataDir(name string) string {
	return withSlash(filepath.Join(b.DataRoot, name))
}

// SceneResultDir is result_root/scene/.
func (b *Benchmark) SceneResultDir(name string) string {
	return withSlash(filepath.Join(b.ResultRoot, name))
}

func withSlash(p string) string {
	if p == "" || p[len(p)-1] == filepath.Separator {
		return p
	}
	return p + string(filepath.Separator)
}

// Validate checks everything that must hold before the first invocation.
func (b *Benchmark) Validate() error {
	var errs []error
	if err := scene.ValidateList(b.Scenes); err != nil {
		errs = append(errs, err)
	}
	if b.DataRoot == "" {
		errs = append(errs, errors.New("data_root must be set"))
	}
	if b.ResultRoot == "" {
		errs = append(errs, errors.New("result_root must be set"))
	}
	if len(b.Trainer.Command) == 0 || b.Trainer.Command[0] == "" {
		errs = append(errs, errors.New("trainer command must not be empty"))
	}
	if b.Run.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("max_steps must be positive, got %d", b.Run.MaxSteps))
	}
	if b.Run.StepsScaler <= 0 {
		errs = append(errs, fmt.Errorf("steps_scaler must be positive, got %g", b.Run.StepsScaler))
	}
	seen := make(map[int]struct{}, len(b.Run.DeviceIDs))
	for _, id := range b.Run.DeviceIDs {
		if id < 0 {
			errs = append(errs, fmt.Errorf("device id %d is negative", id))
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("device id %d listed more than once", id))
		}
		seen[id] = struct{}{}
	}
	if err := b.Table().Validate(); err != nil {
		errs = append(errs, err)
	}
	if b.CheckpointStep != nil && *b.CheckpointStep < 0 {
		errs = append(errs, fmt.Errorf("checkpoint_step must not be negative, got %d", *b.CheckpointStep))
	}
	if b.Archive != nil {
		if b.Archive.Endpoint == "" || b.Archive.Bucket == "" {
			errs = append(errs, errors.New("archive requires endpoint and bucket"))
		}
	}
	if len(errs) > 0 {
		return &Error{Source: b.Name, Err: errors.Join(errs...)}
	}
	return nil
}
