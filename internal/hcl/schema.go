package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block of a benchmark file. Unknown
// content is left in Remain so other tools can share the file.
type fileRoot struct {
	Benchmarks []*benchmarkBlock `hcl:"benchmark,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

// benchmarkBlock is a `benchmark "<name>" { ... }` block. Collection
// attributes are kept as expressions so that an omitted attribute can be
// told apart from an explicitly empty one.
type benchmarkBlock struct {
	Name           string         `hcl:"name,label"`
	Scenes         hcl.Expression `hcl:"scenes,optional"`
	DataRoot       *string        `hcl:"data_root,optional"`
	ResultRoot     *string        `hcl:"result_root,optional"`
	CheckpointStep *int           `hcl:"checkpoint_step,optional"`
	DataFactors    hcl.Expression `hcl:"data_factors,optional"`
	Trainer        *trainerBlock  `hcl:"trainer,block"`
	Run            *runBlock      `hcl:"run,block"`
	Archive        *archiveBlock  `hcl:"archive,block"`
}

type trainerBlock struct {
	Command []string `hcl:"command"`
}

type runBlock struct {
	MaxSteps      *int           `hcl:"max_steps,optional"`
	EvalSteps     *int           `hcl:"eval_steps,optional"`
	StepsScaler   *float64       `hcl:"steps_scaler,optional"`
	Packed        *bool          `hcl:"packed,optional"`
	DisableViewer *bool          `hcl:"disable_viewer,optional"`
	DeviceIDs     hcl.Expression `hcl:"device_ids,optional"`
}

type archiveBlock struct {
	Endpoint string  `hcl:"endpoint"`
	Bucket   string  `hcl:"bucket"`
	Prefix   *string `hcl:"prefix,optional"`
	UseSSL   *bool   `hcl:"use_ssl,optional"`
}
