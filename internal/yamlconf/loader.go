// Package yamlconf is the YAML implementation of config.Loader. A file holds
// either a single benchmark mapping or a `benchmarks:` list of them; every
// omitted key keeps its config.Default value.
package yamlconf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/vk/splatbench/internal/config"
	"github.com/vk/splatbench/internal/ctxlog"
	"github.com/vk/splatbench/internal/fsutil"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Benchmark  `yaml:",inline"`
	Benchmarks []Benchmark `yaml:"benchmarks"`
}

// Benchmark mirrors config.Benchmark with optional fields.
type Benchmark struct {
	Name           string         `yaml:"name"`
	Scenes         *[]string      `yaml:"scenes"`
	DataRoot       *string        `yaml:"data_root"`
	ResultRoot     *string        `yaml:"result_root"`
	CheckpointStep *int           `yaml:"checkpoint_step"`
	DataFactors    map[string]int `yaml:"data_factors"`
	Trainer        *Trainer       `yaml:"trainer"`
	Run            *Run           `yaml:"run"`
	Archive        *Archive       `yaml:"archive"`
}

type Trainer struct {
	Command []string `yaml:"command"`
}

type Run struct {
	MaxSteps      *int     `yaml:"max_steps"`
	EvalSteps     *int     `yaml:"eval_steps"`
	StepsScaler   *float64 `yaml:"steps_scaler"`
	Packed        *bool    `yaml:"packed"`
	DisableViewer *bool    `yaml:"disable_viewer"`
	DeviceIDs     *[]int   `yaml:"device_ids"`
}

type Archive struct {
	Endpoint string  `yaml:"endpoint"`
	Bucket   string  `yaml:"bucket"`
	Prefix   *string `yaml:"prefix"`
	UseSSL   bool    `yaml:"use_ssl"`
}

// Loader loads benchmarks from .yaml/.yml files.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads path (a file or directory) and returns the benchmark called name.
func (l *Loader) Load(ctx context.Context, path, name string) (*config.Benchmark, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, ".yaml", ".yml")
	if err != nil {
		return nil, config.Errorf(path, "%w", err)
	}
	if len(files) == 0 {
		return nil, config.Errorf(path, "no .yaml files found")
	}

	var found []*config.Benchmark
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, config.Errorf(file, "%w", err)
		}
		benchmarks, err := Parse(data)
		if err != nil {
			return nil, config.Errorf(file, "%w", err)
		}
		found = append(found, benchmarks...)
	}
	logger.Debug("YAML loading complete.", "files", len(files), "benchmarks", len(found))

	return config.Select(path, found, name)
}

// Parse decodes every document in data into benchmarks.
func Parse(data []byte) ([]*config.Benchmark, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var out []*config.Benchmark
	for {
		var fc fileConfig
		err := dec.Decode(&fc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}

		if fc.Benchmark.isSet() {
			out = append(out, fc.Benchmark.toModel())
		}
		for i := range fc.Benchmarks {
			if fc.Benchmarks[i].Name == "" {
				return nil, fmt.Errorf("benchmarks[%d]: name is required", i)
			}
			out = append(out, fc.Benchmarks[i].toModel())
		}
	}
	return out, nil
}

// isSet reports whether any benchmark key was given at the top level of a
// document.
func (y Benchmark) isSet() bool {
	return !reflect.ValueOf(y).IsZero()
}

func (y Benchmark) toModel() *config.Benchmark {
	b := config.Default()
	if y.Name != "" {
		b.Name = y.Name
	}
	if y.Scenes != nil {
		b.Scenes = *y.Scenes
	}
	if y.DataRoot != nil {
		b.DataRoot = *y.DataRoot
	}
	if y.ResultRoot != nil {
		b.ResultRoot = *y.ResultRoot
	}
	b.CheckpointStep = y.CheckpointStep
	if y.DataFactors != nil {
		b.DataFactors = y.DataFactors
	}
	if y.Trainer != nil {
		b.Trainer.Command = y.Trainer.Command
	}
	if r := y.Run; r != nil {
		if r.MaxSteps != nil {
			b.Run.MaxSteps = *r.MaxSteps
		}
		if r.EvalSteps != nil {
			b.Run.EvalSteps = *r.EvalSteps
		}
		if r.StepsScaler != nil {
			b.Run.StepsScaler = *r.StepsScaler
		}
		if r.Packed != nil {
			b.Run.Packed = *r.Packed
		}
		if r.DisableViewer != nil {
			b.Run.DisableViewer = *r.DisableViewer
		}
		if r.DeviceIDs != nil {
			b.Run.DeviceIDs = *r.DeviceIDs
		}
	}
	if a := y.Archive; a != nil {
		b.Archive = &config.Archive{
			Endpoint: a.Endpoint,
			Bucket:   a.Bucket,
			Prefix:   b.Name,
			UseSSL:   a.UseSSL,
		}
		if a.Prefix != nil {
			b.Archive.Prefix = *a.Prefix
		}
	}
	return b
}
