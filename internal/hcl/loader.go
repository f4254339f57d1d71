package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/splatbench/internal/config"
	"github.com/vk/splatbench/internal/ctxlog"
	"github.com/vk/splatbench/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses path (a file or a directory of .hcl files) and returns the
// benchmark called name.
func (l *Loader) Load(ctx context.Context, path, name string) (*config.Benchmark, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path, "benchmark", name)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, config.Errorf(path, "%w", err)
	}
	if len(files) == 0 {
		return nil, config.Errorf(path, "no .hcl files found")
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	evalCtx := newEvalContext()
	seen := make(map[string]string)
	var found []*config.Benchmark

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, config.Errorf(file, "failed to parse: %w", diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, config.Errorf(file, "failed to decode: %w", diags)
		}

		for _, block := range root.Benchmarks {
			if prev, dup := seen[block.Name]; dup {
				return nil, config.Errorf(file, "benchmark %q already defined in %s", block.Name, prev)
			}
			seen[block.Name] = file

			b, err := translate(block, evalCtx)
			if err != nil {
				return nil, config.Errorf(file, "benchmark %q: %w", block.Name, err)
			}
			found = append(found, b)
		}
	}

	b, err := config.Select(path, found, name)
	if err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "benchmark", b.Name, "scenes", len(b.Scenes))
	return b, nil
}

// translate overlays a decoded block on the default profile.
func translate(block *benchmarkBlock, evalCtx *hcl.EvalContext) (*config.Benchmark, error) {
	b := config.Default()
	b.Name = block.Name

	if _, err := decodeOptional(block.Scenes, evalCtx, &b.Scenes); err != nil {
		return nil, fmt.Errorf("scenes: %w", err)
	}
	if block.DataRoot != nil {
		b.DataRoot = *block.DataRoot
	}
	if block.ResultRoot != nil {
		b.ResultRoot = *block.ResultRoot
	}
	b.CheckpointStep = block.CheckpointStep

	var factors map[string]int
	ok, err := decodeOptional(block.DataFactors, evalCtx, &factors)
	if err != nil {
		return nil, fmt.Errorf("data_factors: %w", err)
	}
	if ok {
		b.DataFactors = factors
	}

	if block.Trainer != nil {
		b.Trainer.Command = block.Trainer.Command
	}

	if r := block.Run; r != nil {
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
		if _, err := decodeOptional(r.DeviceIDs, evalCtx, &b.Run.DeviceIDs); err != nil {
			return nil, fmt.Errorf("device_ids: %w", err)
		}
	}

	if a := block.Archive; a != nil {
		b.Archive = &config.Archive{
			Endpoint: a.Endpoint,
			Bucket:   a.Bucket,
			Prefix:   b.Name,
		}
		if a.Prefix != nil {
			b.Archive.Prefix = *a.Prefix
		}
		if a.UseSSL != nil {
			b.Archive.UseSSL = *a.UseSSL
		}
	}
	return b, nil
}
