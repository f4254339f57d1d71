package config

import (
	"context"
	"fmt"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the benchmark called name from path and overlays it on
	// Default. An empty name selects the only benchmark defined.
	Load(ctx context.Context, path, name string) (*Benchmark, error)
}

// Error reports a configuration problem. It is always fatal and is raised
// before any scene is run.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error for source.
func Errorf(source, format string, args ...any) *Error {
	return &Error{Source: source, Err: fmt.Errorf(format, args...)}
}

// Select picks the benchmark called name out of those a loader found.
func Select(source string, found []*Benchmark, name string) (*Benchmark, error) {
	if len(found) == 0 {
		return nil, Errorf(source, "no benchmark defined")
	}
	if name == "" {
		if len(found) > 1 {
			names := make([]string, 0, len(found))
			for _, b := range found {
				names = append(names, b.Name)
			}
			return nil, Errorf(source, "multiple benchmarks defined %v, select one by name", names)
		}
		return found[0], nil
	}
	for _, b := range found {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, Errorf(source, "benchmark %q not found", name)
}
