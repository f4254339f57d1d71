package scene

import (
	"fmt"
	"regexp"
	"sort"
)

// DefaultDataFactor is used for every scene that has no entry in the table.
const DefaultDataFactor = 4

// ReducedDataFactor is used for the indoor scenes.
const ReducedDataFactor = 2

// Table maps a scene identifier to its data factor.
type Table map[string]int

// DefaultTable returns the indoor 360 scenes, which are trained at half the
// downsampling of the outdoor ones.
func DefaultTable() Table {
	return Table{
		"bonsai":  ReducedDataFactor,
		"counter": ReducedDataFactor,
		"kitchen": ReducedDataFactor,
		"room":    ReducedDataFactor,
	}
}

// Merge returns a copy of t with the entries of other layered on top.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Validate checks a complete table: the built-in scenes keep their factor
// and every other scene uses one of the two supported factors.
func (t Table) Validate() error {
	for name, want := range DefaultTable() {
		if got, ok := t[name]; !ok || got != want {
			return fmt.Errorf("data factor for scene %q is fixed at %d and cannot be redefined", name, want)
		}
	}
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if f := t[name]; f != ReducedDataFactor && f != DefaultDataFactor {
			return fmt.Errorf("data factor for scene %q must be %d or %d, got %d",
				name, ReducedDataFactor, DefaultDataFactor, f)
		}
	}
	return nil
}

// Resolved is a scene together with its resolved data factor.
type Resolved struct {
	Scene      string
	DataFactor int
}

// Resolver maps scene identifiers to data factors. It has no failure mode.
type Resolver struct {
	table    Table
	fallback int
}

// NewResolver creates a resolver over the given table. A nil table means
// DefaultTable.
func NewResolver(table Table) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{table: table, fallback: DefaultDataFactor}
}

// DataFactor returns the data factor for a scene.
func (r *Resolver) DataFactor(scene string) int {
	if f, ok := r.table[scene]; ok {
		return f
	}
	return r.fallback
}

// Resolve resolves every scene, preserving order.
func (r *Resolver) Resolve(scenes []string) []Resolved {
	out := make([]Resolved, 0, len(scenes))
	for _, s := range scenes {
		out = append(out, Resolved{Scene: s, DataFactor: r.DataFactor(s)})
	}
	return out
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateList checks a configured scene list before anything is run: it
// must be non-empty, every identifier must be a plain path segment, and no
// scene may appear twice.
func ValidateList(scenes []string) error {
	if len(scenes) == 0 {
		return fmt.Errorf("scene list is empty")
	}
	seen := make(map[string]struct{}, len(scenes))
	for i, s := range scenes {
		if !namePattern.MatchString(s) {
			return fmt.Errorf("scene %d: invalid identifier %q", i, s)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("scene %q listed more than once", s)
		}
		seen[s] = struct{}{}
	}
	return nil
}
