// Package hcl provides the HCL implementation of config.Loader. It parses
// `benchmark` blocks, evaluates them against an `env` variable holding the
// process environment, and overlays the result on config.Default.
package hcl
