// Package config defines the format-agnostic benchmark configuration model
// and the Loader interface implemented by the HCL and YAML packages.
//
// A Benchmark is the single source of truth for the scene resolver, the run
// executor and the stats reporter. Defaults reproduce the 4-GPU mip-NeRF 360
// profile so a loader only has to overlay what a file actually sets.
package config
