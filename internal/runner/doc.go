// Package runner executes the external trainer once per scene, strictly in
// the configured order, and stops the batch at the first scene whose
// process does not exit cleanly.
package runner
