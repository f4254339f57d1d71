// Package scene resolves per-scene tuning parameters. The only parameter
// today is the data factor handed to the trainer, looked up in a named
// table so new scenes can be added without touching invocation logic.
package scene
