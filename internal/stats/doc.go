// Package stats locates and reports the statistics artifacts the trainer
// leaves under result_root/<scene>/stats/. Contents are echoed verbatim;
// their JSON schema belongs to the trainer.
package stats
