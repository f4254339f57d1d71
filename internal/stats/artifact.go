package stats

import (
	"fmt"
	"path/filepath"
)

// Kind distinguishes the two artifacts written per scene.
type Kind string

const (
	Validation Kind = "validation"
	Training   Kind = "training"
)

// PrimaryRank is the worker whose training stats are collected.
const PrimaryRank = 0

// Dir is result_root/scene/stats.
func Dir(resultRoot, scene string) string {
	return filepath.Join(resultRoot, scene, "stats")
}

// ValidationPath is the validation stats file for a checkpoint step.
func ValidationPath(resultRoot, scene string, step int) string {
	return filepath.Join(Dir(resultRoot, scene), fmt.Sprintf("val_step%d.json", step))
}

// TrainingPath is the training stats file written by rank at a checkpoint step.
func TrainingPath(resultRoot, scene string, step, rank int) string {
	return filepath.Join(Dir(resultRoot, scene), fmt.Sprintf("train_step%d_rank%d.json", step, rank))
}

// Artifact is a stats file that was found and read.
type Artifact struct {
	Scene   string
	Kind    Kind
	Path    string
	Content []byte
}

// MissingArtifact is a stats file that was absent or unreadable.
type MissingArtifact struct {
	Scene string
	Kind  Kind
	Path  string
	Err   error
}

func (m *MissingArtifact) Error() string {
	return fmt.Sprintf("scene %q: missing %s stats %s: %v", m.Scene, m.Kind, m.Path, m.Err)
}

func (m *MissingArtifact) Unwrap() error { return m.Err }
