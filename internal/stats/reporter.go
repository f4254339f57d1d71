package stats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/vk/splatbench/internal/ctxlog"
	"github.com/vk/splatbench/internal/metrics"
)

var headers = map[Kind]string{
	Validation: "=== Eval Stats ===",
	Training:   "=== Train Stats ===",
}

// SceneReport holds what was found for one scene.
type SceneReport struct {
	Scene     string
	Artifacts []Artifact
	Missing   []*MissingArtifact
}

// Report is the outcome of a collection pass.
type Report struct {
	Scenes []SceneReport
}

// Artifacts returns every artifact found, in report order.
func (r *Report) Artifacts() []Artifact {
	var out []Artifact
	for _, s := range r.Scenes {
		out = append(out, s.Artifacts...)
	}
	return out
}

// Missing returns every missing artifact, in report order.
func (r *Report) Missing() []*MissingArtifact {
	var out []*MissingArtifact
	for _, s := range r.Scenes {
		out = append(out, s.Missing...)
	}
	return out
}

// Err joins all missing artifacts, or returns nil when none are missing.
func (r *Report) Err() error {
	var errs []error
	for _, m := range r.Missing() {
		errs = append(errs, m)
	}
	return errors.Join(errs...)
}

// Reporter reads and prints the artifacts of every scene.
type Reporter struct {
	resultRoot string
	checkpoint int
	out        io.Writer
	metrics    *metrics.Metrics
	readFile   func(string) ([]byte, error)
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithMetrics records found and missing artifacts in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reporter) { r.metrics = m }
}

// NewReporter creates a reporter that prints to out.
func NewReporter(resultRoot string, checkpoint int, out io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		resultRoot: resultRoot,
		checkpoint: checkpoint,
		out:        out,
		readFile:   os.ReadFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Collect reports every scene in order. A missing artifact is printed and
// recorded but never stops collection of the remaining ones. The only
// error returned is a failure to write to the output.
func (r *Reporter) Collect(ctx context.Context, scenes []string) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	report := &Report{Scenes: make([]SceneReport, 0, len(scenes))}

	for _, scene := range scenes {
		sr := SceneReport{Scene: scene}
		targets := []struct {
			kind Kind
			path string
		}{
			{Validation, ValidationPath(r.resultRoot, scene, r.checkpoint)},
			{Training, TrainingPath(r.resultRoot, scene, r.checkpoint, PrimaryRank)},
		}

		for _, tgt := range targets {
			if _, err := fmt.Fprintf(r.out, "%s\n%s\n", headers[tgt.kind], tgt.path); err != nil {
				return report, fmt.Errorf("failed to write report: %w", err)
			}

			content, err := r.readFile(tgt.path)
			if err != nil {
				missing := &MissingArtifact{Scene: scene, Kind: tgt.kind, Path: tgt.path, Err: err}
				sr.Missing = append(sr.Missing, missing)
				r.metrics.ObserveArtifact(string(tgt.kind), false)
				logger.Warn("Stats artifact missing.", "scene", scene, "kind", tgt.kind, "path", tgt.path, "error", err)
				if _, err := fmt.Fprintf(r.out, "missing: %s (%v)\n", tgt.path, reason(err)); err != nil {
					return report, fmt.Errorf("failed to write report: %w", err)
				}
				continue
			}

			sr.Artifacts = append(sr.Artifacts, Artifact{Scene: scene, Kind: tgt.kind, Path: tgt.path, Content: content})
			r.metrics.ObserveArtifact(string(tgt.kind), true)
			if err := writeVerbatim(r.out, content); err != nil {
				return report, fmt.Errorf("failed to write report: %w", err)
			}
		}
		report.Scenes = append(report.Scenes, sr)
	}

	if missing := report.Missing(); len(missing) > 0 {
		logger.Warn("Stats collection incomplete.", "missing", len(missing), "scenes", len(scenes))
	} else {
		logger.Info("📊 Stats collected.", "scenes", len(scenes))
	}
	return report, nil
}

// reason strips the path from filesystem errors, which the report already
// prints.
func reason(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}

// writeVerbatim echoes content and terminates it with a newline so the next
// header starts on its own line.
func writeVerbatim(w io.Writer, content []byte) error {
	if _, err := w.Write(content); err != nil {
		return err
	}
	if len(content) == 0 || content[len(content)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
