package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/todoracle/internal/canon"
	"github.com/roach88/todoracle/internal/surface"
)

// GoldenDir is where golden traces live, relative to the test package or the
// scenario directory.
const GoldenDir = "golden"

// ErrNoGolden is returned when a scenario has no golden trace yet.
var ErrNoGolden = errors.New("no golden trace")

// GoldenMismatchError reports a trace that differs from its golden file.
type GoldenMismatchError struct {
	Scenario string
	Path     string
	Want     []byte
	Got      []byte
}

// Error implements the error interface.
func (e *GoldenMismatchError) Error() string {
	return fmt.Sprintf("trace of %s differs from %s\n  want: %s\n  got:  %s",
		e.Scenario, e.Path, bytes.TrimSpace(e.Want), bytes.TrimSpace(e.Got))
}

// toCanonicalMap converts the trace to the value canon.Marshal encodes.
// Run IDs are left out so traces compare equal across runs.
func (r *Result) toCanonicalMap() map[string]any {
	trace := make([]any, len(r.Trace))
	for i, ev := range r.Trace {
		m := map[string]any{
			"seq":      ev.Seq,
			"phase":    ev.Phase,
			"action":   ev.Action,
			"outcome":  ev.Outcome,
			"snapshot": ev.Snapshot,
		}
		if len(ev.Args) > 0 {
			m["args"] = ev.Args
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		trace[i] = m
	}

	return map[string]any{
		"scenario_name": r.Scenario,
		"pass":          r.Pass,
		"trace":         trace,
	}
}

// TraceJSON returns the canonical JSON of the result's trace, newline
// terminated.
func (r *Result) TraceJSON() ([]byte, error) {
	data, err := canon.Marshal(r.toCanonicalMap())
	if err != nil {
		return nil, fmt.Errorf("encode trace of %s: %w", r.Scenario, err)
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden
// file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario, opener surface.Opener, opts Options) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), sc, opener, opts)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, sc.Name, result)
}

// AssertGolden compares a result's trace against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := result.TraceJSON()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", GoldenDir)),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}

// GoldenPath returns the golden file of a scenario under dir.
func GoldenPath(dir, scenarioName string) string {
	return filepath.Join(dir, GoldenDir, scenarioName+".golden")
}

// CompareGolden checks a result against the golden file under dir. It
// returns ErrNoGolden when the file does not exist and *GoldenMismatchError
// when it differs.
func CompareGolden(dir string, result *Result) error {
	got, err := result.TraceJSON()
	if err != nil {
		return err
	}

	path := GoldenPath(dir, result.Scenario)
	want, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, ErrNoGolden)
	}
	if err != nil {
		return fmt.Errorf("read golden trace: %w", err)
	}

	if !bytes.Equal(want, got) {
		return &GoldenMismatchError{Scenario: result.Scenario, Path: path, Want: want, Got: got}
	}
	return nil
}

// UpdateGolden writes the result's trace as the golden file under dir.
func UpdateGolden(dir string, result *Result) error {
	data, err := result.TraceJSON()
	if err != nil {
		return err
	}

	path := GoldenPath(dir, result.Scenario)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write golden trace: %w", err)
	}
	return nil
}
