package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/todoracle/internal/canon"
	"github.com/roach88/todoracle/internal/item"
)

// Run is one recorded scenario execution.
type Run struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	Driver    string    `json:"driver"`
	Pass      bool      `json:"pass"`
	Finished  bool      `json:"finished"`
	Errors    []string  `json:"errors,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Step is one recorded scenario step.
type Step struct {
	RunID    string         `json:"run_id"`
	Seq      int64          `json:"seq"`
	Phase    string         `json:"phase"` // "setup" or "step"
	Action   string         `json:"action"`
	Args     map[string]any `json:"args,omitempty"`
	Outcome  string         `json:"outcome"` // "ok", "precondition", "mismatch", "error"
	Error    string         `json:"error,omitempty"`
	Snapshot item.Snapshot  `json:"snapshot"`
}

// BeginRun records the start of a run. The run stays unfinished until
// FinishRun is called.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, driver, started_at)
		VALUES (?, ?, ?, ?)
	`,
		run.ID,
		run.Scenario,
		run.Driver,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, pass bool, runErrors []string) error {
	if runErrors == nil {
		runErrors = []string{}
	}
	errorsJSON, err := canon.Marshal(runErrors)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET pass = ?, finished = 1, errors = ?
		WHERE id = ?
	`, pass, string(errorsJSON), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// WriteStep appends a step to a run. The run must exist (foreign key).
// Writing the same (run, seq) twice is a no-op.
func (s *Store) WriteStep(ctx context.Context, step Step) error {
	args := step.Args
	if args == nil {
		args = map[string]any{}
	}
	argsJSON, err := canon.Marshal(args)
	if err != nil {
		return fmt.Errorf("write step: args: %w", err)
	}

	snap := step.Snapshot
	if snap == nil {
		snap = item.Snapshot{}
	}
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("write step: snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO steps (run_id, seq, phase, action, args, outcome, error, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		step.RunID,
		step.Seq,
		step.Phase,
		step.Action,
		string(argsJSON),
		step.Outcome,
		step.Error,
		string(snapJSON),
	)
	if err != nil {
		return fmt.Errorf("write step: %w", err)
	}
	return nil
}

// ReadRun returns a run and its steps ordered by seq.
// Returns ErrNotFound if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, []Step, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, driver, pass, finished, errors, started_at
		FROM runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return Run{}, nil, err
	}

	steps, err := s.readSteps(ctx, runID)
	if err != nil {
		return Run{}, nil, err
	}
	return run, steps, nil
}

// ListRuns returns the most recent runs first, at most limit of them.
// A non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, scenario, driver, pass, finished, errors, started_at
		FROM runs
		ORDER BY rowid DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) readSteps(ctx context.Context, runID string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, phase, action, args, outcome, error, snapshot
		FROM steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []Step{}
	for rows.Next() {
		var (
			st       Step
			argsJSON string
			snapJSON string
		)
		if err := rows.Scan(&st.RunID, &st.Seq, &st.Phase, &st.Action, &argsJSON, &st.Outcome, &st.Error, &snapJSON); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &st.Args); err != nil {
			return nil, fmt.Errorf("unmarshal step args: %w", err)
		}
		if err := json.Unmarshal([]byte(snapJSON), &st.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal step snapshot: %w", err)
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		errorsJSON string
		startedAt  string
	)
	if err := row.Scan(&run.ID, &run.Scenario, &run.Driver, &run.Pass, &run.Finished, &errorsJSON, &startedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(errorsJSON), &run.Errors); err != nil {
		return Run{}, fmt.Errorf("unmarshal run errors: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = ts
	return run, nil
}
