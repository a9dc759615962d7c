package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/todoracle/internal/item"
	"github.com/roach88/todoracle/internal/oracle"
	"github.com/roach88/todoracle/internal/page"
	"github.com/roach88/todoracle/internal/store"
	"github.com/roach88/todoracle/internal/surface"
	"github.com/roach88/todoracle/internal/testutil"
	"github.com/roach88/todoracle/internal/todomvc"
)

// Recorder persists runs. *store.Store implements it.
type Recorder interface {
	BeginRun(ctx context.Context, run store.Run) error
	WriteStep(ctx context.Context, step store.Step) error
	FinishRun(ctx context.Context, runID string, pass bool, runErrors []string) error
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Options configure scenario execution.
type Options struct {
	// Driver names the surface implementation, for the run log.
	Driver string

	// Timeout bounds one scenario, session opening included. Zero means no
	// bound beyond the caller's context.
	Timeout time.Duration

	// Recorder receives the run when set.
	Recorder Recorder

	// IDs generates run IDs. Defaults to UUIDv7.
	IDs IDGenerator

	// Logger receives step progress. Defaults to discarding.
	Logger *slog.Logger

	// Now stamps recorded runs. Defaults to time.Now.
	Now func() time.Time

	// Page and Oracle options applied to every scenario.
	PageOptions   []page.Option
	OracleOptions []oracle.Option
}

func (o Options) withDefaults() Options {
	if o.IDs == nil {
		o.IDs = uuidGenerator{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// faultInjector is implemented by the in-process application.
type faultInjector interface {
	SetFault(f todomvc.Fault, on bool)
}

// Harness executes one scenario against one session.
type Harness struct {
	scenario *Scenario
	session  surface.Session
	page     *page.Page
	oracle   *oracle.Oracle
	clock    *testutil.DeterministicClock
	recorder Recorder
	runID    string
	logger   *slog.Logger
}

// Run executes a scenario in a fresh session from opener and returns the
// result.
//
// Scenario failures (precondition violations, oracle mismatches, driver
// errors during a step) are reported in the Result. The returned error is
// reserved for failures outside the scenario: the session could not be
// opened or the run could not be recorded.
//
// Execution flow:
// 1. Open a session and inject the scenario's faults
// 2. Execute setup steps; any failure ends the scenario
// 3. Execute steps, each followed by its checks; the first failure ends it
// 4. Close the session and finish the recorded run
func Run(ctx context.Context, sc *Scenario, opener surface.Opener, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	sess, err := opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: open session: %w", sc.Name, err)
	}
	defer sess.Close()

	if len(sc.Faults) > 0 {
		inj, ok := sess.(faultInjector)
		if !ok {
			return nil, fmt.Errorf("scenario %s: faults require the memory driver", sc.Name)
		}
		for _, name := range sc.Faults {
			f, err := todomvc.ParseFault(name)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			inj.SetFault(f, true)
		}
	}

	logger := opts.Logger.With("scenario", sc.Name)
	h := &Harness{
		scenario: sc,
		session:  sess,
		page:     page.New(sess, opts.PageOptions...),
		oracle:   oracle.New(sess, append([]oracle.Option{oracle.WithLogger(logger)}, opts.OracleOptions...)...),
		clock:    testutil.NewDeterministicClock(),
		recorder: opts.Recorder,
		logger:   logger,
	}

	result := NewResult(sc.Name)
	if h.recorder != nil {
		h.runID = opts.IDs.Generate()
		result.RunID = h.runID
		err := h.recorder.BeginRun(ctx, store.Run{
			ID:        h.runID,
			Scenario:  sc.Name,
			Driver:    opts.Driver,
			StartedAt: opts.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("scenario %s: record run: %w", sc.Name, err)
		}
	}

	if err := h.execute(ctx, result); err != nil {
		return nil, err
	}

	if h.recorder != nil {
		// The scenario context may have expired; the outcome is still recorded.
		recCtx := context.WithoutCancel(ctx)
		if err := h.recorder.FinishRun(recCtx, h.runID, result.Pass, result.Errors); err != nil {
			return nil, fmt.Errorf("scenario %s: record outcome: %w", sc.Name, err)
		}
	}

	logger.Info("scenario finished", "pass", result.Pass, "steps", len(result.Trace))
	return result, nil
}

// execute runs setup then steps, stopping at the first failure.
func (h *Harness) execute(ctx context.Context, result *Result) error {
	for i, step := range h.scenario.Setup {
		ok, err := h.executeStep(ctx, PhaseSetup, i, step, result)
		if err != nil || !ok {
			return err
		}
	}
	for i, step := range h.scenario.Steps {
		ok, err := h.executeStep(ctx, PhaseStep, i, step, result)
		if err != nil || !ok {
			return err
		}
	}
	return nil
}

// executeStep performs one step and its checks. It reports whether the
// scenario may continue; the error is reserved for recording failures.
func (h *Harness) executeStep(ctx context.Context, phase string, index int, step Step, result *Result) (bool, error) {
	seq := h.clock.Next()
	logger := h.logger.With("phase", phase, "step", index, "action", step.Action, "seq", seq)

	ev := TraceEvent{
		Seq:     seq,
		Phase:   phase,
		Action:  step.Action,
		Args:    step.Args,
		Outcome: OutcomeOK,
	}

	failure := h.perform(ctx, phase, step, &ev)
	if failure == nil {
		failure = h.verify(ctx, step, &ev)
	}

	snap, err := h.session.ReadPersistedItems(ctx)
	if err != nil {
		if failure == nil {
			ev.Outcome = OutcomeError
		}
		failure = errors.Join(failure, fmt.Errorf("read snapshot: %w", err))
	}
	if snap == nil {
		snap = item.Snapshot{}
	}
	ev.Snapshot = snap

	if failure != nil {
		ev.Error = failure.Error()
		result.AddError(fmt.Sprintf("%s[%d] %s: %v", yamlField(phase), index, step.Action, failure))
		logger.Warn("step failed", "outcome", ev.Outcome, "error", failure)
	} else {
		logger.Debug("step passed", "outcome", ev.Outcome, "snapshot", snap.String())
	}
	result.AddTrace(ev)

	if err := h.record(ctx, ev); err != nil {
		return false, err
	}
	return failure == nil, nil
}

// perform runs the step's action and classifies its error against the
// step's expectation.
func (h *Harness) perform(ctx context.Context, phase string, step Step, ev *TraceEvent) error {
	err := actions[step.Action].run(ctx, h.page, args(step.Args))

	if step.Error == ExpectPrecondition {
		switch {
		case errors.Is(err, page.ErrPrecondition):
			ev.Outcome = OutcomePrecondition
			return nil
		case err == nil:
			ev.Outcome = OutcomeMismatch
			return fmt.Errorf("expected a precondition violation, the step succeeded")
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, page.ErrPrecondition):
		ev.Outcome = OutcomePrecondition
	default:
		ev.Outcome = OutcomeError
	}
	if phase == PhaseSetup {
		return fmt.Errorf("setup failed: %w", err)
	}
	return err
}

// verify cross-checks the two sides and evaluates the step's expectation.
// Setup steps carry no expectation, so they get the cross-check alone.
func (h *Harness) verify(ctx context.Context, step Step, ev *TraceEvent) error {
	var err error
	if step.Expect != nil {
		err = h.oracle.Verify(ctx, h.page, *step.Expect)
	} else {
		err = h.oracle.CrossCheck(ctx, h.page)
	}
	if err == nil {
		return nil
	}

	if len(oracle.Mismatches(err)) > 0 {
		ev.Outcome = OutcomeMismatch
	} else {
		ev.Outcome = OutcomeError
	}
	return err
}

// record writes the step to the run log.
func (h *Harness) record(ctx context.Context, ev TraceEvent) error {
	if h.recorder == nil {
		return nil
	}
	err := h.recorder.WriteStep(context.WithoutCancel(ctx), store.Step{
		RunID:    h.runID,
		Seq:      ev.Seq,
		Phase:    ev.Phase,
		Action:   ev.Action,
		Args:     ev.Args,
		Outcome:  ev.Outcome,
		Error:    ev.Error,
		Snapshot: ev.Snapshot,
	})
	if err != nil {
		return fmt.Errorf("scenario %s: record step %d: %w", h.scenario.Name, ev.Seq, err)
	}
	return nil
}

// yamlField names the scenario list a phase's steps come from, so errors
// point at the same place validation errors do.
func yamlField(phase string) string {
	if phase == PhaseStep {
		return "steps"
	}
	return phase
}
