package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/todoracle/internal/config"
	"github.com/roach88/todoracle/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Limit int
}

// TraceResult is a recorded run with its steps.
type TraceResult struct {
	Run   store.Run    `json:"run"`
	Steps []store.Step `json:"steps"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Show a recorded run",
		Long: `Show the steps of a recorded run, with the persisted items after each.

Without a run ID, lists the most recent runs.

Examples:
  todoracle trace --db runs.db
  todoracle trace 0192f0c4-5b1e-7c3a-9d2e-4f8a6b1c2d3e --db runs.db
  todoracle trace 0192f0c4-5b1e-7c3a-9d2e-4f8a6b1c2d3e --db runs.db --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return showTrace(cmd, opts, runID)
		},
	}

	cmd.Flags().String("db", "", "run log database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "runs listed without a run ID")

	return cmd
}

func showTrace(cmd *cobra.Command, opts *TraceOptions, runID string) error {
	cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if cfg.DB == "" {
		return NewExitError(ExitCommandError, "no run log: set --db or db in the config")
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "open run log", err)
	}
	defer st.Close()

	out := opts.formatter(cmd)

	if runID == "" {
		runs, err := st.ListRuns(cmd.Context(), opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "list runs", err)
		}
		return out.Emit(CLIResponse{Status: "ok", Data: runs}, func(w io.Writer) {
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs recorded.")
				return
			}
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %s  %-8s %-6s %s\n",
					r.ID, r.StartedAt.Format(time.RFC3339), r.Driver, runStatus(r), r.Scenario)
			}
		})
	}

	run, steps, err := st.ReadRun(cmd.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		if err := out.Error(CodeNotFound, fmt.Sprintf("run %s not found", runID), nil); err != nil {
			return err
		}
		return WrapExitError(ExitCommandError, "read run", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "read run", err)
	}

	result := TraceResult{Run: run, Steps: steps}
	return out.Emit(CLIResponse{Status: "ok", Data: result}, func(w io.Writer) {
		renderTrace(w, result)
	})
}

func runStatus(r store.Run) string {
	switch {
	case !r.Finished:
		return "open"
	case r.Pass:
		return "pass"
	default:
		return "fail"
	}
}

func renderTrace(w io.Writer, t TraceResult) {
	fmt.Fprintf(w, "Run %s: %s (%s, %s)\n", t.Run.ID, t.Run.Scenario, t.Run.Driver, runStatus(t.Run))
	fmt.Fprintf(w, "Started: %s\n\n", t.Run.StartedAt.Format(time.RFC3339))

	for _, s := range t.Steps {
		fmt.Fprintf(w, "[%d] %s %s", s.Seq, s.Phase, s.Action)
		if len(s.Args) > 0 {
			fmt.Fprintf(w, " %v", s.Args)
		}
		fmt.Fprintf(w, " -> %s\n", s.Outcome)
		fmt.Fprintf(w, "    items: %s\n", s.Snapshot.String())
		if s.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", s.Error)
		}
	}

	for _, e := range t.Run.Errors {
		fmt.Fprintf(w, "\n✗ %s", e)
	}
	if len(t.Run.Errors) > 0 {
		fmt.Fprintln(w)
	}
}
