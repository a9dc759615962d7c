package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/todoracle/internal/config"
	"github.com/roach88/todoracle/internal/harness"
	"github.com/roach88/todoracle/internal/logging"
	"github.com/roach88/todoracle/internal/oracle"
	"github.com/roach88/todoracle/internal/page"
	"github.com/roach88/todoracle/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter string // scenario name glob
	Update bool   // rewrite golden traces
}

// ScenarioResult is the outcome of one scenario in a run report.
type ScenarioResult struct {
	Name   string   `json:"name"`
	RunID  string   `json:"run_id,omitempty"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden"` // "match", "updated", "missing", "mismatch"
	Errors []string `json:"errors,omitempty"`
}

// RunReport summarizes a run command.
type RunReport struct {
	Driver    string           `json:"driver"`
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// Golden comparison outcomes.
const (
	GoldenMatch    = "match"
	GoldenUpdated  = "updated"
	GoldenMissing  = "missing"
	GoldenMismatch = "mismatch"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenarios-dir>",
		Short: "Run scenarios against a TodoMVC application",
		Long: `Run every scenario in a directory and check each step with the oracle.

Each scenario gets a fresh session. Traces are compared against
golden/<name>.golden next to the scenarios; a missing golden file is
reported but does not fail the scenario.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, bad config, etc.)

Examples:
  todoracle run ./scenarios
  todoracle run ./scenarios --filter "edit_*"
  todoracle run ./scenarios --driver rod --url http://localhost:8080
  todoracle run ./scenarios --update
  todoracle run ./scenarios --db runs.db --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only scenarios whose name matches the glob")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden traces")
	cmd.Flags().String("driver", config.DriverMemory, "surface driver (memory|chromedp|rod)")
	cmd.Flags().String("url", "", "application URL for browser drivers")
	cmd.Flags().Bool("headless", true, "run browsers without a window")
	cmd.Flags().String("profile", "", "CUE selector profile (default: built-in)")
	cmd.Flags().Int("parallel", 1, "scenarios run concurrently")
	cmd.Flags().String("db", "", "record runs to this SQLite file")
	cmd.Flags().Duration("timeout", 30*time.Second, "bound on one scenario, session opening included")
	cmd.Flags().Duration("settle-timeout", oracle.DefaultSettleTimeout, "how long a check may wait for the UI to settle")

	return cmd
}

func runScenarios(cmd *cobra.Command, opts *RunOptions, dir string) error {
	cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: opts.Verbose,
		File:    cfg.LogFile,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "configure logging", err)
	}
	defer closeLog()

	scenarios, err := harness.LoadDir(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "load scenarios", err)
	}

	out := opts.formatter(cmd)
	report := RunReport{Driver: cfg.Driver, Scenarios: []ScenarioResult{}}
	if len(scenarios) == 0 {
		return out.Emit(CLIResponse{Status: "ok", Data: report}, func(w io.Writer) {
			fmt.Fprintln(w, "No scenarios found.")
		})
	}

	prof, err := loadProfile(cfg.Profile)
	if err != nil {
		return WrapExitError(ExitCommandError, "load profile", err)
	}

	opener, closer, err := newOpener(cfg, prof, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "create driver", err)
	}
	defer closer.Close()

	hopts := harness.Options{
		Driver:      cfg.Driver,
		Timeout:     cfg.Timeout,
		Logger:      logger,
		PageOptions: []page.Option{page.WithCompletedClass(prof.CompletedClass)},
		OracleOptions: []oracle.Option{
			oracle.WithSettleTimeout(cfg.SettleTimeout),
			oracle.WithPollInterval(cfg.PollInterval),
		},
	}
	if cfg.DB != "" {
		st, err := store.Open(cfg.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "open run log", err)
		}
		defer st.Close()
		hopts.Recorder = st
	}

	out.VerboseLog("Running %d scenario(s) with the %s driver", len(scenarios), cfg.Driver)

	results, err := harness.RunAll(cmd.Context(), scenarios, opener, hopts, cfg.Parallel)
	if err != nil {
		return WrapExitError(ExitCommandError, "run scenarios", err)
	}

	for _, result := range results {
		sr := checkGolden(dir, result, opts.Update, logger)
		report.Scenarios = append(report.Scenarios, sr)
		if sr.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	report.Total = len(report.Scenarios)

	resp := CLIResponse{Status: "ok", Data: report}
	if report.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    CodeScenarioFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", report.Failed),
		}
	}
	if err := out.Emit(resp, func(w io.Writer) { renderRunReport(w, report) }); err != nil {
		return err
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

// checkGolden folds the golden comparison into a scenario's outcome.
func checkGolden(dir string, result *harness.Result, update bool, logger *slog.Logger) ScenarioResult {
	sr := ScenarioResult{
		Name:   result.Scenario,
		RunID:  result.RunID,
		Pass:   result.Pass,
		Errors: result.Errors,
	}

	if update {
		if err := harness.UpdateGolden(dir, result); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, err.Error())
			return sr
		}
		sr.Golden = GoldenUpdated
		return sr
	}

	err := harness.CompareGolden(dir, result)
	var mismatch *harness.GoldenMismatchError
	switch {
	case err == nil:
		sr.Golden = GoldenMatch
	case errors.Is(err, harness.ErrNoGolden):
		sr.Golden = GoldenMissing
		logger.Warn("no golden trace", "scenario", result.Scenario, "path", harness.GoldenPath(dir, result.Scenario))
	case errors.As(err, &mismatch):
		sr.Golden = GoldenMismatch
		sr.Pass = false
		sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
	default:
		sr.Pass = false
		sr.Errors = append(sr.Errors, err.Error())
	}
	return sr
}

func renderRunReport(w io.Writer, report RunReport) {
	for _, sr := range report.Scenarios {
		mark := "✓"
		if !sr.Pass {
			mark = "✗"
		}
		switch sr.Golden {
		case GoldenUpdated:
			fmt.Fprintf(w, "%s %s (golden updated)\n", mark, sr.Name)
		case GoldenMissing:
			fmt.Fprintf(w, "%s %s (no golden trace)\n", mark, sr.Name)
		default:
			fmt.Fprintf(w, "%s %s\n", mark, sr.Name)
		}
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)
	if report.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}
