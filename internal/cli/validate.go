package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/todoracle/internal/harness"
)

// ValidateResult lists the outcome of loading every scenario file.
type ValidateResult struct {
	Valid   []string          `json:"valid"`
	Invalid map[string]string `json:"invalid,omitempty"` // file -> error
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Check scenario files without running them",
		Long: `Load and validate every scenario in a directory.

Unknown fields, unknown actions, bad arguments and duplicate names are
all reported, not just the first problem found.

Examples:
  todoracle validate ./scenarios
  todoracle validate ./scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateScenarios(cmd, rootOpts, args[0])
		},
	}
}

func validateScenarios(cmd *cobra.Command, opts *RootOptions, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "read scenario directory", err)
	}

	result := ValidateResult{Valid: []string{}, Invalid: map[string]string{}}
	names := make(map[string]string)
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())

		sc, err := harness.LoadScenario(path)
		if err != nil {
			result.Invalid[path] = err.Error()
			continue
		}
		if prev, dup := names[sc.Name]; dup {
			result.Invalid[path] = fmt.Sprintf("duplicate scenario name %q, also in %s", sc.Name, prev)
			continue
		}
		names[sc.Name] = path
		result.Valid = append(result.Valid, sc.Name)
	}
	sort.Strings(result.Valid)

	out := opts.formatter(cmd)
	if len(result.Invalid) == 0 {
		return out.Emit(CLIResponse{Status: "ok", Data: result}, func(w io.Writer) {
			fmt.Fprintf(w, "✓ %d scenario(s) valid\n", len(result.Valid))
		})
	}

	message := fmt.Sprintf("%d invalid scenario file(s)", len(result.Invalid))
	resp := CLIResponse{
		Status: "error",
		Data:   result,
		Error:  &CLIError{Code: CodeInvalid, Message: message},
	}
	err = out.Emit(resp, func(w io.Writer) {
		paths := make([]string, 0, len(result.Invalid))
		for p := range result.Invalid {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintf(w, "✗ %s\n  %s\n", p, result.Invalid[p])
		}
		fmt.Fprintf(w, "\n%d valid, %d invalid\n", len(result.Valid), len(result.Invalid))
	})
	if err != nil {
		return err
	}
	return NewExitError(ExitFailure, message)
}
