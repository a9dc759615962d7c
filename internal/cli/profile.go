package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/todoracle/internal/surface"
)

// ProfileResult is a validated selector profile.
type ProfileResult struct {
	Source         string                  `json:"source"`
	Selectors      map[surface.Hook]string `json:"selectors"`
	CompletedClass string                  `json:"completed_class"`
}

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [path]",
		Short: "Validate and print a selector profile",
		Long: `Validate a CUE selector profile and print the selector of every hook.

Without a path, prints the built-in profile for the TodoMVC React demo.

Examples:
  todoracle profile
  todoracle profile ./vue.cue --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return showProfile(cmd, rootOpts, path)
		},
	}
}

func showProfile(cmd *cobra.Command, opts *RootOptions, path string) error {
	prof, err := loadProfile(path)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid profile", err)
	}

	source := path
	if source == "" {
		source = "built-in"
	}
	result := ProfileResult{
		Source:         source,
		Selectors:      prof.Selectors(),
		CompletedClass: prof.CompletedClass,
	}

	return opts.formatter(cmd).Emit(CLIResponse{Status: "ok", Data: result}, func(w io.Writer) {
		fmt.Fprintf(w, "Profile: %s\n", result.Source)
		for _, h := range surface.Hooks {
			fmt.Fprintf(w, "  %-16s %s\n", h, result.Selectors[h])
		}
		fmt.Fprintf(w, "  %-16s %s\n", "completed class", result.CompletedClass)
	})
}
