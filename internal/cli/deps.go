package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gamesheet/internal/sheet"
)

// DepsResult is the JSON payload of the deps command.
type DepsResult struct {
	Entry        string   `json:"entry"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

// NewDepsCommand creates the deps command.
func NewDepsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps <entry>",
		Short: "Show dependencies and dependents of an entry",
		Long: `Show the entries an entry reads through lookup calls, and the entries
that read it. Both are resolved against the highest layer defining the entry.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDeps(opts *RootOptions, entry string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	stack, err := LoadStack(opts.Sheets)
	if err != nil {
		_ = formatter.Fail(err, nil)
		return err
	}

	if _, ok := stack.GetSource(entry); !ok {
		missing := sheet.NewMissingError(entry)
		_ = formatter.Fail(missing, nil)
		return WrapExitError(ExitFailure, fmt.Sprintf("resolving %s", entry), missing)
	}

	result := DepsResult{
		Entry:        entry,
		Dependencies: stack.Dependencies(entry),
		Dependents:   stack.Dependents(entry),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "dependencies: %v\n", result.Dependencies)
	fmt.Fprintf(formatter.Writer, "dependents:   %v\n", result.Dependents)
	return nil
}
