package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds the outcome of validating sheet files.
type ValidationResult struct {
	Valid  bool          `json:"valid"`
	Sheets []SheetReport `json:"sheets"`
}

// SheetReport describes a single validated sheet file.
type SheetReport struct {
	Path    string `json:"path"`
	Entries int    `json:"entries,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate sheet files without evaluating",
		Long: `Validate each --sheet file: document shape, prelude and entry scripts,
dependency references, and dependency cycles among the file's entries
(the construction-time check). Every file is reported before failing.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if len(opts.Sheets) == 0 {
		missing := NewExitError(ExitCommandError, "no sheets given: pass at least one --sheet")
		_ = formatter.Fail(missing, nil)
		return missing
	}

	result := ValidationResult{Valid: true}
	failed := 0
	for _, path := range opts.Sheets {
		formatter.VerboseLog("Validating sheet: %s", path)
		report := SheetReport{Path: path}
		s, err := LoadSheet(path)
		if err != nil {
			report.Error = err.Error()
			report.Code = errorCode(err)
			result.Valid = false
			failed++
		} else {
			report.Entries = len(s.Entries())
		}
		result.Sheets = append(result.Sheets, report)
	}

	if !result.Valid {
		if formatter.Format == "json" {
			_ = formatter.fail(result.Sheets[firstFailed(result)].Code, "validation failed", result)
		} else {
			fmt.Fprintln(formatter.Writer, "✗ Validation failed")
			fmt.Fprintln(formatter.Writer)
			for _, r := range result.Sheets {
				if r.Error != "" {
					fmt.Fprintf(formatter.Writer, "  %s: %s\n", r.Path, r.Error)
				}
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d sheet(s)", failed))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %d sheet(s) valid\n", len(result.Sheets))
	return nil
}

func firstFailed(result ValidationResult) int {
	for i, r := range result.Sheets {
		if r.Error != "" {
			return i
		}
	}
	return 0
}
