package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gamesheet/internal/value"
)

// EvalResult is the JSON payload of the eval command.
type EvalResult struct {
	Entry string          `json:"entry"`
	Value json.RawMessage `json:"value"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <entry>...",
		Short: "Evaluate entries against the sheet stack",
		Long: `Evaluate one or more entries. Higher --sheet layers shadow lower ones;
a lookup that misses every layer fails with MISSING_DEPENDENCY.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runEval(opts *RootOptions, entries []string, cmd *cobra.Command) error {
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

	results := make([]EvalResult, 0, len(entries))
	for _, entry := range entries {
		formatter.VerboseLog("Evaluating entry: %s", entry)
		v, err := stack.Eval(entry)
		if err != nil {
			_ = formatter.Fail(err, nil)
			return WrapExitError(ExitFailure, fmt.Sprintf("evaluating %s", entry), err)
		}
		raw, err := value.Marshal(v)
		if err != nil {
			_ = formatter.Fail(err, nil)
			return WrapExitError(ExitFailure, fmt.Sprintf("encoding %s", entry), err)
		}
		results = append(results, EvalResult{Entry: entry, Value: raw})
	}

	if formatter.Format == "json" {
		if len(results) == 1 {
			return formatter.Success(results[0])
		}
		return formatter.Success(results)
	}

	for _, r := range results {
		if len(results) == 1 {
			fmt.Fprintf(formatter.Writer, "%s\n", r.Value)
		} else {
			fmt.Fprintf(formatter.Writer, "%s = %s\n", r.Entry, r.Value)
		}
	}
	return nil
}
