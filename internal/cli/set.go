package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/gamesheet/internal/value"
)

// SetResult is the JSON payload of the set command.
type SetResult struct {
	Entry   string          `json:"entry,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	Prelude bool            `json:"prelude,omitempty"`
	Written string          `json:"written,omitempty"`
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		setPrelude bool
		write      bool
	)

	cmd := &cobra.Command{
		Use:   "set <entry> <script>",
		Short: "Set an entry script in the highest layer",
		Long: `Set an entry in the highest --sheet layer and evaluate it. Dependents
are invalidated across every layer. With --prelude the single argument
replaces the layer's prelude instead. With --write the modified layer
is serialized back to its file.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(rootOpts, setPrelude, write, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&setPrelude, "prelude", false, "replace the layer prelude instead of an entry")
	cmd.Flags().BoolVar(&write, "write", false, "serialize the modified layer back to its file")

	return cmd
}

func runSet(opts *RootOptions, setPrelude, write bool, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if setPrelude && len(args) != 1 {
		return NewExitError(ExitCommandError, "set --prelude takes exactly one argument")
	}
	if !setPrelude && len(args) != 2 {
		return NewExitError(ExitCommandError, "set takes an entry name and a script")
	}

	stack, err := LoadStack(opts.Sheets)
	if err != nil {
		_ = formatter.Fail(err, nil)
		return err
	}
	top := stack[len(stack)-1]
	topPath := opts.Sheets[len(opts.Sheets)-1]

	result := SetResult{}
	if setPrelude {
		if err := top.InsertPrelude(args[0]); err != nil {
			_ = formatter.Fail(err, nil)
			return WrapExitError(ExitFailure, "setting prelude", err)
		}
		result.Prelude = true
	} else {
		entry, script := args[0], args[1]
		if err := top.InsertEntry(entry, script); err != nil {
			_ = formatter.Fail(err, nil)
			return WrapExitError(ExitFailure, fmt.Sprintf("setting %s", entry), err)
		}
		// Entries shadowed into the top layer stay stale in lower
		// layers unless the whole stack is told.
		if err := stack.InvalidateCache(entry, nil); err != nil {
			_ = formatter.Fail(err, nil)
			return WrapExitError(ExitFailure, fmt.Sprintf("invalidating %s", entry), err)
		}
		v, err := stack.Eval(entry)
		if err != nil {
			_ = formatter.Fail(err, nil)
			return WrapExitError(ExitFailure, fmt.Sprintf("evaluating %s", entry), err)
		}
		raw, err := value.Marshal(v)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("encoding %s", entry), err)
		}
		result.Entry = entry
		result.Value = raw
	}

	if write {
		data, err := top.Serialize()
		if err != nil {
			_ = formatter.Fail(err, nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("serializing %s", topPath), err)
		}
		if err := os.WriteFile(topPath, data, 0o644); err != nil {
			_ = formatter.Fail(err, nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("writing %s", topPath), err)
		}
		result.Written = topPath
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if result.Prelude {
		fmt.Fprintln(formatter.Writer, "✓ prelude updated")
	} else {
		fmt.Fprintf(formatter.Writer, "%s = %s\n", result.Entry, result.Value)
	}
	if result.Written != "" {
		fmt.Fprintf(formatter.Writer, "wrote %s\n", result.Written)
	}
	return nil
}
