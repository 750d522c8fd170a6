package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// EntriesResult is the JSON payload of the entries command.
type EntriesResult struct {
	Entries []EntryInfo `json:"entries"`
}

// EntryInfo describes one entry visible in the stack.
type EntryInfo struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
}

// NewEntriesCommand creates the entries command.
func NewEntriesCommand(rootOpts *RootOptions) *cobra.Command {
	var showSource bool

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List entries visible in the sheet stack",
		Long: `List every entry name defined by any layer, sorted. With --source,
include the script of the highest layer that defines each entry.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntries(rootOpts, showSource, cmd)
		},
	}

	cmd.Flags().BoolVar(&showSource, "source", false, "include entry scripts")

	return cmd
}

func runEntries(opts *RootOptions, showSource bool, cmd *cobra.Command) error {
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

	result := EntriesResult{}
	for _, name := range stack.Entries() {
		info := EntryInfo{Name: name}
		if showSource {
			if src, ok := stack.GetSource(name); ok {
				info.Source = src
			}
		}
		result.Entries = append(result.Entries, info)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, info := range result.Entries {
		if showSource {
			fmt.Fprintf(formatter.Writer, "%s = %s\n", info.Name, info.Source)
		} else {
			fmt.Fprintln(formatter.Writer, info.Name)
		}
	}
	return nil
}
