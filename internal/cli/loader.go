package cli

import (
	"fmt"
	"os"

	"github.com/roach88/gamesheet/internal/sheet"
)

// LoadStack reads each sheet file and assembles them into a layered
// stack, lowest priority first. At least one path is required.
func LoadStack(paths []string) (sheet.Stack, error) {
	if len(paths) == 0 {
		return nil, NewExitError(ExitCommandError, "no sheets given: pass at least one --sheet")
	}

	stack := make(sheet.Stack, 0, len(paths))
	for _, path := range paths {
		s, err := LoadSheet(path)
		if err != nil {
			return nil, err
		}
		stack = append(stack, s)
	}
	return stack, nil
}

// LoadSheet reads and parses a single sheet file.
func LoadSheet(path string) (*sheet.Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("reading sheet %s", path), err)
	}
	s, err := sheet.Parse(data)
	if err != nil {
		return nil, WrapExitError(ExitFailure, fmt.Sprintf("parsing sheet %s", path), err)
	}
	return s, nil
}
