package sheet

import (
	"sort"

	"github.com/roach88/gamesheet/internal/value"
)

// Stack composes an ordered sequence of sheets into one logical
// engine. Earlier layers are lower priority: a higher layer overrides
// same-named entries while unique names fall through to whichever
// layer defines them. Useful for base-game-plus-mod content.
//
// Composition policy:
//   - Eval: highest layer that evaluates successfully wins.
//   - Dependencies/Dependents: resolved against the highest layer
//     that defines the name.
//   - Entries: deduplicated union of every layer.
//   - InvalidateCache: applied to every layer unconditionally, so an
//     edit to a low layer stays visible when no higher layer
//     overrides the name.
type Stack []*Sheet

var (
	_ GameSheet = (*Sheet)(nil)
	_ GameSheet = Stack(nil)
)

// defines reports whether the sheet's entry set contains name.
func defines(s *Sheet, name string) bool {
	_, ok := s.GetSource(name)
	return ok
}

// Eval tries layers from highest to lowest priority and returns the
// first successful result. If every layer fails, the name is missing
// from the stack as a whole.
func (st Stack) Eval(name string) (value.Value, error) {
	for i := len(st) - 1; i >= 0; i-- {
		if v, err := st[i].Eval(name); err == nil {
			return v, nil
		}
	}
	return nil, NewMissingError(name)
}

// InvalidateCache invalidates the name in every layer.
func (st Stack) InvalidateCache(name string, visited []string) error {
	for _, s := range st {
		if err := s.InvalidateCache(name, visited); err != nil {
			return err
		}
	}
	return nil
}

// Dependencies resolves against the highest layer defining name.
func (st Stack) Dependencies(name string) []string {
	for i := len(st) - 1; i >= 0; i-- {
		if defines(st[i], name) {
			return st[i].Dependencies(name)
		}
	}
	return nil
}

// Dependents resolves against the highest layer defining name.
func (st Stack) Dependents(name string) []string {
	for i := len(st) - 1; i >= 0; i-- {
		if defines(st[i], name) {
			return st[i].Dependents(name)
		}
	}
	return nil
}

// Entries returns the deduplicated union of every layer's entry
// names, sorted.
func (st Stack) Entries() []string {
	seen := make(map[string]bool)
	for _, s := range st {
		for _, name := range s.Entries() {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetSource returns the script of the highest layer defining name.
func (st Stack) GetSource(name string) (string, bool) {
	for i := len(st) - 1; i >= 0; i-- {
		if src, ok := st[i].GetSource(name); ok {
			return src, true
		}
	}
	return "", false
}
