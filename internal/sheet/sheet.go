// Package sheet implements the reactive expression-evaluation engine:
// named entries holding Starlark scripts that may reference each other
// through the lookup call, with lazy memoized evaluation, cascading
// invalidation, cycle detection, and layered composition.
package sheet

import (
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/gamesheet/internal/script"
	"github.com/roach88/gamesheet/internal/value"
)

// GameSheet is the read/evaluate surface shared by a single Sheet and
// a layered Stack. Keeping the two as separate implementations of one
// interface keeps the override/union composition semantics explicit.
type GameSheet interface {
	// Eval computes or returns the cached value of an entry.
	Eval(name string) (value.Value, error)

	// InvalidateCache clears the cached value of an entry and,
	// recursively, of every entry that depends on it. visited carries
	// the names already cleared on this path; revisiting one is a
	// cyclic-dependency error, which also bounds the recursion.
	InvalidateCache(name string, visited []string) error

	// Dependencies lists the names an entry statically references,
	// in first-appearance order. Empty if the entry is unknown.
	Dependencies(name string) []string

	// Dependents lists the entries that statically reference name,
	// sorted. Empty if none.
	Dependents(name string) []string

	// Entries lists every defined entry name, sorted.
	Entries() []string
}

// Sheet is one engine: a prelude shared by all entries plus the entry
// scripts and their derived compiled forms, dependency lists, and
// cached values.
//
// Thread-safety model:
//   - entries/compiled/deps/cache are independently concurrent maps;
//     per-entry operations need no engine-wide lock.
//   - The prelude swap holds mu exclusively so "replace prelude +
//     clear the whole cache" is one visible unit. Evaluations snapshot
//     the prelude and its generation under a read lock and only store
//     into the cache if the generation is still current, so a value
//     computed under a stale prelude can never repopulate the cache.
//
// Entries are insert-only; there is no removal operation.
type Sheet struct {
	id string // log correlation ID

	mu      sync.RWMutex
	prelude *script.Prelude
	gen     uint64

	entries  sync.Map // name -> raw script (string)
	compiled sync.Map // name -> *script.Unit
	deps     sync.Map // name -> []string
	cache    sync.Map // name -> value.Value
}

// normalizeName puts an entry name into NFC so that lookups compare
// equal regardless of the Unicode composition form an editor produced.
func normalizeName(name string) string {
	return norm.NFC.String(name)
}

// newSheet creates an empty sheet with the given compiled prelude.
func newSheet(prelude *script.Prelude) *Sheet {
	return &Sheet{
		id:      uuid.NewString(),
		prelude: prelude,
	}
}

// ID returns the sheet's log correlation ID.
func (s *Sheet) ID() string {
	return s.id
}

// Prelude returns the raw prelude script currently in effect.
func (s *Sheet) Prelude() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prelude.Source()
}

// GetSource returns the raw script stored for name.
func (s *Sheet) GetSource(name string) (string, bool) {
	raw, ok := s.entries.Load(normalizeName(name))
	if !ok {
		return "", false
	}
	return raw.(string), true
}

// InsertEntry validates that script compiles in isolation and only on
// success replaces the stored entry, re-extracts its dependencies, and
// invalidates its cached value together with every transitive
// dependent. On failure the prior entry is left untouched.
func (s *Sheet) InsertEntry(name, src string) error {
	name = normalizeName(name)
	if _, err := script.Compile(name, src); err != nil {
		return NewBadScriptError(name, err)
	}
	s.entries.Store(name, src)
	return s.buildEntry(name)
}

// buildEntry compiles the stored script for name, extracts its static
// dependencies, and invalidates its cached value. Run once per entry
// at construction and again on every insert.
func (s *Sheet) buildEntry(name string) error {
	raw, ok := s.entries.Load(name)
	if !ok {
		return nil
	}
	slog.Debug("compiling entry", "sheet", s.id, "entry", name)
	unit, err := script.Compile(name, raw.(string))
	if err != nil {
		return NewBadScriptError(name, err)
	}
	s.compiled.Store(name, unit)

	refs := unit.Refs()
	for i, ref := range refs {
		refs[i] = normalizeName(ref)
	}
	s.deps.Store(name, refs)

	return s.InvalidateCache(name, nil)
}

// InsertPrelude compiles the new prelude and, on success, swaps it in
// and clears the entire value cache: any entry may depend on
// prelude-defined helpers, and there is no cheap way to know which.
// On compile failure the previous prelude remains active. Entry
// compiled forms are untouched; the prelude is merged at evaluation
// time, not compiled into entries.
func (s *Sheet) InsertPrelude(src string) error {
	p, err := script.CompilePrelude(src)
	if err != nil {
		return NewBadScriptError("prelude", err)
	}
	s.mu.Lock()
	s.prelude = p
	s.gen++
	s.cache.Clear()
	s.mu.Unlock()
	slog.Debug("prelude replaced", "sheet", s.id)
	return nil
}

// Eval computes the value of an entry.
//
// Order matters: the cycle check runs first so a cyclic sheet fails
// rather than recursing; a cache hit returns a copy with no side
// effects; otherwise the compiled entry is executed against the
// current prelude with nested lookups resolving back through Eval.
//
// A failed nested lookup propagates: the outer evaluation fails with
// the underlying error rather than substituting a default value.
// Nothing is cached on failure.
func (s *Sheet) Eval(name string) (value.Value, error) {
	name = normalizeName(name)

	if offender, ok := detectCycle(s, name); ok {
		return nil, NewCycleError(name, offender)
	}

	if v, ok := s.cache.Load(name); ok {
		return value.Clone(v.(value.Value)), nil
	}

	unit, ok := s.compiled.Load(name)
	if !ok {
		return nil, NewMissingError(name)
	}

	s.mu.RLock()
	prelude, gen := s.prelude, s.gen
	s.mu.RUnlock()

	v, err := script.Eval(name, unit.(*script.Unit), prelude, s.lookup)
	if err != nil {
		slog.Error("evaluation failed", "sheet", s.id, "entry", name, "error", err)
		return nil, NewEvalError(name, err)
	}

	return s.finishEval(name, gen, v), nil
}

// finishEval publishes a result computed under generation gen. If a
// prelude swap landed while the script was executing, the value
// reflects a prelude no longer in effect: the caller still gets it,
// but it must not repopulate the cache the swap just cleared.
func (s *Sheet) finishEval(name string, gen uint64, v value.Value) value.Value {
	s.mu.RLock()
	if s.gen == gen {
		s.cache.Store(name, v)
	}
	s.mu.RUnlock()
	return v
}

// lookup resolves a nested lookup call against this sheet, so nested
// references follow the same cache/invalidate/cycle rules.
func (s *Sheet) lookup(name string) (value.Value, error) {
	return s.Eval(name)
}

// InvalidateCache removes the cached value for name, then recurses
// into every direct dependent. A dependent already on the visited path
// means the dependency relation loops back: that is reported as a
// cyclic-dependency error instead of recursing forever.
func (s *Sheet) InvalidateCache(name string, visited []string) error {
	name = normalizeName(name)
	s.cache.Delete(name)

	path := make([]string, 0, len(visited)+1)
	path = append(path, visited...)
	path = append(path, name)

	for _, dependent := range s.Dependents(name) {
		if slices.Contains(visited, dependent) {
			return NewCycleError(dependent, name)
		}
		if err := s.InvalidateCache(dependent, path); err != nil {
			return err
		}
	}
	return nil
}

// Dependencies returns the names the entry statically references.
func (s *Sheet) Dependencies(name string) []string {
	deps, ok := s.deps.Load(normalizeName(name))
	if !ok {
		return nil
	}
	return slices.Clone(deps.([]string))
}

// Dependents returns the entries whose scripts statically reference
// name, sorted for deterministic output.
func (s *Sheet) Dependents(name string) []string {
	name = normalizeName(name)
	var out []string
	s.deps.Range(func(key, deps any) bool {
		if slices.Contains(deps.([]string), name) {
			out = append(out, key.(string))
		}
		return true
	})
	sort.Strings(out)
	return out
}

// Entries returns every defined entry name, sorted.
func (s *Sheet) Entries() []string {
	var out []string
	s.entries.Range(func(key, _ any) bool {
		out = append(out, key.(string))
		return true
	})
	sort.Strings(out)
	return out
}
