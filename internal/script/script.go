// Package script wraps the embedded Starlark evaluator behind the
// three capabilities the sheet engine needs: compiling entry
// expressions in isolation, executing the shared prelude module into a
// globals snapshot, and evaluating a compiled entry with a host lookup
// callback installed.
package script

import (
	"fmt"
	"log/slog"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/roach88/gamesheet/internal/value"
)

// LookupName is the designated lookup function scripts call to
// reference another entry's value by name, e.g. g("constant").
const LookupName = "g"

// lookupLocalKey is the thread-local slot holding the active LookupFunc.
// The lookup builtin is shared between the prelude and every entry
// evaluation; dispatching through the thread lets prelude-defined
// helpers resolve lookups against whichever engine is evaluating them.
const lookupLocalKey = "gamesheet.lookup"

var fileOpts = &syntax.FileOptions{}

// LookupFunc resolves a lookup call against the owning engine.
// Evaluation contexts carry one so nested lookups call back through an
// explicit capability rather than a captured closure.
type LookupFunc func(name string) (value.Value, error)

// Unit is the compiled form of a single entry script: a parsed
// expression, not yet bound to any prelude. Binding happens at
// evaluation time so a prelude swap never forces entry recompilation.
type Unit struct {
	source string
	expr   syntax.Expr
}

// Compile parses an entry script as a single expression. The name is
// used only for error positions.
func Compile(name, source string) (*Unit, error) {
	expr, err := fileOpts.ParseExpr(name, source, 0)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", name, err)
	}
	return &Unit{source: source, expr: expr}, nil
}

// Source returns the raw script the unit was compiled from.
func (u *Unit) Source() string {
	return u.source
}

// Refs returns the names this unit statically references: the literal
// string first arguments of calls to the lookup function, in first
// appearance order, deduplicated. Lookup targets computed at runtime
// are invisible to this scan and are not tracked as dependencies.
func (u *Unit) Refs() []string {
	var refs []string
	seen := make(map[string]bool)
	syntax.Walk(u.expr, func(n syntax.Node) bool {
		call, ok := n.(*syntax.CallExpr)
		if !ok {
			return true
		}
		ident, ok := call.Fn.(*syntax.Ident)
		if !ok || ident.Name != LookupName || len(call.Args) == 0 {
			return true
		}
		lit, ok := call.Args[0].(*syntax.Literal)
		if !ok || lit.Token != syntax.STRING {
			return true
		}
		if name, ok := lit.Value.(string); ok && !seen[name] {
			seen[name] = true
			refs = append(refs, name)
		}
		return true
	})
	return refs
}

// Prelude is the compiled form of the shared prelude: the globals its
// module execution produced. Entries see these globals merged beneath
// the lookup builtin.
type Prelude struct {
	source  string
	globals starlark.StringDict
}

// CompilePrelude executes the prelude module and captures its globals.
// The lookup builtin is predeclared so helper definitions resolve, but
// a top-level lookup call fails: no engine is evaluating yet.
func CompilePrelude(source string) (*Prelude, error) {
	thread := &starlark.Thread{Name: "prelude"}
	globals, err := starlark.ExecFileOptions(fileOpts, thread, "prelude", source, starlark.StringDict{
		LookupName: lookupBuiltin,
	})
	if err != nil {
		return nil, fmt.Errorf("compile prelude: %w", err)
	}
	return &Prelude{source: source, globals: globals}, nil
}

// Source returns the raw prelude script.
func (p *Prelude) Source() string {
	return p.source
}

// Eval executes a compiled entry against the prelude's globals with
// the given lookup callback active. Failures are returned unmodified
// apart from wrapping; nothing is logged at error level here since the
// engine decides whether a failure is fatal.
func Eval(entry string, u *Unit, p *Prelude, lookup LookupFunc) (value.Value, error) {
	thread := &starlark.Thread{
		Name: "entry:" + entry,
		Print: func(_ *starlark.Thread, msg string) {
			slog.Debug("script print", "entry", entry, "msg", msg)
		},
	}
	thread.SetLocal(lookupLocalKey, lookup)

	env := make(starlark.StringDict, len(p.globals)+1)
	for k, v := range p.globals {
		env[k] = v
	}
	env[LookupName] = lookupBuiltin

	out, err := starlark.EvalExprOptions(fileOpts, thread, u.expr, env)
	if err != nil {
		return nil, err
	}
	return value.FromStarlark(out), nil
}

// lookupBuiltin implements the lookup operation. It dispatches to the
// LookupFunc carried on the executing thread, so the same builtin
// serves every engine and every nesting depth.
var lookupBuiltin = starlark.NewBuiltin(LookupName, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(LookupName, args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	lookup, _ := thread.Local(lookupLocalKey).(LookupFunc)
	if lookup == nil {
		return nil, fmt.Errorf("%s(%q): lookup is not available outside entry evaluation", LookupName, name)
	}
	v, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return value.ToStarlark(v), nil
})
