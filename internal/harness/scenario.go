// Package harness runs declarative sheet scenarios: YAML files that
// stack sheet documents into layers, apply eval/insert steps, and
// record what each step produced. Scenario results can be pinned with
// golden files (see golden.go).
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gamesheet/internal/sheet"
	"github.com/roach88/gamesheet/internal/value"
)

// Scenario defines a sheet conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Sheets holds inline sheet documents forming the layer stack,
	// lowest priority first.
	Sheets []string `yaml:"sheets"`

	// Steps are applied in order against the stack.
	Steps []Step `yaml:"steps"`
}

// Step is one scenario action. Exactly one of Eval, InsertEntry, or
// InsertPrelude should be set.
type Step struct {
	// Eval evaluates the named entry against the stack.
	Eval string `yaml:"eval,omitempty"`

	// InsertEntry inserts or replaces an entry.
	InsertEntry *InsertSpec `yaml:"insert_entry,omitempty"`

	// InsertPrelude replaces a layer's prelude.
	InsertPrelude string `yaml:"insert_prelude,omitempty"`

	// Layer selects which layer an insert applies to (index into
	// Sheets). Nil means the highest-priority layer.
	Layer *int `yaml:"layer,omitempty"`

	// Expect is the rendered value an Eval step must produce.
	// Empty means no expectation.
	Expect string `yaml:"expect,omitempty"`
}

// InsertSpec names an entry and its replacement script.
type InsertSpec struct {
	Name   string `yaml:"name"`
	Script string `yaml:"script"`
}

// StepResult records what one step produced.
type StepResult struct {
	Op    string `json:"op"`
	Entry string `json:"entry,omitempty"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	Scenario string       `json:"scenario"`
	Results  []StepResult `json:"results"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s has no name", path)
	}
	if len(sc.Sheets) == 0 {
		return nil, fmt.Errorf("scenario %q has no sheets", sc.Name)
	}
	return &sc, nil
}

// Run builds the layer stack and applies every step. Step failures
// (a failing eval, a rejected insert) are recorded as results, not
// returned: scenarios pin error behavior as much as success behavior.
// Only scenario-level problems (an unparseable sheet document, an
// out-of-range layer index) abort the run.
func (sc *Scenario) Run() (*Result, error) {
	stack := make(sheet.Stack, 0, len(sc.Sheets))
	for i, doc := range sc.Sheets {
		s, err := sheet.Parse([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("scenario %q: sheet %d: %w", sc.Name, i, err)
		}
		stack = append(stack, s)
	}

	res := &Result{Scenario: sc.Name}
	for i, step := range sc.Steps {
		layer, err := sc.layerFor(step)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: step %d: %w", sc.Name, i, err)
		}

		switch {
		case step.Eval != "":
			res.Results = append(res.Results, runEval(stack, step))

		case step.InsertEntry != nil:
			sr := StepResult{Op: "insert_entry", Entry: step.InsertEntry.Name}
			if err := stack[layer].InsertEntry(step.InsertEntry.Name, step.InsertEntry.Script); err != nil {
				sr.Error = err.Error()
			} else if err := stack.InvalidateCache(step.InsertEntry.Name, nil); err != nil {
				sr.Error = err.Error()
			}
			res.Results = append(res.Results, sr)

		case step.InsertPrelude != "":
			sr := StepResult{Op: "insert_prelude"}
			if err := stack[layer].InsertPrelude(step.InsertPrelude); err != nil {
				sr.Error = err.Error()
			}
			res.Results = append(res.Results, sr)

		default:
			return nil, fmt.Errorf("scenario %q: step %d does nothing", sc.Name, i)
		}
	}
	return res, nil
}

func runEval(stack sheet.Stack, step Step) StepResult {
	sr := StepResult{Op: "eval", Entry: step.Eval}
	v, err := stack.Eval(step.Eval)
	if err != nil {
		sr.Error = err.Error()
		return sr
	}
	sr.Value = value.Render(v)
	if step.Expect != "" && sr.Value != step.Expect {
		sr.Error = fmt.Sprintf("expected %s, got %s", step.Expect, sr.Value)
	}
	return sr
}

func (sc *Scenario) layerFor(step Step) (int, error) {
	if step.Layer == nil {
		return len(sc.Sheets) - 1, nil
	}
	if *step.Layer < 0 || *step.Layer >= len(sc.Sheets) {
		return 0, fmt.Errorf("layer %d out of range", *step.Layer)
	}
	return *step.Layer, nil
}
