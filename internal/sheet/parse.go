package sheet

import (
	"log/slog"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/gamesheet/internal/script"
)

// Document is the serialized sheet definition: a prelude script plus a
// name → script mapping. No other fields are part of the contract.
type Document struct {
	Prelude string            `yaml:"prelude"`
	Entries map[string]string `yaml:"entries"`
}

// documentSchema is the CUE shape a definition document must satisfy
// before it is decoded. Validation here catches structural mistakes
// (an entries list instead of a map, a numeric script) with positions,
// before any script compilation runs.
const documentSchema = `
prelude?: string
entries?: {[string]: string}
`

// validateDocument unifies the YAML document with the schema and
// checks the result is concrete.
func validateDocument(data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(documentSchema)
	if err := schema.Err(); err != nil {
		return NewDocumentError(err)
	}
	file, err := cueyaml.Extract("sheet", data)
	if err != nil {
		return NewDocumentError(err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return NewDocumentError(err)
	}
	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return NewDocumentError(err)
	}
	return nil
}

// Parse constructs a Sheet from a definition document in one atomic
// step: validate the document shape, compile the prelude, compile
// every entry (extracting dependencies and priming the invalidation
// relation), then verify that every statically-extracted dependency
// names an existing entry. Any failure aborts the whole construction;
// no partial sheet is ever returned.
func Parse(data []byte) (*Sheet, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewDocumentError(err)
	}

	prelude, err := script.CompilePrelude(doc.Prelude)
	if err != nil {
		return nil, NewBadScriptError("prelude", err)
	}
	s := newSheet(prelude)

	names := make([]string, 0, len(doc.Entries))
	for name, src := range doc.Entries {
		name = normalizeName(name)
		s.entries.Store(name, src)
		names = append(names, name)
	}
	sort.Strings(names) // deterministic build (and error) order

	for _, name := range names {
		if err := s.buildEntry(name); err != nil {
			return nil, err
		}
	}

	// Confirm that every script's dependencies actually exist.
	for _, name := range names {
		for _, dep := range s.Dependencies(name) {
			if _, ok := s.entries.Load(dep); !ok {
				return nil, NewMissingError(dep)
			}
		}
	}

	slog.Debug("sheet parsed", "sheet", s.id, "entries", len(names))
	return s, nil
}

// Serialize emits the sheet back in the definition format. Parsing the
// result yields a sheet with identical entries, identical prelude, and
// identical evaluation results for every entry.
func (s *Sheet) Serialize() ([]byte, error) {
	doc := Document{
		Prelude: s.Prelude(),
		Entries: make(map[string]string),
	}
	s.entries.Range(func(key, raw any) bool {
		doc.Entries[key.(string)] = raw.(string)
		return true
	})
	return yaml.Marshal(doc)
}
