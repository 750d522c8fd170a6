package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			RunWithGolden(t, path)
		})
	}
}

func TestLoad_RejectsBadScenarios(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(write("noname.yaml", "sheets:\n  - 'entries: {}'\n"))
	assert.Error(t, err)

	_, err = Load(write("nosheets.yaml", "name: x\n"))
	assert.Error(t, err)
}

func TestRun_ExpectMismatchRecordedAsError(t *testing.T) {
	sc := &Scenario{
		Name:   "mismatch",
		Sheets: []string{"entries:\n  x: \"1\"\n"},
		Steps:  []Step{{Eval: "x", Expect: "2"}},
	}
	res, err := sc.Run()
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "1", res.Results[0].Value)
	assert.Equal(t, "expected 2, got 1", res.Results[0].Error)
}

func TestRun_LayerOutOfRangeAborts(t *testing.T) {
	layer := 5
	sc := &Scenario{
		Name:   "bad-layer",
		Sheets: []string{"entries: {}\n"},
		Steps:  []Step{{InsertEntry: &InsertSpec{Name: "x", Script: "1"}, Layer: &layer}},
	}
	_, err := sc.Run()
	assert.Error(t, err)
}

func TestRun_BadSheetDocumentAborts(t *testing.T) {
	sc := &Scenario{
		Name:   "bad-sheet",
		Sheets: []string{"entries: [not, a, map]\n"},
		Steps:  []Step{{Eval: "x"}},
	}
	_, err := sc.Run()
	assert.Error(t, err)
}
