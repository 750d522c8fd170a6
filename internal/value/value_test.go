package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestFromStarlark_Scalars(t *testing.T) {
	assert.Equal(t, Int(7), FromStarlark(starlark.MakeInt(7)))
	assert.Equal(t, Float(2.5), FromStarlark(starlark.Float(2.5)))
	assert.Equal(t, Bool(true), FromStarlark(starlark.Bool(true)))
	assert.Equal(t, String("hp"), FromStarlark(starlark.String("hp")))
}

func TestFromStarlark_Sequences(t *testing.T) {
	list := starlark.NewList([]starlark.Value{
		starlark.MakeInt(1),
		starlark.Float(2.0),
		starlark.NewList([]starlark.Value{starlark.String("x")}),
	})
	got := FromStarlark(list)
	assert.Equal(t, List{Int(1), Float(2.0), List{String("x")}}, got)

	tuple := starlark.Tuple{starlark.MakeInt(1), starlark.MakeInt(2)}
	assert.Equal(t, List{Int(1), Int(2)}, FromStarlark(tuple))
}

func TestFromStarlark_FallbackToStringRendering(t *testing.T) {
	// None is outside the boundary set - it degrades to its rendering.
	assert.Equal(t, String("None"), FromStarlark(starlark.None))

	dict := starlark.NewDict(1)
	require.NoError(t, dict.SetKey(starlark.String("k"), starlark.MakeInt(1)))
	got := FromStarlark(dict)
	assert.IsType(t, String(""), got)
}

func TestFromStarlark_HugeIntDegradesToFloat(t *testing.T) {
	huge := starlark.MakeInt64(1 << 62)
	huge = huge.Mul(starlark.MakeInt(16)) // overflows int64
	got := FromStarlark(huge)
	assert.IsType(t, Float(0), got)
}

func TestToStarlark_RoundTrip(t *testing.T) {
	vals := []Value{
		Int(42),
		Float(1.5),
		Bool(false),
		String("name"),
		List{Int(1), List{Bool(true)}},
	}
	for _, v := range vals {
		assert.Equal(t, v, FromStarlark(ToStarlark(v)))
	}
}

func TestClone_ListsShareNoState(t *testing.T) {
	orig := List{Int(1), List{Int(2)}}
	cp := Clone(orig).(List)

	cp[0] = Int(99)
	cp[1].(List)[0] = Int(99)

	assert.Equal(t, List{Int(1), List{Int(2)}}, orig)
}

func TestRender(t *testing.T) {
	assert.Equal(t, "7", Render(Int(7)))
	assert.Equal(t, "2.5", Render(Float(2.5)))
	assert.Equal(t, "true", Render(Bool(true)))
	assert.Equal(t, "hp", Render(String("hp")))
	assert.Equal(t, "[1, [x]]", Render(List{Int(1), List{String("x")}}))
}

func TestMarshal(t *testing.T) {
	b, err := Marshal(List{Int(1), Float(2.5), Bool(true), String("x"), List{}})
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2.5, true, "x", []]`, string(b))
}
