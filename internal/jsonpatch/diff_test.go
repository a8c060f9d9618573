package jsonpatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	BirthDate *string           `json:"birthDate"`
	Earnings  map[string]int    `json:"earnings"`
	Tags      []string          `json:"tags"`
	Extra     map[string]string `json:"extra,omitempty"`
}

func TestBetweenStructs(t *testing.T) {
	birth := "1960-01-01"
	a := doc{Earnings: map[string]int{"1985": 1}, Tags: []string{"a", "b"}}
	b := doc{BirthDate: &birth, Earnings: map[string]int{"1985": 2, "1986": 3}, Tags: []string{"a"}}

	fwd, bwd, err := Between(a, b)
	require.NoError(t, err)

	assert.Equal(t, []Op{
		{"op": "replace", "path": "/birthDate", "value": "1960-01-01"},
		{"op": "replace", "path": "/earnings/1985", "value": float64(2)},
		{"op": "add", "path": "/earnings/1986", "value": float64(3)},
		{"op": "remove", "path": "/tags/1"},
	}, fwd)
	assert.Equal(t, []Op{
		{"op": "replace", "path": "/birthDate", "value": nil},
		{"op": "replace", "path": "/earnings/1985", "value": float64(1)},
		{"op": "remove", "path": "/earnings/1986"},
		{"op": "add", "path": "/tags/1", "value": "b"},
	}, bwd)

	assert.Equal(t, []string{"birthDate", "earnings", "tags"}, TopLevelKeys(fwd))
}

func TestBetweenIdentical(t *testing.T) {
	a := doc{Earnings: map[string]int{"1985": 1}}
	fwd, bwd, err := Between(a, a)
	require.NoError(t, err)
	assert.Empty(t, fwd)
	assert.Empty(t, bwd)
}

func TestDiffTypeChange(t *testing.T) {
	a := map[string]any{"v": map[string]any{"x": 1.0}}
	b := map[string]any{"v": "flat"}

	assert.Equal(t, []Op{{"op": "replace", "path": "/v", "value": "flat"}}, Diff(a, b, ""))
}

func TestEscapedKeys(t *testing.T) {
	a := map[string]any{}
	b := map[string]any{"a/b~c": true}

	ops := Diff(a, b, "")
	require.Len(t, ops, 1)
	assert.Equal(t, "/a~1b~0c", ops[0]["path"])
	assert.Equal(t, []string{"a/b~c"}, TopLevelKeys(ops))
}
