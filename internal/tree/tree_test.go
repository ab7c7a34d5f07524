package tree_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"storycodex/internal/tree"
)

func mustJSON(t *testing.T, text string) tree.Value {
	t.Helper()
	v, err := tree.ParseJSON([]byte(text))
	require.NoError(t, err)
	return v
}

func TestMergeAbsentOverrideIsIdentity(t *testing.T) {
	def := mustJSON(t, `{"title":"Untitled","tone":["neutral"]}`)
	got := tree.Merge(def, tree.Null(), false)
	require.True(t, got.Equal(def))
}

func TestMergeRecursesMappingsAndReplacesSequences(t *testing.T) {
	def := mustJSON(t, `{"title":"Untitled","tone":["neutral","calm"],"constraints":{"must":["a"],"must_not":[]},"pov":"first"}`)
	override := mustJSON(t, `{"title":"Night Ferry","tone":["bleak"],"constraints":{"must":["b"]}}`)

	got := tree.Merge(def, override, true)

	want := mustJSON(t, `{"title":"Night Ferry","tone":["bleak"],"constraints":{"must":["b"],"must_not":[]},"pov":"first"}`)
	require.True(t, got.Equal(want), "got %s", mustCanonical(t, got))
}

func TestMergeScalarOverMappingReplaces(t *testing.T) {
	def := mustJSON(t, `{"target_length":{"unit":"words","value":1000}}`)
	override := mustJSON(t, `{"target_length":1500}`)
	got := tree.Merge(def, override, true)
	v, ok := got.Lookup("target_length")
	require.True(t, ok)
	n, ok := v.IntValue()
	require.True(t, ok)
	require.Equal(t, 1500, n)
}

func TestMergeIndependentOfOverrideKeyOrder(t *testing.T) {
	def := mustJSON(t, `{"a":{"x":1,"y":2},"b":3}`)
	first := tree.Merge(def, mustJSON(t, `{"b":4,"a":{"y":5}}`), true)
	second := tree.Merge(def, mustJSON(t, `{"a":{"y":5},"b":4}`), true)
	require.Equal(t, mustCanonical(t, first), mustCanonical(t, second))
}

func TestDiffKeysReportsDottedPaths(t *testing.T) {
	before := mustJSON(t, `{"title":"A","constraints":{"must":[],"must_not":[]},"pov":"first"}`)
	after := mustJSON(t, `{"title":"B","constraints":{"must":["x"],"must_not":[]},"pov":"first","extra":true}`)
	require.Equal(t, []string{"constraints.must", "extra", "title"}, tree.DiffKeys(before, after))
	require.Empty(t, tree.DiffKeys(before, before))
}

func TestParseYAMLMatchesJSON(t *testing.T) {
	fromYAML, err := tree.ParseYAML([]byte("title: Night Ferry\ntone:\n  - bleak\ntarget_length:\n  value: 1200\n"))
	require.NoError(t, err)
	fromJSON := mustJSON(t, `{"title":"Night Ferry","tone":["bleak"],"target_length":{"value":1200}}`)
	require.True(t, fromYAML.Equal(fromJSON))
}

func TestCanonicalSortsKeysAndKeepsNumbers(t *testing.T) {
	v := mustJSON(t, `{"b":1.50,"a":"<x>","c":[true,null]}`)
	require.Equal(t, `{"a":"<x>","b":1.50,"c":[true,null]}`, mustCanonical(t, v))

	pretty, err := tree.Pretty(v)
	require.NoError(t, err)
	require.Equal(t, "{\n  \"a\": \"<x>\",\n  \"b\": 1.50,\n  \"c\": [\n    true,\n    null\n  ]\n}\n", string(pretty))
}

func TestEstimateTokensRoundsUp(t *testing.T) {
	n, err := tree.EstimateTokens(tree.String("abc"))
	require.NoError(t, err)
	require.Equal(t, 2, n) // "abc" with quotes is 5 bytes
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	_, err := tree.ParseJSON([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)
}

func TestTruthyAndSet(t *testing.T) {
	require.False(t, tree.String("  ").Truthy())
	require.True(t, tree.String("x").Truthy())
	require.False(t, tree.Sequence().Truthy())
	v := tree.Null().Set("premise", tree.String("p"))
	got, ok := v.Lookup("premise")
	require.True(t, ok)
	require.Equal(t, "p", got.Text())
}

func TestDecodeIntoStruct(t *testing.T) {
	v := mustJSON(t, `{"title":"T","genre":["noir"]}`)
	var out struct {
		Title string   `json:"title"`
		Genre []string `json:"genre"`
	}
	require.NoError(t, v.Decode(&out))
	require.Equal(t, "T", out.Title)
	require.Equal(t, []string{"noir"}, out.Genre)
}

func mustCanonical(t *testing.T, v tree.Value) string {
	t.Helper()
	data, err := tree.Canonical(v)
	require.NoError(t, err)
	return string(data)
}
