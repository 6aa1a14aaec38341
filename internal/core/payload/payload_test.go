package payload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("relationship.type")
	require.NoError(t, err)
	require.Equal(t, Path{"relationship", "type"}, p)
	require.Equal(t, "relationship.type", p.String())

	for _, bad := range []string{"", "  ", "a..b", ".a", "a."} {
		_, err := ParsePath(bad)
		require.Error(t, err, bad)
	}
}

func TestGet(t *testing.T) {
	doc := map[string]interface{}{
		"photoId": "ph-1",
		"clonedFrom": map[string]interface{}{
			"photoId":  "ph-0",
			"familyId": "fam-0",
		},
	}

	v, ok := Get(doc, MustPath("clonedFrom.photoId"))
	require.True(t, ok)
	require.Equal(t, "ph-0", v)

	_, ok = Get(doc, MustPath("clonedFrom.threadId"))
	require.False(t, ok)

	_, ok = Get(doc, MustPath("photoId.nested"))
	require.False(t, ok)

	require.Equal(t, "fam-0", GetString(doc, MustPath("clonedFrom.familyId")))
	require.Equal(t, "", GetString(doc, MustPath("missing")))
}

func TestSet_PreservesSiblingsAndDoesNotAlias(t *testing.T) {
	doc := map[string]interface{}{
		"faceId": "f-1",
		"relationship": map[string]interface{}{
			"id":        "rel-1",
			"type":      "parent",
			"personIds": []interface{}{"p-2", "p-3"},
		},
	}

	out, err := Set(doc, MustPath("relationship.personIds"), []interface{}{"p-1", "p-3"})
	require.NoError(t, err)

	require.Equal(t, []interface{}{"p-1", "p-3"}, out["relationship"].(map[string]interface{})["personIds"])
	require.Equal(t, "parent", out["relationship"].(map[string]interface{})["type"])
	require.Equal(t, "f-1", out["faceId"])

	// the original is untouched
	require.Equal(t, []interface{}{"p-2", "p-3"}, doc["relationship"].(map[string]interface{})["personIds"])
}

func TestSet_RequiresExistingParents(t *testing.T) {
	out, err := Set(map[string]interface{}{"a": map[string]interface{}{}}, MustPath("a.b"), "x")
	require.NoError(t, err)
	require.Equal(t, "x", GetString(out, MustPath("a.b")))

	out, err = Set(nil, MustPath("top"), "x")
	require.NoError(t, err)
	require.Equal(t, "x", GetString(out, MustPath("top")))

	_, err = Set(map[string]interface{}{"a": map[string]interface{}{}}, MustPath("a.b.c"), "x")
	require.ErrorIs(t, err, ErrMissingParent)

	_, err = Set(nil, MustPath("a.b"), "x")
	require.ErrorIs(t, err, ErrMissingParent)

	_, err = Set(map[string]interface{}{"a": "scalar"}, MustPath("a.b"), "x")
	require.ErrorContains(t, err, "is not an object")
}

func TestEqual_NormalizesNumbers(t *testing.T) {
	require.True(t, Equal(3, float64(3)))
	require.True(t, Equal([]string{"a"}, []interface{}{"a"}))
	require.False(t, Equal("3", 3))
	require.True(t, Equal(map[string]interface{}{"k": 1}, map[string]interface{}{"k": 1.0}))
}

func TestFilter_Matches(t *testing.T) {
	doc := map[string]interface{}{
		"photoId": "ph-1",
		"relationship": map[string]interface{}{
			"type": "parent",
		},
		"count": float64(2),
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "nil filter matches", filter: nil, want: true},
		{name: "empty filter matches", filter: Filter{}, want: true},
		{name: "top-level equality", filter: Filter{"photoId": "ph-1"}, want: true},
		{name: "nested equality", filter: Filter{"relationship.type": "parent"}, want: true},
		{name: "all entries required", filter: Filter{"photoId": "ph-1", "relationship.type": "spouse"}, want: false},
		{name: "missing field", filter: Filter{"threadId": "t-1"}, want: false},
		{name: "int literal equals decoded number", filter: Filter{"count": 2}, want: true},
		{name: "type mismatch", filter: Filter{"count": "2"}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.filter.Matches(doc))
		})
	}
}

func TestFilter_ConditionsSorted(t *testing.T) {
	conds, err := Filter{"z": 1, "a.b": "x"}.Conditions()
	require.NoError(t, err)
	require.Len(t, conds, 2)
	require.Equal(t, Path{"a", "b"}, conds[0].Path)
	require.Equal(t, "x", conds[0].Value)
	require.Equal(t, float64(1), conds[1].Value)

	require.Error(t, Filter{"a..b": 1}.Validate())
}
