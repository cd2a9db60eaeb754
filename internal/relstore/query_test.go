package relstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radioepoka/showcaster/internal/apperr"
)

func TestStringFilterScalarShorthand(t *testing.T) {
	var f StringFilter
	require.NoError(t, json.Unmarshal([]byte(`"live"`), &f))
	require.NotNil(t, f.Equals)
	require.Equal(t, "live", *f.Equals)
}

func TestStringFilterOperators(t *testing.T) {
	var f StringFilter
	err := json.Unmarshal([]byte(`{"in":["a","b"],"contains":"x"}`), &f)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, f.In)
	require.Equal(t, "x", *f.Contains)

	err = json.Unmarshal([]byte(`{"gte":"a"}`), &f)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestEventWhereTree(t *testing.T) {
	var w EventWhere
	err := json.Unmarshal([]byte(`{
		"AND": [
			{"showId": "abc"},
			{"OR": [{"type": "live"}, {"type": "replay"}]}
		]
	}`), &w)
	require.NoError(t, err)
	require.Len(t, w.And, 2)
	require.Equal(t, "abc", *w.And[0].ShowID.Equals)
	require.Len(t, w.And[1].Or, 2)
}

func TestEventWhereSingleObjectBranch(t *testing.T) {
	var w EventWhere
	require.NoError(t, json.Unmarshal([]byte(`{"NOT": {"type": "live"}}`), &w))
	require.Len(t, w.Not, 1)
}

func TestEventWhereRejectsTemporalFields(t *testing.T) {
	for _, field := range []string{"start", "end", "timezone", "recurrence"} {
		var w EventWhere
		err := json.Unmarshal([]byte(`{"`+field+`": "x"}`), &w)
		require.Equal(t, apperr.KindValidation, apperr.KindOf(err), field)
	}
}

func TestShowWhereUnknownField(t *testing.T) {
	var w ShowWhere
	err := json.Unmarshal([]byte(`{"rating": 5}`), &w)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestParseOrder(t *testing.T) {
	orders, err := ParseOrder([]byte(`[{"title": "asc"}, {"id": "DESC"}]`))
	require.NoError(t, err)
	require.Equal(t, []Order{{Field: "title", Direction: "asc"}, {Field: "id", Direction: "desc"}}, orders)

	orders, err = ParseOrder([]byte(`{"start": "asc"}`))
	require.NoError(t, err)
	require.Equal(t, []Order{{Field: "start", Direction: "asc"}}, orders)

	_, err = ParseOrder([]byte(`{"title": "sideways"}`))
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = ParseOrder([]byte(`{"title": "asc", "id": "asc"}`))
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
