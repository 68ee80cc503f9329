package graphmodel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeValue_JSONRoundTrip(t *testing.T) {
	cases := map[string]AttributeValue{
		"string":  StringValue("hello"),
		"integer": IntValue(42),
		"float":   FloatValue(3.5),
		"boolean": BoolValue(true),
		"null":    NullValue(),
		"list":    ListValue([]AttributeValue{IntValue(1), StringValue("two")}),
		"map":     MapValue(map[string]AttributeValue{"k": StringValue("v")}),
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(v)
			require.NoError(t, err)
			var out AttributeValue
			require.NoError(t, json.Unmarshal(data, &out))
			assert.True(t, v.Equal(out), "round trip mismatch for %s", name)
		})
	}
}

func TestAttributeValue_IntegerNotFloatAfterRoundTrip(t *testing.T) {
	data, err := json.Marshal(IntValue(7))
	require.NoError(t, err)
	var out AttributeValue
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, AttrInteger, out.Kind())
	i, ok := out.IntVal()
	require.True(t, ok)
	assert.Equal(t, int64(7), i)
}

func TestAttributeValue_Accessors(t *testing.T) {
	s, ok := StringValue("x").StringVal()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = StringValue("x").IntVal()
	assert.False(t, ok)
}

func TestFromGoValue(t *testing.T) {
	assert.Equal(t, AttrString, FromGoValue("a").Kind())
	assert.Equal(t, AttrInteger, FromGoValue(3).Kind())
	assert.Equal(t, AttrFloat, FromGoValue(3.14).Kind())
	assert.Equal(t, AttrBoolean, FromGoValue(true).Kind())
	assert.Equal(t, AttrNull, FromGoValue(nil).Kind())
}
