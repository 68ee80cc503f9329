package graphmodel

import (
	"encoding/json"
	"fmt"
)

// AttributeKind tags the concrete type held by an AttributeValue.
type AttributeKind int

const (
	AttrNull AttributeKind = iota
	AttrString
	AttrInteger
	AttrFloat
	AttrBoolean
	AttrList
	AttrMap
)

// AttributeValue is a tagged union over the JSON primitive domain plus lists
// and maps, with null as a distinct tag rather than an absent value. It
// mirrors the Rust `AttributeValue` untagged enum: marshaling emits the bare
// JSON value, and unmarshaling infers the tag from the JSON token seen.
type AttributeValue struct {
	kind AttributeKind
	str  string
	i    int64
	f    float64
	b    bool
	list []AttributeValue
	m    map[string]AttributeValue
}

func StringValue(s string) AttributeValue   { return AttributeValue{kind: AttrString, str: s} }
func IntValue(i int64) AttributeValue       { return AttributeValue{kind: AttrInteger, i: i} }
func FloatValue(f float64) AttributeValue   { return AttributeValue{kind: AttrFloat, f: f} }
func BoolValue(b bool) AttributeValue       { return AttributeValue{kind: AttrBoolean, b: b} }
func ListValue(v []AttributeValue) AttributeValue {
	return AttributeValue{kind: AttrList, list: v}
}
func MapValue(v map[string]AttributeValue) AttributeValue {
	return AttributeValue{kind: AttrMap, m: v}
}
func NullValue() AttributeValue { return AttributeValue{kind: AttrNull} }

// Kind reports which variant this value holds.
func (v AttributeValue) Kind() AttributeKind { return v.kind }

func (v AttributeValue) StringVal() (string, bool)              { return v.str, v.kind == AttrString }
func (v AttributeValue) IntVal() (int64, bool)                  { return v.i, v.kind == AttrInteger }
func (v AttributeValue) FloatVal() (float64, bool)               { return v.f, v.kind == AttrFloat }
func (v AttributeValue) BoolVal() (bool, bool)                  { return v.b, v.kind == AttrBoolean }
func (v AttributeValue) ListVal() ([]AttributeValue, bool)      { return v.list, v.kind == AttrList }
func (v AttributeValue) MapVal() (map[string]AttributeValue, bool) { return v.m, v.kind == AttrMap }

// Equal reports deep equality across variants.
func (v AttributeValue) Equal(other AttributeValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case AttrNull:
		return true
	case AttrString:
		return v.str == other.str
	case AttrInteger:
		return v.i == other.i
	case AttrFloat:
		return v.f == other.f
	case AttrBoolean:
		return v.b == other.b
	case AttrList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case AttrMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, val := range v.m {
			ov, ok := other.m[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case AttrNull:
		return []byte("null"), nil
	case AttrString:
		return json.Marshal(v.str)
	case AttrInteger:
		return json.Marshal(v.i)
	case AttrFloat:
		return json.Marshal(v.f)
	case AttrBoolean:
		return json.Marshal(v.b)
	case AttrList:
		return json.Marshal(v.list)
	case AttrMap:
		return json.Marshal(v.m)
	default:
		return nil, fmt.Errorf("graphmodel: unknown attribute kind %d", v.kind)
	}
}

func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = fromAny(raw)
	return nil
}

func fromAny(raw any) AttributeValue {
	switch t := raw.(type) {
	case nil:
		return NullValue()
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case float64:
		if t == float64(int64(t)) {
			return IntValue(int64(t))
		}
		return FloatValue(t)
	case []any:
		list := make([]AttributeValue, len(t))
		for i, e := range t {
			list[i] = fromAny(e)
		}
		return ListValue(list)
	case map[string]any:
		m := make(map[string]AttributeValue, len(t))
		for k, e := range t {
			m[k] = fromAny(e)
		}
		return MapValue(m)
	default:
		return NullValue()
	}
}

// FromGoValue coerces a primitive host value into an AttributeValue,
// the typed-coercion convenience spec.md §4.1 calls for.
func FromGoValue(v any) AttributeValue {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case float32:
		return FloatValue(float64(t))
	case float64:
		return FloatValue(t)
	case []AttributeValue:
		return ListValue(t)
	case map[string]AttributeValue:
		return MapValue(t)
	default:
		return StringValue(fmt.Sprintf("%v", t))
	}
}
