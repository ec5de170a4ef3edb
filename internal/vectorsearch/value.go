package vectorsearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies which member of a Value is set
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a decoded provider payload: one of null, string, number, bool,
// list or struct. The zero Value is null. Accessors never fail; asking a
// value for something it does not hold yields null or the empty string.
type Value struct {
	kind    Kind
	str     string
	num     float64
	boolean bool
	list    []Value
	fields  map[string]Value
}

// Null returns the null value
func Null() Value {
	return Value{}
}

// String returns a string value
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number returns a number value
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool returns a boolean value
func Bool(b bool) Value {
	return Value{kind: KindBool, boolean: b}
}

// List returns a list value
func List(items ...Value) Value {
	return Value{kind: KindList, list: items}
}

// Struct returns a struct value
func Struct(fields map[string]Value) Value {
	return Value{kind: KindStruct, fields: fields}
}

// ParseValue decodes raw JSON. Empty input decodes to null.
func ParseValue(data []byte) (Value, error) {
	var v Value
	if len(bytes.TrimSpace(data)) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, err
	}
	return v, nil
}

// UnmarshalJSON decodes any JSON document, recursing into arrays and objects
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case 'n':
		*v = Value{}
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]Value, len(raw))
		for i, r := range raw {
			if err := items[i].UnmarshalJSON(r); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		*v = List(items...)
		return nil
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		fields := make(map[string]Value, len(raw))
		for name, r := range raw {
			var item Value
			if err := item.UnmarshalJSON(r); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			fields[name] = item
		}
		*v = Struct(fields)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Number(n)
		return nil
	}
}

// MarshalJSON encodes the value back to JSON
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.boolean)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindStruct:
		if v.fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.fields)
	default:
		return []byte("null"), nil
	}
}

// Kind reports which member is set
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is null
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Field returns the named struct member, or null
func (v Value) Field(name string) Value {
	if v.kind != KindStruct {
		return Value{}
	}
	return v.fields[name]
}

// Path follows nested struct members
func (v Value) Path(names ...string) Value {
	for _, name := range names {
		v = v.Field(name)
	}
	return v
}

// Index returns the i-th list element, or null
func (v Value) Index(i int) Value {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Value{}
	}
	return v.list[i]
}

// Len returns the number of list elements or struct members
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindStruct:
		return len(v.fields)
	default:
		return 0
	}
}

// Items returns the list elements; nil for non-lists
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// Keys returns struct member names in sorted order
func (v Value) Keys() []string {
	if v.kind != KindStruct {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Text renders scalars as text. Null, lists and structs render as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.boolean)
	default:
		return ""
	}
}

// Float returns the number, or false when v is not a number
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Truth returns the boolean, or false when v is not a bool
func (v Value) Truth() (bool, bool) {
	return v.boolean, v.kind == KindBool
}
