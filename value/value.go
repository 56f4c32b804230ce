// Package value provides the generic JSON tree the processor consumes and
// produces.
//
// Values form a closed tagged union over the six JSON shapes. Consumers are
// expected to switch on [Value.Kind] and handle every variant. Object entries
// remember insertion order, because compacted document output depends on it.
// Numbers keep their original JSON text so that integer and floating point
// representations survive a round-trip unchanged.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"math"
	"slices"
	"strconv"
)

// Kind discriminates the variants of a [Value].
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ArrayKind
	ObjectKind
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	default:
		return "<invalid kind>"
	}
}

// Value is a single node in a JSON document tree.
type Value struct {
	kind  Kind
	b     bool
	num   string
	str   string
	items []*Value
	obj   *Object
}

// Null returns the JSON null value.
func Null() *Value {
	return &Value{kind: NullKind}
}

// NewBool returns a boolean value.
func NewBool(b bool) *Value {
	return &Value{kind: BoolKind, b: b}
}

// NewString returns a string value.
func NewString(s string) *Value {
	return &Value{kind: StringKind, str: s}
}

// NewNumber returns a number value carrying lit verbatim.
//
// lit must be a valid JSON number literal.
func NewNumber(lit string) *Value {
	return &Value{kind: NumberKind, num: lit}
}

// NewInt returns a number value for i.
func NewInt(i int64) *Value {
	return NewNumber(strconv.FormatInt(i, 10))
}

// NewFloat returns a number value for f.
func NewFloat(f float64) *Value {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		// matches encoding/json's shortest form for integral floats
		return NewNumber(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return NewNumber(strconv.FormatFloat(f, 'g', -1, 64))
}

// NewArray returns an array value holding items.
func NewArray(items ...*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{kind: ArrayKind, items: items}
}

// NewObject returns an empty object value.
func NewObject() *Value {
	return &Value{kind: ObjectKind, obj: newObject()}
}

// Kind reports which variant this value is. A nil value reports NullKind.
func (v *Value) Kind() Kind {
	if v == nil {
		return NullKind
	}
	return v.kind
}

// IsNull reports whether the value is JSON null. A nil *Value counts as null.
func (v *Value) IsNull() bool {
	return v == nil || v.kind == NullKind
}

// IsScalar reports whether the value is a boolean, number or string.
func (v *Value) IsScalar() bool {
	if v == nil {
		return false
	}
	switch v.kind {
	case BoolKind, NumberKind, StringKind:
		return true
	default:
		return false
	}
}

// Bool returns the boolean payload.
func (v *Value) Bool() (bool, bool) {
	if v == nil || v.kind != BoolKind {
		return false, false
	}
	return v.b, true
}

// Str returns the string payload.
func (v *Value) Str() (string, bool) {
	if v == nil || v.kind != StringKind {
		return "", false
	}
	return v.str, true
}

// NumberLiteral returns the verbatim JSON number text.
func (v *Value) NumberLiteral() (string, bool) {
	if v == nil || v.kind != NumberKind {
		return "", false
	}
	return v.num, true
}

// Int64 returns the number as an int64 if it is integral and in range.
func (v *Value) Int64() (int64, bool) {
	lit, ok := v.NumberLiteral()
	if !ok {
		return 0, false
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Float64 returns the number as a float64.
func (v *Value) Float64() (float64, bool) {
	lit, ok := v.NumberLiteral()
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Items returns the array elements, or nil when the value is not an array.
func (v *Value) Items() []*Value {
	if v == nil || v.kind != ArrayKind {
		return nil
	}
	return v.items
}

// Append adds items to an array value.
func (v *Value) Append(items ...*Value) {
	if v.kind != ArrayKind {
		panic("value: Append on non-array")
	}
	v.items = append(v.items, items...)
}

// Obj returns the object mapping, or nil when the value is not an object.
func (v *Value) Obj() *Object {
	if v == nil || v.kind != ObjectKind {
		return nil
	}
	return v.obj
}

// AsArray returns the elements when the value is an array, and a singleton
// slice otherwise. A nil or null value yields an empty slice.
func (v *Value) AsArray() []*Value {
	if v == nil {
		return nil
	}
	if v.kind == ArrayKind {
		return v.items
	}
	return []*Value{v}
}

// Equal reports deep structural equality. Object entry order is ignored,
// array order is significant. Numbers compare by literal first, then
// numerically.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v.IsNull() && o.IsNull()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case NullKind:
		return true
	case BoolKind:
		return v.b == o.b
	case StringKind:
		return v.str == o.str
	case NumberKind:
		if v.num == o.num {
			return true
		}
		a, aok := v.Float64()
		b, bok := o.Float64()
		return aok && bok && a == b
	case ArrayKind:
		return slices.EqualFunc(v.items, o.items, func(a, b *Value) bool {
			return a.Equal(b)
		})
	case ObjectKind:
		if v.obj.Len() != o.obj.Len() {
			return false
		}
		for k, av := range v.obj.Entries() {
			bv, ok := o.obj.Get(k)
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of the value.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	switch v.kind {
	case ArrayKind:
		items := make([]*Value, len(v.items))
		for i, item := range v.items {
			items[i] = item.Clone()
		}
		return &Value{kind: ArrayKind, items: items}
	case ObjectKind:
		obj := newObject()
		for k, item := range v.obj.Entries() {
			obj.Set(k, item.Clone())
		}
		return &Value{kind: ObjectKind, obj: obj}
	default:
		c := *v
		return &c
	}
}

// Object is a string-keyed mapping that preserves insertion order.
type Object struct {
	keys []string
	vals map[string]*Value
}

func newObject() *Object {
	return &Object{vals: make(map[string]*Value, 8)}
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o.vals[key]
	return ok
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (*Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Set stores val under key, appending the key when it is new.
func (o *Object) Set(key string, val *Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = val
}

// Delete removes key, keeping the relative order of the remaining entries.
func (o *Object) Delete(key string) {
	if o == nil {
		return
	}
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order. The slice is a copy.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// Entries iterates over entries in insertion order.
func (o *Object) Entries() iter.Seq2[string, *Value] {
	return func(yield func(string, *Value) bool) {
		if o == nil {
			return
		}
		for _, k := range o.keys {
			if !yield(k, o.vals[k]) {
				return
			}
		}
	}
}

// Parse decodes a JSON document into a value tree.
//
// Trailing non-whitespace input after the first value is an error.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("value: trailing data after JSON document")
	}

	return v, nil
}

// MustParse is Parse for static documents, panicking on error.
func MustParse(data string) *Value {
	v, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return v
}

func parseValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		return NewNumber(t.String()), nil
	case string:
		return NewString(t), nil
	case json.Delim:
		switch t {
		case '[':
			arr := NewArray()
			for dec.More() {
				item, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Append(item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key := keyTok.(string)
				item, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				obj.obj.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("value: unexpected token %v", tok)
}

// MarshalJSON encodes the tree, emitting object entries in insertion order.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) encode(buf *bytes.Buffer) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	switch v.kind {
	case NullKind:
		buf.WriteString("null")
	case BoolKind:
		buf.WriteString(strconv.FormatBool(v.b))
	case NumberKind:
		buf.WriteString(v.num)
	case StringKind:
		data, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(data)
	case ArrayKind:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case ObjectKind:
		buf.WriteByte('{')
		for i, key := range v.obj.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(data)
			buf.WriteByte(':')
			if err := v.obj.vals[key].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("value: cannot encode kind %s", v.kind)
	}
	return nil
}

// String returns the compact JSON encoding, for logs and test failures.
func (v *Value) String() string {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return "<invalid value>"
	}
	return buf.String()
}
