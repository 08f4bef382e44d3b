package hoconparser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Value is a fully resolved configuration value: one of Null, Bool, Number,
// String, Array or *Object. Values are immutable once produced; merge
// operations build new trees.
type Value interface {
	value()
	// Render returns the value the way it stringifies inside a string
	// concatenation: primitives render with their source lexeme.
	Render() string
}

type Null struct{}

type Bool bool

type String string

// Number preserves the integer-vs-decimal distinction of the source: an
// integer literal that fits an int64 stays an int64; everything else is
// kept as an arbitrary-precision decimal. The source lexeme is retained for
// string concatenation.
type Number struct {
	lexeme string
	isInt  bool
	i      int64
	dec    decimal.Decimal
}

type Array []Value

// Object is an insertion-order preserving map from string keys to values.
type Object struct {
	keys   []string
	fields map[string]Value
}

func (Null) value()    {}
func (Bool) value()    {}
func (String) value()  {}
func (Number) value()  {}
func (Array) value()   {}
func (*Object) value() {}

func (Null) Render() string { return "null" }

func (b Bool) Render() string {
	if b {
		return "true"
	}
	return "false"
}

func (s String) Render() string { return string(s) }

func (n Number) Render() string { return n.lexeme }

// arrays and objects never stringify; the resolver rejects them in string
// concatenations before Render is reached
func (Array) Render() string   { return "" }
func (*Object) Render() string { return "" }

func IntNumber(i int64) Number {
	return Number{lexeme: strconv.FormatInt(i, 10), isInt: true, i: i}
}

func DecimalNumber(d decimal.Decimal) Number {
	return Number{lexeme: d.String(), dec: d}
}

// ParseNumber parses a JSON-syntax number lexeme. Integers that fit an
// int64 take the integer arm; fractional, exponential and oversized
// integers take the decimal arm.
func ParseNumber(lexeme string) (Number, error) {
	if i, err := strconv.ParseInt(lexeme, 10, 64); err == nil {
		return Number{lexeme: lexeme, isInt: true, i: i}, nil
	}
	d, err := decimal.NewFromString(lexeme)
	if err != nil {
		return Number{}, err
	}
	return Number{lexeme: lexeme, dec: d}, nil
}

func (n Number) IsInt() bool { return n.isInt }

func (n Number) Int64() int64 {
	if n.isInt {
		return n.i
	}
	return n.dec.IntPart()
}

func (n Number) Float64() float64 {
	if n.isInt {
		return float64(n.i)
	}
	f, _ := n.dec.Float64()
	return f
}

func (n Number) Decimal() decimal.Decimal {
	if n.isInt {
		return decimal.NewFromInt(n.i)
	}
	return n.dec
}

func (n Number) String() string { return n.lexeme }

func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// Set binds key to v. A key keeps the position of its first insertion.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.fields[key]
	return v, ok
}

func (o *Object) Keys() []string {
	return o.keys
}

func (o *Object) Len() int {
	return len(o.keys)
}

// MergeObjects merges b over a key-wise: keys present in both take b's value
// unless both sides are objects, which merge recursively. Key order follows
// first mention, a's keys first. Neither input is modified.
func MergeObjects(a, b *Object) *Object {
	result := NewObject()
	for _, k := range a.keys {
		result.Set(k, a.fields[k])
	}
	for _, k := range b.keys {
		bv := b.fields[k]
		if av, ok := result.Get(k); ok {
			if ao, aok := av.(*Object); aok {
				if bo, bok := bv.(*Object); bok {
					result.Set(k, MergeObjects(ao, bo))
					continue
				}
			}
		}
		result.Set(k, bv)
	}
	return result
}

// GetByPath walks the tree by segment. Object segments are keys; numeric
// segments against arrays index by position. Returns false when a segment
// is missing or traverses through a scalar.
func GetByPath(root Value, segments ...string) (Value, bool) {
	cur := root
	for _, seg := range segments {
		switch v := cur.(type) {
		case *Object:
			next, ok := v.Get(seg)
			if !ok {
				return nil, false
			}
			cur = next
		case Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// ToJSON converts a Value to the generic tree produced by encoding/json
// (nil, bool, string, json.Number, []any, map[string]any). Together with
// FromJSON it is bijective on the JSON-representable subset, up to the lost
// key ordering of Go maps.
func ToJSON(v Value) any {
	switch v := v.(type) {
	case Null:
		return nil
	case Bool:
		return bool(v)
	case String:
		return string(v)
	case Number:
		// the lexeme is JSON number syntax by construction
		return json.Number(v.lexeme)
	case Array:
		result := make([]any, len(v))
		for i, e := range v {
			result[i] = ToJSON(e)
		}
		return result
	case *Object:
		result := make(map[string]any, v.Len())
		for _, k := range v.keys {
			result[k] = ToJSON(v.fields[k])
		}
		return result
	default:
		panic(fmt.Sprintf("unhandled value type %T", v))
	}
}

// FromJSON converts a generic JSON tree back to a Value. Map keys come out
// sorted, since Go maps carry no order of their own.
func FromJSON(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case json.Number:
		return ParseNumber(string(v))
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return IntNumber(int64(v)), nil
		}
		return DecimalNumber(decimal.NewFromFloat(v)), nil
	case int:
		return IntNumber(int64(v)), nil
	case int64:
		return IntNumber(v), nil
	case []any:
		result := make(Array, len(v))
		for i, e := range v {
			ev, err := FromJSON(e)
			if err != nil {
				return nil, err
			}
			result[i] = ev
		}
		return result, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		result := NewObject()
		for _, k := range keys {
			kv, err := FromJSON(v[k])
			if err != nil {
				return nil, err
			}
			result.Set(k, kv)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value type %T", v)
	}
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.lexeme), nil
}

func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON emits keys in insertion order, which encoding/json cannot do
// for plain maps.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
