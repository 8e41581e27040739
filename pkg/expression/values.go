package expression

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Value is anything an expression can evaluate to. String is the form
// written to template output and Truth is the template truthiness.
type Value interface {
	String() string
	Truth() bool
}

// NilValue is nil or null.
type NilValue struct{}

func (NilValue) String() string { return "" }
func (NilValue) Truth() bool    { return false }

// Undefined is the result of resolving a name or path that does not exist.
type Undefined struct {
	Name string
}

func (Undefined) String() string { return "" }
func (Undefined) Truth() bool    { return false }

// BoolValue wraps a boolean.
type BoolValue bool

func (b BoolValue) String() string { return strconv.FormatBool(bool(b)) }
func (b BoolValue) Truth() bool    { return bool(b) }

// IntValue wraps a 64 bit integer.
type IntValue int64

func (i IntValue) String() string { return strconv.FormatInt(int64(i), 10) }
func (IntValue) Truth() bool      { return true }

// FloatValue wraps a 64 bit float. Floats always print with a decimal point.
type FloatValue float64

func (f FloatValue) String() string { return formatFloat(float64(f)) }
func (FloatValue) Truth() bool      { return true }

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// StringValue wraps a string. Empty strings are truthy.
type StringValue string

func (s StringValue) String() string { return string(s) }
func (StringValue) Truth() bool      { return true }

// ListValue wraps a sequence. Lists render as the concatenation of their
// items.
type ListValue []Value

func (l ListValue) String() string {
	var b strings.Builder
	for _, v := range l {
		b.WriteString(v.String())
	}
	return b.String()
}
func (ListValue) Truth() bool { return true }

// DictValue wraps a string keyed mapping.
type DictValue map[string]Value

func (d DictValue) String() string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + d[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (DictValue) Truth() bool { return true }

// RangeValue is an inclusive integer range.
type RangeValue struct {
	Start, Stop int64
}

func (r RangeValue) String() string { return fmt.Sprintf("%d..%d", r.Start, r.Stop) }
func (RangeValue) Truth() bool      { return true }

// MaxRangeItems caps how many items a range may expand to. Larger ranges
// still compare, index and answer size, first and last.
const MaxRangeItems = 1 << 20

// ErrRangeTooLarge is returned when expanding a range over MaxRangeItems.
var ErrRangeTooLarge = errors.New("range too large")

// Len returns the number of integers in the range, saturating at
// math.MaxInt64.
func (r RangeValue) Len() int64 {
	if r.Stop < r.Start {
		return 0
	}
	d := uint64(r.Stop) - uint64(r.Start)
	if d >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(d) + 1
}

// At returns the item at index i. Negative indexes count from the end.
func (r RangeValue) At(i int64) (IntValue, bool) {
	n := r.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return IntValue(r.Start + i), true
}

// IndexOf returns the position of v in the range.
func (r RangeValue) IndexOf(v Value) (int64, bool) {
	var n int64
	switch t := v.(type) {
	case IntValue:
		n = int64(t)
	case FloatValue:
		if f := float64(t); f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			n = int64(f)
		} else {
			return 0, false
		}
	default:
		return 0, false
	}
	if n < r.Start || n > r.Stop {
		return 0, false
	}
	return n - r.Start, true
}

// Slice drops offset items and keeps at most limit of the rest. A negative
// limit keeps everything.
func (r RangeValue) Slice(offset, limit int64) RangeValue {
	n := r.Len()
	offset = max(0, min(offset, n))
	rest := n - offset
	if rest == 0 || limit == 0 {
		return RangeValue{Start: 1, Stop: 0}
	}
	start := r.Start + offset
	if limit < 0 || limit >= rest {
		return RangeValue{Start: start, Stop: r.Stop}
	}
	return RangeValue{Start: start, Stop: start + limit - 1}
}

// Items expands the range into a list.
func (r RangeValue) Items() (ListValue, error) {
	n := r.Len()
	if n > MaxRangeItems {
		return nil, fmt.Errorf("%w: %s has %d items, the limit is %d", ErrRangeTooLarge, r, n, MaxRangeItems)
	}
	out := make(ListValue, 0, n)
	for i := range n {
		out = append(out, IntValue(r.Start+i))
	}
	return out, nil
}

// EmptyValue is the empty keyword. It equals empty strings and collections.
type EmptyValue struct{}

func (EmptyValue) String() string { return "" }
func (EmptyValue) Truth() bool    { return true }

// BlankValue is the blank keyword. It equals everything empty plus nil,
// false and whitespace-only strings.
type BlankValue struct{}

func (BlankValue) String() string { return "" }
func (BlankValue) Truth() bool    { return true }

// Truthy is the template truthiness predicate.
func Truthy(v Value) bool {
	if v == nil {
		return false
	}
	return v.Truth()
}

// TypeName names the type of v in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, NilValue:
		return "nil"
	case Undefined:
		return "undefined"
	case BoolValue:
		return "bool"
	case IntValue:
		return "int"
	case FloatValue:
		return "float"
	case StringValue:
		return "string"
	case ListValue:
		return "array"
	case DictValue:
		return "hash"
	case RangeValue:
		return "range"
	case EmptyValue:
		return "empty"
	case BlankValue:
		return "blank"
	}
	return fmt.Sprintf("%T", v)
}

// FromGo converts a Go value to a Value.
func FromGo(v any) Value {
	if v == nil {
		return NilValue{}
	}
	switch t := v.(type) {
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int8:
		return IntValue(int64(t))
	case int16:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case uint:
		return IntValue(int64(t))
	case uint8:
		return IntValue(int64(t))
	case uint16:
		return IntValue(int64(t))
	case uint32:
		return IntValue(int64(t))
	case uint64:
		return IntValue(int64(t))
	case float32:
		return FloatValue(float64(t))
	case float64:
		return FloatValue(t)
	case []byte:
		return StringValue(string(t))
	case []any:
		out := make(ListValue, len(t))
		for i, it := range t {
			out[i] = FromGo(it)
		}
		return out
	case map[string]any:
		out := make(DictValue, len(t))
		for k, it := range t {
			out[k] = FromGo(it)
		}
		return out
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make(ListValue, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = FromGo(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(DictValue, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			out[fmt.Sprint(it.Key().Interface())] = FromGo(it.Value().Interface())
		}
		return out
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NilValue{}
		}
		return FromGo(rv.Elem().Interface())
	}
	return StringValue(fmt.Sprintf("%v", v))
}

// ToGo converts a Value back to plain Go data: nil, bool, int64, float64,
// string, []any and map[string]any.
func ToGo(v Value) any {
	switch t := v.(type) {
	case nil, NilValue, Undefined:
		return nil
	case BoolValue:
		return bool(t)
	case IntValue:
		return int64(t)
	case FloatValue:
		return float64(t)
	case StringValue:
		return string(t)
	case ListValue:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = ToGo(it)
		}
		return out
	case DictValue:
		out := make(map[string]any, len(t))
		for k, it := range t {
			out[k] = ToGo(it)
		}
		return out
	case RangeValue:
		// too large to expand
		items, err := t.Items()
		if err != nil {
			return t.String()
		}
		return ToGo(items)
	case EmptyValue, BlankValue:
		return ""
	}
	return v.String()
}

func number(v Value) (float64, bool) {
	switch t := v.(type) {
	case IntValue:
		return float64(t), true
	case FloatValue:
		return float64(t), true
	}
	return 0, false
}

func isEmpty(v Value) bool {
	switch t := v.(type) {
	case EmptyValue:
		return true
	case StringValue:
		return t == ""
	case ListValue:
		return len(t) == 0
	case DictValue:
		return len(t) == 0
	case RangeValue:
		return t.Len() == 0
	}
	return false
}

func isBlank(v Value) bool {
	switch t := v.(type) {
	case nil, NilValue, Undefined, BlankValue:
		return true
	case BoolValue:
		return !bool(t)
	case StringValue:
		return strings.TrimSpace(string(t)) == ""
	}
	return isEmpty(v)
}

func equalRangeList(r RangeValue, l ListValue) bool {
	if r.Len() != int64(len(l)) {
		return false
	}
	for i, v := range l {
		if !Equal(IntValue(r.Start+int64(i)), v) {
			return false
		}
	}
	return true
}

// Equal implements the == operator.
func Equal(a, b Value) bool {
	switch a.(type) {
	case EmptyValue:
		return isEmpty(b)
	case BlankValue:
		return isBlank(b)
	}
	switch b.(type) {
	case EmptyValue:
		return isEmpty(a)
	case BlankValue:
		return isBlank(a)
	}
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x == y
	}
	switch l := a.(type) {
	case nil, NilValue, Undefined:
		switch b.(type) {
		case nil, NilValue, Undefined:
			return true
		}
		return false
	case BoolValue:
		r, ok := b.(BoolValue)
		return ok && l == r
	case StringValue:
		r, ok := b.(StringValue)
		return ok && l == r
	case RangeValue:
		switch r := b.(type) {
		case RangeValue:
			return l == r || (l.Len() == 0 && r.Len() == 0)
		case ListValue:
			return equalRangeList(l, r)
		}
		return false
	case ListValue:
		r, ok := b.(ListValue)
		if !ok {
			if rv, isRange := b.(RangeValue); isRange {
				return equalRangeList(rv, l)
			}
			return false
		}
		if len(l) != len(r) {
			return false
		}
		for i := range l {
			if !Equal(l[i], r[i]) {
				return false
			}
		}
		return true
	case DictValue:
		r, ok := b.(DictValue)
		if !ok || len(l) != len(r) {
			return false
		}
		for k, lv := range l {
			rv, ok := r[k]
			if !ok || !Equal(lv, rv) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Compare implements the ordering operators. Only numbers with numbers and
// strings with strings are ordered; anything else is a TypeError.
func Compare(op string, a, b Value) (bool, error) {
	if x, ok := number(a); ok {
		y, ok := number(b)
		if !ok {
			return false, NewTypeError(op, b)
		}
		return ordered(op, x, y), nil
	}
	if x, ok := a.(StringValue); ok {
		y, ok := b.(StringValue)
		if !ok {
			return false, NewTypeError(op, b)
		}
		return ordered(op, x, y), nil
	}
	return false, NewTypeError(op, a)
}

func ordered[T float64 | StringValue](op string, x, y T) bool {
	switch op {
	case "<":
		return x < y
	case ">":
		return x > y
	case "<=":
		return x <= y
	case ">=":
		return x >= y
	}
	return false
}

// Contains implements the contains operator.
func Contains(container, item Value) bool {
	switch c := container.(type) {
	case StringValue:
		return strings.Contains(string(c), item.String())
	case ListValue:
		for _, v := range c {
			if Equal(v, item) {
				return true
			}
		}
	case DictValue:
		_, ok := c[item.String()]
		return ok
	case RangeValue:
		if n, ok := item.(IntValue); ok {
			return int64(n) >= c.Start && int64(n) <= c.Stop
		}
	}
	return false
}

// Path is a resolved variable path: a name followed by string keys and
// integer indexes.
type Path []Value

func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		switch s := seg.(type) {
		case IntValue:
			fmt.Fprintf(&b, "[%d]", s)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.String())
		}
	}
	return b.String()
}

// GetItem looks key up in obj. Lists, ranges and strings also answer the
// size, first and last properties. Missing items are Undefined.
func GetItem(obj Value, key Value) Value {
	name, isName := key.(StringValue)
	switch o := obj.(type) {
	case DictValue:
		if v, ok := o[key.String()]; ok {
			return v
		}
		if name == "size" {
			return IntValue(len(o))
		}
	case ListValue:
		if idx, ok := key.(IntValue); ok {
			i := int(idx)
			if i < 0 {
				i += len(o)
			}
			if i >= 0 && i < len(o) {
				return o[i]
			}
			return Undefined{Name: key.String()}
		}
		if isName {
			switch name {
			case "size":
				return IntValue(len(o))
			case "first":
				if len(o) > 0 {
					return o[0]
				}
			case "last":
				if len(o) > 0 {
					return o[len(o)-1]
				}
			}
		}
	case RangeValue:
		if idx, ok := key.(IntValue); ok {
			if v, ok := o.At(int64(idx)); ok {
				return v
			}
			return Undefined{Name: key.String()}
		}
		if isName {
			switch name {
			case "size":
				return IntValue(o.Len())
			case "first":
				return IntValue(o.Start)
			case "last":
				return IntValue(o.Stop)
			}
		}
	case StringValue:
		if isName && name == "size" {
			return IntValue(utf8.RuneCountInString(string(o)))
		}
	}
	return Undefined{Name: key.String()}
}
