package pickle

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/exp/constraints"
)

// Kind 表示 Value 的具体类型。
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNone
	KindBool
	KindInt
	KindFloat
	KindString
	KindTuple
	KindMapping
	KindObject
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindNone:    "none",
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat:   "float",
	KindString:  "string",
	KindTuple:   "tuple",
	KindMapping: "mapping",
	KindObject:  "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Pair 是 Mapping 中的一组键值。
type Pair struct {
	Key   Value
	Value Value
}

// KV 构造一个 Pair。
func KV(key, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// Value 是可被 pickle 的动态类型值，是一个封闭的和类型。
//
// 零值的 Kind 为 KindInvalid，编码时会返回 ErrPickleUnencodable。
// Value 按值传递，Tuple/Mapping 的子元素由调用方保证构造后不再修改。
type Value struct {
	kind    Kind
	b       bool
	i       int64
	f       float64
	s       string // String 的内容，或 Object 的类型名
	items   []Value
	pairs   []Pair
	payload []byte
}

func None() Value { return Value{kind: KindNone} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// Tuple 构造一个有序序列。
func Tuple(items ...Value) Value {
	return Value{kind: KindTuple, items: items}
}

// Mapping 构造一个保持插入顺序的映射，键可以是任意 Value。
func Mapping(pairs ...Pair) Value {
	return Value{kind: KindMapping, pairs: pairs}
}

// Object 构造一个已注册对象类型的值，payload 为该类型自描述的原始字节。
func Object(typeName string, payload []byte) Value {
	return Value{kind: KindObject, s: typeName, payload: payload}
}

// IntTuple 把一组整数构造成由 Int 组成的 Tuple。
func IntTuple[T constraints.Integer](xs ...T) Value {
	return Tuple(lo.Map(xs, func(x T, _ int) Value {
		return Int(int64(x))
	})...)
}

// NarrowInt 把 int64 收窄为 T，超出 T 的取值范围时返回 false。
func NarrowInt[T constraints.Integer](x int64) (T, bool) {
	t := T(x)
	if int64(t) != x {
		return 0, false
	}
	if x < 0 && t > 0 {
		// uint64 等无符号类型在回转后可能与 x 相等
		return 0, false
	}
	return t, true
}

// ToIntTuple 要求 v 为长度 n 的 Tuple 且每个元素都是可收窄为 T 的 Int。
func ToIntTuple[T constraints.Integer](v Value, n int) ([]T, bool) {
	items, ok := v.AsTuple()
	if !ok || len(items) != n {
		return nil, false
	}
	out := make([]T, 0, n)
	for _, item := range items {
		i, ok := item.AsInt()
		if !ok {
			return nil, false
		}
		t, ok := NarrowInt[T](i)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsTuple() ([]Value, bool) {
	if v.kind != KindTuple {
		return nil, false
	}
	return v.items, true
}

func (v Value) AsMapping() ([]Pair, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	return v.pairs, true
}

// AsObject 返回对象的类型名与原始 payload。
func (v Value) AsObject() (string, []byte, bool) {
	if v.kind != KindObject {
		return "", nil, false
	}
	return v.s, v.payload, true
}

// Get 在 Mapping 中按键查找值，键使用 Equal 比较。
func (v Value) Get(key Value) (Value, bool) {
	pair, ok := lo.Find(v.pairs, func(p Pair) bool {
		return Equal(p.Key, key)
	})
	if v.kind != KindMapping || !ok {
		return Value{}, false
	}
	return pair.Value, true
}

// Len 返回 String/Tuple/Mapping/Object 的长度，其余类型返回 0。
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len(v.s)
	case KindTuple:
		return len(v.items)
	case KindMapping:
		return len(v.pairs)
	case KindObject:
		return len(v.payload)
	default:
		return 0
	}
}

// Equal 深度比较两个值。浮点数按位比较，因此 NaN 与自身相等，+0 与 -0 不等。
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInvalid, KindNone:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return math.Float64bits(a.f) == math.Float64bits(b.f)
	case KindString:
		return a.s == b.s
	case KindTuple:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.pairs) != len(b.pairs) {
			return false
		}
		for i := range a.pairs {
			if !Equal(a.pairs[i].Key, b.pairs[i].Key) || !Equal(a.pairs[i].Value, b.pairs[i].Value) {
				return false
			}
		}
		return true
	case KindObject:
		return a.s == b.s && string(a.payload) == string(b.payload)
	default:
		return false
	}
}

// Interface 把 Value 转换为普通 Go 值，供 JSON/CBOR/protobuf 导出使用。
//
//   - None -> nil，Int -> int64，Float -> float64；
//   - Tuple -> []any；
//   - 键全部为 String 的 Mapping -> map[string]any，否则 -> [][2]any 形式的 []any；
//   - Object -> map[string]any{"type": 类型名, "payload": []byte}。
func (v Value) Interface() any {
	switch v.kind {
	case KindNone, KindInvalid:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindTuple:
		return lo.Map(v.items, func(item Value, _ int) any {
			return item.Interface()
		})
	case KindMapping:
		stringKeys := lo.EveryBy(v.pairs, func(p Pair) bool {
			return p.Key.kind == KindString
		})
		if stringKeys {
			m := make(map[string]any, len(v.pairs))
			for _, p := range v.pairs {
				m[p.Key.s] = p.Value.Interface()
			}
			return m
		}
		return lo.Map(v.pairs, func(p Pair, _ int) any {
			return []any{p.Key.Interface(), p.Value.Interface()}
		})
	case KindObject:
		return map[string]any{
			"type":    v.s,
			"payload": v.payload,
		}
	}
	return nil
}

// String 返回便于调试的文本表示。
func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	switch v.kind {
	case KindNone:
		sb.WriteString("None")
	case KindBool:
		if v.b {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindTuple:
		sb.WriteByte('(')
		for i, item := range v.items {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.format(sb)
		}
		if len(v.items) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	case KindMapping:
		sb.WriteByte('{')
		for i, p := range v.pairs {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.Key.format(sb)
			sb.WriteString(": ")
			p.Value.format(sb)
		}
		sb.WriteByte('}')
	case KindObject:
		fmt.Fprintf(sb, "<%s object, %d bytes>", v.s, len(v.payload))
	default:
		sb.WriteString("<invalid>")
	}
}
