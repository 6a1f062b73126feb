package pickle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"none", None(), None(), true},
		{"kind differs", Int(1), Float(1), false},
		{"nan bitwise", Float(math.NaN()), Float(math.NaN()), true},
		{"signed zero", Float(0), Float(math.Copysign(0, -1)), false},
		{"tuple", Tuple(Int(1), String("a")), Tuple(Int(1), String("a")), true},
		{"tuple length", Tuple(Int(1)), Tuple(Int(1), Int(2)), false},
		{"mapping order", Mapping(KV(Int(1), None()), KV(Int(2), None())), Mapping(KV(Int(2), None()), KV(Int(1), None())), false},
		{"object payload", Object("a", []byte{1}), Object("a", []byte{2}), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Equal(c.a, c.b))
		})
	}
}

func TestAccessors(t *testing.T) {
	_, ok := String("x").AsInt()
	assert.False(t, ok)

	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	f, ok := Float(1.5).AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	m := Mapping(KV(String("w"), Int(300)), KV(Int(1), String("one")))
	v, ok := m.Get(String("w"))
	assert.True(t, ok)
	assert.True(t, Equal(Int(300), v))
	_, ok = m.Get(String("h"))
	assert.False(t, ok)
	_, ok = Tuple().Get(None())
	assert.False(t, ok)

	name, payload, ok := Object("pf.Window", []byte{9}).AsObject()
	assert.True(t, ok)
	assert.Equal(t, "pf.Window", name)
	assert.Equal(t, []byte{9}, payload)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 0, Int(5).Len())
	assert.Equal(t, KindInvalid, Value{}.Kind())
	assert.Equal(t, "mapping", KindMapping.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestNarrowInt(t *testing.T) {
	v, ok := NarrowInt[int32](math.MaxInt32)
	assert.True(t, ok)
	assert.EqualValues(t, math.MaxInt32, v)

	_, ok = NarrowInt[int32](math.MaxInt32 + 1)
	assert.False(t, ok)
	_, ok = NarrowInt[int32](math.MinInt32 - 1)
	assert.False(t, ok)
	_, ok = NarrowInt[uint64](-1)
	assert.False(t, ok)
	_, ok = NarrowInt[uint8](-1)
	assert.False(t, ok)
}

func TestIntTuple(t *testing.T) {
	v := IntTuple[int32](1920, 1080)
	got, ok := ToIntTuple[int32](v, 2)
	assert.True(t, ok)
	assert.Equal(t, []int32{1920, 1080}, got)

	_, ok = ToIntTuple[int32](v, 4)
	assert.False(t, ok)
	_, ok = ToIntTuple[int32](Tuple(Int(1), String("2")), 2)
	assert.False(t, ok)
	_, ok = ToIntTuple[int32](Tuple(Int(1<<40)), 1)
	assert.False(t, ok)
	_, ok = ToIntTuple[int32](Int(1), 1)
	assert.False(t, ok)
}

func TestInterface(t *testing.T) {
	v := Mapping(
		KV(String("name"), String("hud")),
		KV(String("rect"), IntTuple[int32](10, 20)),
		KV(String("visible"), Bool(false)),
		KV(String("scale"), Float(0.5)),
		KV(String("parent"), None()),
	)
	assert.Equal(t, map[string]any{
		"name":    "hud",
		"rect":    []any{int64(10), int64(20)},
		"visible": false,
		"scale":   0.5,
		"parent":  nil,
	}, v.Interface())

	mixed := Mapping(KV(Int(1), String("one")))
	assert.Equal(t, []any{[]any{int64(1), "one"}}, mixed.Interface())

	assert.Equal(t, map[string]any{"type": "pf.Window", "payload": []byte{1, 2}},
		Object("pf.Window", []byte{1, 2}).Interface())
}

func TestString(t *testing.T) {
	v := Tuple(String("hud"), Tuple(Int(1)), Mapping(KV(None(), Bool(true))), Float(0.5))
	assert.Equal(t, `("hud", (1,), {None: True}, 0.5)`, v.String())
	assert.Equal(t, "<pf.Window object, 3 bytes>", Object("pf.Window", []byte{1, 2, 3}).String())
	assert.Equal(t, "<invalid>", Value{}.String())
}
