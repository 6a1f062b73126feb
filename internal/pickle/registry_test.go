package pickle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

func TestTypeRegistry(t *testing.T) {
	r := NewTypeRegistry()
	require.NoError(t, r.Register("test.Point", pointCodec{}))
	assert.ErrorIs(t, r.Register("test.Point", pointCodec{}), merr.ErrParameterInvalid)
	assert.ErrorIs(t, r.Register("", pointCodec{}), merr.ErrParameterMissing)
	assert.ErrorIs(t, r.Register("test.Nil", nil), merr.ErrParameterMissing)
	assert.Panics(t, func() { r.MustRegister("test.Point", pointCodec{}) })

	require.NoError(t, r.Register("test.Alias", pointCodec{}))
	assert.Equal(t, []string{"test.Alias", "test.Point"}, r.Names())
}

func TestWrapResolve(t *testing.T) {
	r := NewTypeRegistry()
	r.MustRegister("test.Point", pointCodec{})

	v, err := r.Wrap("test.Point", point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, KindObject, v.Kind())

	obj, err := r.Resolve(v)
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 2}, obj)

	_, err = r.Wrap("test.Point", "not a point")
	assert.ErrorIs(t, err, merr.ErrPickleUnencodable)
	_, err = r.Wrap("test.Missing", point{})
	assert.ErrorIs(t, err, merr.ErrPickleUnencodable)

	_, err = r.Resolve(Int(1))
	assert.ErrorIs(t, err, merr.ErrPickleSchemaMismatch)
	_, err = r.Resolve(Object("test.Missing", nil))
	assert.ErrorIs(t, err, merr.ErrPickleSchemaMismatch)
	_, err = r.Resolve(Object("test.Point", make([]byte, 9)))
	assert.ErrorIs(t, err, merr.ErrPickleSchemaMismatch)
	_, err = r.Resolve(Object("test.Point", make([]byte, 3)))
	assert.ErrorIs(t, err, merr.ErrPickleTruncated)
}

func TestEncodeObject(t *testing.T) {
	r := NewTypeRegistry()
	r.MustRegister("test.Point", pointCodec{})

	v, err := r.Wrap("test.Point", point{X: 5, Y: 6})
	require.NoError(t, err)
	want, err := Marshal(Tuple(v), WithRegistry(r))
	require.NoError(t, err)

	got, _, err := Unmarshal(want, WithRegistry(r))
	require.NoError(t, err)
	items, ok := got.AsTuple()
	require.True(t, ok)
	obj, err := r.Resolve(items[0])
	require.NoError(t, err)
	assert.Equal(t, point{X: 5, Y: 6}, obj)

	unknown, _, err := Unmarshal(want, WithRegistry(NewTypeRegistry()))
	require.NoError(t, err, "unknown object payloads stay opaque on decode")
	assert.True(t, Equal(got, unknown))
}

func TestEncoderEncodeObject(t *testing.T) {
	r := NewTypeRegistry()
	r.MustRegister("test.Point", pointCodec{})

	v, err := r.Wrap("test.Point", point{X: 7, Y: 8})
	require.NoError(t, err)
	want, err := Marshal(v, WithRegistry(r))
	require.NoError(t, err)

	st := stream.NewWritable(0)
	enc := NewEncoder(st, WithRegistry(r))
	require.NoError(t, enc.EncodeObject("test.Point", point{X: 7, Y: 8}))
	require.NoError(t, enc.WriteSentinel())
	assert.Equal(t, want, st.Bytes())

	assert.ErrorIs(t, enc.EncodeObject("test.Missing", point{}), merr.ErrPickleUnencodable)
}
