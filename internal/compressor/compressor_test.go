package compressor

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

func TestNopCompressor(t *testing.T) {
	var c Compressor = NopCompressor{}
	src := []byte("hud")
	out, err := c.Compress(nil, src)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	plain, err := c.Decompress(nil, out)
	require.NoError(t, err)
	assert.Equal(t, src, plain)
	assert.Equal(t, AlgorithmNone, c.Algorithm())
}

func TestZstdRoundTrip(t *testing.T) {
	c, err := NewZstdCompressorWithConcurrency(2)
	require.NoError(t, err)
	defer c.Close()

	src := bytes.Repeat([]byte("main_menu\x00"), 512)
	packet, err := c.Compress(nil, src)
	require.NoError(t, err)
	assert.Less(t, len(packet), len(src))

	plain, err := c.Decompress(make([]byte, 0, 16), packet)
	require.NoError(t, err)
	assert.Equal(t, src, plain)
}

func TestZstdEmptyInput(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	packet, err := c.Compress(nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, packet)

	plain, err := c.Decompress(nil, packet)
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestZstdClosed(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	c.Close()
	c.Close()

	_, err = c.Compress(nil, []byte("x"))
	assert.ErrorIs(t, err, zstd.ErrEncoderClosed)
	_, err = c.Decompress(nil, []byte("x"))
	assert.ErrorIs(t, err, zstd.ErrDecoderClosed)
}

func TestZstdCorruptInput(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Decompress(nil, []byte("not a zstd frame"))
	assert.Error(t, err)
}

func TestZstdDecompressBounded(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	// 4MiB 的零压缩后只有几百字节。
	packet, err := c.Compress(nil, make([]byte, 4<<20))
	require.NoError(t, err)
	assert.Less(t, len(packet), 64<<10)

	_, err = c.DecompressBounded(nil, packet, 64<<10)
	assert.ErrorIs(t, err, merr.ErrParameterTooLarge)

	// 无内容大小的流式帧只能靠输出计数截断。
	var framed bytes.Buffer
	w, err := zstd.NewWriter(&framed)
	require.NoError(t, err)
	_, err = w.Write(make([]byte, 4<<20))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, err = c.DecompressBounded(nil, framed.Bytes(), 64<<10)
	assert.ErrorIs(t, err, merr.ErrParameterTooLarge)

	src := bytes.Repeat([]byte("hud\x00"), 1024)
	packet, err = c.Compress(nil, src)
	require.NoError(t, err)
	plain, err := c.DecompressBounded(nil, packet, len(src))
	require.NoError(t, err)
	assert.Equal(t, src, plain)

	_, err = c.DecompressBounded(nil, packet, len(src)-1)
	assert.ErrorIs(t, err, merr.ErrParameterTooLarge)

	_, err = c.DecompressBounded(nil, []byte("not a zstd frame"), 1<<10)
	assert.Error(t, err)
}

func TestDecompressBoundedFallback(t *testing.T) {
	out, err := DecompressBounded(NopCompressor{}, nil, []byte("main_menu"), 9)
	require.NoError(t, err)
	assert.Equal(t, []byte("main_menu"), out)

	_, err = DecompressBounded(NopCompressor{}, nil, []byte("main_menu"), 8)
	assert.ErrorIs(t, err, merr.ErrParameterTooLarge)
}

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmNone, c.Algorithm())

	c, err = New(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmZstd, c.Algorithm())
	c.(*ZstdCompressor).Close()

	_, err = New("lz4")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = ForAlgorithm(Algorithm(7))
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	assert.Equal(t, "unknown", Algorithm(7).String())
}
