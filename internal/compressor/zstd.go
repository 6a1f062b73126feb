package compressor

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/hardware"
)

// ZstdCompressor 基于 klauspost/compress/zstd，持有各自独立的 encoder/decoder。
// Decompress 的结果不超过 stream.MaxSize，需要更小上限时使用 DecompressBounded。
type ZstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var (
	_ Compressor          = (*ZstdCompressor)(nil)
	_ BoundedDecompressor = (*ZstdCompressor)(nil)
)

// boundedMinMemory 是 DecompressBounded 给解码器的最小内存上限。
// 单段帧的窗口至少为 zstd.MinWindowSize，上限过小会拒绝合法输入。
const boundedMinMemory = 1 << 20

// NewZstdCompressor 使用主机 CPU 数作为并发度创建 ZstdCompressor。
func NewZstdCompressor() (*ZstdCompressor, error) {
	return NewZstdCompressorWithConcurrency(0)
}

// NewZstdCompressorWithConcurrency 创建 ZstdCompressor，concurrency <= 0 时使用 hardware.GetCPUNum()。
func NewZstdCompressorWithConcurrency(concurrency int) (*ZstdCompressor, error) {
	if concurrency <= 0 {
		concurrency = hardware.GetCPUNum()
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithZeroFrames(true),
		zstd.WithEncoderConcurrency(concurrency),
	)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(concurrency),
		zstd.WithDecoderMaxMemory(uint64(stream.MaxSize)),
	)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}
	return &ZstdCompressor{enc: enc, dec: dec}, nil
}

func (c *ZstdCompressor) Algorithm() Algorithm { return AlgorithmZstd }

func (c *ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	if c == nil || c.enc == nil {
		return nil, zstd.ErrEncoderClosed
	}
	return c.enc.EncodeAll(src, dst[:0]), nil
}

func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c == nil || c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	return c.dec.DecodeAll(src, dst[:0])
}

// DecompressBounded 以流式方式解码 src，输出超过 limit 字节即停止。
// 帧头声明的窗口或内容大小超过上限时，解码器在分配前就会拒绝。
func (c *ZstdCompressor) DecompressBounded(dst, src []byte, limit int) ([]byte, error) {
	if c == nil || c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	dec, err := zstd.NewReader(bytes.NewReader(src),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxMemory(uint64(max(limit, boundedMinMemory))),
	)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	buf := bytes.NewBuffer(dst[:0])
	if _, err := buf.ReadFrom(io.LimitReader(dec, int64(limit)+1)); err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, errTooLarge(limit)
		}
		return nil, err
	}
	if buf.Len() > limit {
		return nil, errTooLarge(limit)
	}
	return buf.Bytes(), nil
}

// Close 释放 encoder/decoder，之后再使用会返回 ErrEncoderClosed/ErrDecoderClosed。
func (c *ZstdCompressor) Close() {
	if c == nil {
		return
	}
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}
