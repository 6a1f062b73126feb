package compressor

import (
	"fmt"
	"strings"

	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

// Algorithm 标识存档体使用的压缩算法，取值即存档头 flags 中的压缩位。
type Algorithm uint8

const (
	AlgorithmNone Algorithm = 0
	AlgorithmZstd Algorithm = 1
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "none"
	case AlgorithmZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Compressor 抽象了对一整块内存的单次压缩/解压。
//
// 是否值得压缩由调用方决定，实现本身对任何长度的输入都照做。
type Compressor interface {
	Algorithm() Algorithm

	// Compress 将 src 压缩后追加到 dst[:0]，返回压缩结果。
	Compress(dst, src []byte) ([]byte, error)

	// Decompress 是 Compress 的逆操作，src 必须是同一算法的输出。
	Decompress(dst, src []byte) ([]byte, error)
}

// BoundedDecompressor 由能在解压过程中限制输出大小的压缩器实现，
// 输出超过 limit 字节时立即停止，不会先把完整结果放进内存。
type BoundedDecompressor interface {
	DecompressBounded(dst, src []byte, limit int) ([]byte, error)
}

// DecompressBounded 解压 src，结果超过 limit 字节时返回 ErrParameterTooLarge。
// c 未实现 BoundedDecompressor 时退化为解压后检查长度。
func DecompressBounded(c Compressor, dst, src []byte, limit int) ([]byte, error) {
	if bc, ok := c.(BoundedDecompressor); ok {
		return bc.DecompressBounded(dst, src, limit)
	}
	out, err := c.Decompress(dst, src)
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		return nil, errTooLarge(limit)
	}
	return out, nil
}

func errTooLarge(limit int) error {
	return merr.WrapErrParameterTooLarge("decompressed body", fmt.Sprintf("exceeds %d bytes", limit))
}

// NopCompressor 原样返回输入，用于关闭压缩。
type NopCompressor struct{}

var _ Compressor = NopCompressor{}

func (NopCompressor) Algorithm() Algorithm { return AlgorithmNone }

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

// New 按算法名创建压缩器，名字不区分大小写；空串等同 "none"。
func New(name string) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AlgorithmNone.String():
		return NopCompressor{}, nil
	case AlgorithmZstd.String():
		return NewZstdCompressor()
	default:
		return nil, merr.WrapErrParameterInvalid("none|zstd", name, "unknown compression algorithm")
	}
}

// ForAlgorithm 按存档头中记录的算法创建解压所需的压缩器。
func ForAlgorithm(a Algorithm) (Compressor, error) {
	switch a {
	case AlgorithmNone:
		return NopCompressor{}, nil
	case AlgorithmZstd:
		return NewZstdCompressor()
	default:
		return nil, merr.WrapErrParameterInvalidMsg("unknown compression algorithm %d", a)
	}
}
