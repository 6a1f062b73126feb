// Package archive 把多个具名分段打包为一个自描述的存档，供嵌入更大的存档文件。
//
// 存档布局：
//
//	"PFUI" | pickled version + Sentinel | flags(1) | body length(u32 BE) | body
//
// body 由若干帧组成，每帧为 [u32 BE 长度][pickled 分段名 + Sentinel][分段数据]。
// flags 的最低位表示 body 是否经过 zstd 压缩，其余位必须为 0。
package archive

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/blang/semver/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/internal/compressor"
	"github.com/lk2023060901/danmu-garden-ui/internal/pickle"
	"github.com/lk2023060901/danmu-garden-ui/internal/pool/streampool"
	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
	"github.com/lk2023060901/danmu-garden-ui/pkg/log"
	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/typeutil"
)

// Magic 为存档开头的 4 字节标识。
const Magic = "PFUI"

const (
	flagCompressionMask byte = 0x01

	// 版本串记录的最大长度，超过即视为损坏。
	maxVersionLen = 64
)

// Version 为当前写出的存档格式版本；主版本号不同的存档无法读取。
var Version = semver.MustParse("1.0.0")

// Section 为存档中的一个具名分段。
type Section struct {
	Name string
	Data []byte
}

// Find 按名字查找分段。
func Find(sections []Section, name string) (Section, bool) {
	for _, sec := range sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return Section{}, false
}

// Encode 把 sections 按顺序写为一个存档。分段名必须非空且互不相同。
func Encode(w io.Writer, sections []Section, opts ...Option) error {
	o := NewOptions(opts...)
	n, err := encode(w, sections, &o)
	pickle.ObserveOp(metrics.OpArchiveEncode, n, err)
	if err != nil {
		log.Debug("encode archive failed", log.FieldOp(metrics.OpArchiveEncode), zap.Error(err))
		return err
	}
	metrics.ArchiveSections.Set(float64(len(sections)))
	return nil
}

// Marshal 把 sections 编码为一段独立的字节。
func Marshal(sections []Section, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, sections, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(w io.Writer, sections []Section, o *Options) (int, error) {
	names := typeutil.NewSet[string]()
	for _, sec := range sections {
		if sec.Name == "" {
			return 0, merr.WrapErrParameterMissing("section name")
		}
		if names.Contain(sec.Name) {
			return 0, merr.WrapErrParameterInvalidMsg("duplicate section %s", sec.Name)
		}
		names.Insert(sec.Name)
	}

	body := streampool.Get()
	defer streampool.Put(body)
	for _, sec := range sections {
		if err := writeFrame(body, sec, o); err != nil {
			return 0, err
		}
	}

	payload, algo, err := compress(body.Bytes(), o)
	if err != nil {
		return 0, errors.Wrap(err, "compress archive body")
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return 0, merr.WrapErrParameterTooLarge("archive body")
	}

	header := stream.NewWritable(32)
	if _, err := header.WriteString(Magic); err != nil {
		return 0, err
	}
	if _, err := pickle.Pickle(pickle.String(Version.String()), header, o.Pickle...); err != nil {
		return 0, err
	}
	if err := header.WriteByte(byte(algo) & flagCompressionMask); err != nil {
		return 0, err
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(payload)))
	if _, err := header.Write(length[:]); err != nil {
		return 0, err
	}

	hn, err := header.WriteTo(w)
	if err != nil {
		return int(hn), errors.Wrap(err, "write archive header")
	}
	bn, err := w.Write(payload)
	if err != nil {
		return int(hn) + bn, errors.Wrap(err, "write archive body")
	}
	return int(hn) + bn, nil
}

// compress 在存档体达到阈值且压缩确有收益时返回压缩结果，否则原样返回。
func compress(body []byte, o *Options) ([]byte, compressor.Algorithm, error) {
	c := o.Compressor
	if c.Algorithm() == compressor.AlgorithmNone || len(body) < o.MinCompressSize {
		return body, compressor.AlgorithmNone, nil
	}
	packet, err := c.Compress(nil, body)
	if err != nil {
		return nil, compressor.AlgorithmNone, err
	}
	if len(packet) >= len(body) {
		return body, compressor.AlgorithmNone, nil
	}
	return packet, c.Algorithm(), nil
}

// Decode 从 r 读取一个完整存档，r 中存档之后的内容不会被读取。
func Decode(r io.Reader, opts ...Option) ([]Section, error) {
	o := NewOptions(opts...)
	sections, n, err := decode(r, &o)
	pickle.ObserveOp(metrics.OpArchiveDecode, n, err)
	if err != nil {
		log.With(log.FieldModule("archive")).
			WithRateGroup("archive.decode", 1, 60).
			RatedWarn(1, "decode archive failed", zap.Error(err))
		return nil, err
	}
	metrics.ArchiveSections.Set(float64(len(sections)))
	return sections, nil
}

// Unmarshal 从 b 的开头解码一个存档。
func Unmarshal(b []byte, opts ...Option) ([]Section, error) {
	return Decode(bytes.NewReader(b), opts...)
}

func decode(r io.Reader, o *Options) ([]Section, int, error) {
	var magic [len(Magic)]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, 0, merr.Combine(err, merr.WrapErrArchiveCorrupted("truncated magic"))
	}
	if string(magic[:]) != Magic {
		return nil, 0, merr.WrapErrArchiveCorrupted("bad magic")
	}
	read := len(Magic)

	version, n, err := readVersion(r, o)
	read += n
	if err != nil {
		return nil, read, err
	}
	if version.Major != Version.Major {
		return nil, read, merr.WrapErrArchiveVersion(version.String(), Version.String())
	}

	var fixed [5]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, read, merr.Combine(err, merr.WrapErrArchiveCorrupted("truncated header"))
	}
	read += len(fixed)
	flags := fixed[0]
	if flags&^flagCompressionMask != 0 {
		return nil, read, merr.WrapErrArchiveCorrupted("unknown archive flags")
	}
	length := binary.BigEndian.Uint32(fixed[1:])
	if uint64(length) > uint64(o.MaxBodySize) {
		return nil, read, merr.WrapErrArchiveCorrupted("archive body exceeds max body size")
	}

	// 不按声明的长度预分配，避免损坏的长度字段触发大块分配。
	payload, err := io.ReadAll(io.LimitReader(r, int64(length)))
	read += len(payload)
	if err != nil {
		return nil, read, errors.Wrap(err, "read archive body")
	}
	if len(payload) != int(length) {
		return nil, read, merr.Combine(io.ErrUnexpectedEOF, merr.WrapErrArchiveCorrupted("truncated body"))
	}

	body, err := decompress(payload, compressor.Algorithm(flags&flagCompressionMask), o)
	if err != nil {
		return nil, read, merr.Combine(err, merr.WrapErrArchiveCorrupted("decompress archive body"))
	}

	var sections []Section
	names := typeutil.NewSet[string]()
	s := stream.NewReadable(body)
	for s.Len() > 0 {
		sec, err := readFrame(s, o)
		if err != nil {
			return nil, read, errors.Wrapf(err, "archive frame %d", len(sections))
		}
		if names.Contain(sec.Name) {
			return nil, read, merr.WrapErrArchiveCorrupted("duplicate section", sec.Name)
		}
		names.Insert(sec.Name)
		sections = append(sections, sec)
	}
	return sections, read, nil
}

// readVersion 读取带 Sentinel 的版本串记录：'S' + u32 长度 + 字节 + 0x00 + Sentinel。
func readVersion(r io.Reader, o *Options) (semver.Version, int, error) {
	var head [5]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return semver.Version{}, 0, merr.Combine(err, merr.WrapErrArchiveCorrupted("truncated version"))
	}
	if kind, _ := pickle.KindOfTag(head[0]); kind != pickle.KindString {
		return semver.Version{}, len(head), merr.WrapErrArchiveCorrupted("version is not a string record")
	}
	n := binary.LittleEndian.Uint32(head[1:])
	if n > maxVersionLen {
		return semver.Version{}, len(head), merr.WrapErrArchiveCorrupted("version string too long")
	}
	record := make([]byte, len(head)+int(n)+2)
	copy(record, head[:])
	if _, err := io.ReadFull(r, record[len(head):]); err != nil {
		return semver.Version{}, len(head), merr.Combine(err, merr.WrapErrArchiveCorrupted("truncated version"))
	}

	v, consumed, err := pickle.Unmarshal(record, o.Pickle...)
	if err != nil {
		return semver.Version{}, len(record), merr.Combine(err, merr.WrapErrArchiveCorrupted("bad version record"))
	}
	if consumed != len(record) {
		return semver.Version{}, len(record), merr.WrapErrArchiveCorrupted("version record length mismatch")
	}
	str, ok := v.AsString()
	if !ok {
		return semver.Version{}, len(record), merr.WrapErrArchiveCorrupted("version is not a string")
	}
	version, err := semver.Parse(str)
	if err != nil {
		return semver.Version{}, len(record), merr.Combine(err, merr.WrapErrArchiveCorrupted("bad version "+str))
	}
	return version, len(record), nil
}

type closer interface {
	Close()
}

func decompress(payload []byte, algo compressor.Algorithm, o *Options) ([]byte, error) {
	if algo == compressor.AlgorithmNone {
		return payload, nil
	}
	c := o.Compressor
	if c.Algorithm() != algo {
		var err error
		c, err = compressor.ForAlgorithm(algo)
		if err != nil {
			return nil, err
		}
		if cl, ok := c.(closer); ok {
			defer cl.Close()
		}
	}
	return compressor.DecompressBounded(c, nil, payload, o.MaxBodySize)
}
