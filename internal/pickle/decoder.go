package pickle

import (
	"encoding/binary"
	"math"

	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
	"github.com/lk2023060901/danmu-garden-ui/pkg/log"
	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

// Decoder 从 Stream 的读游标处还原 Value。
//
// 解码得到的 Value 不引用输入字节，输入在解码结束后即可释放。
type Decoder struct {
	s     *stream.Stream
	opts  Options
	depth int
}

// NewDecoder 创建一个读取 s 的解码器。
func NewDecoder(s *stream.Stream, opts ...Option) *Decoder {
	return &Decoder{s: s, opts: NewOptions(opts...)}
}

// Decode 读取一条记录并还原为 Value，顶层记录之后的 Sentinel 留给调用方处理。
func (d *Decoder) Decode() (Value, error) {
	off := d.s.Tell()
	tag, err := d.s.ReadByte()
	if err != nil {
		return Value{}, merr.WrapErrPickleTruncated(off, err)
	}

	switch tag {
	case tagNone:
		return None(), nil
	case tagTrue:
		return Bool(true), nil
	case tagFalse:
		return Bool(false), nil
	case tagInt:
		u, err := d.readUint64()
		if err != nil {
			return Value{}, err
		}
		return Int(int64(u)), nil
	case tagFloat:
		u, err := d.readUint64()
		if err != nil {
			return Value{}, err
		}
		return Float(math.Float64frombits(u)), nil
	case tagString:
		s, err := d.readStringBody()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case tagTuple:
		n, err := d.readCount(KindTuple, 1)
		if err != nil {
			return Value{}, err
		}
		defer d.leave()
		items := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			item, err := d.Decode()
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Tuple(items...), nil
	case tagMapping:
		n, err := d.readCount(KindMapping, 2)
		if err != nil {
			return Value{}, err
		}
		defer d.leave()
		pairs := make([]Pair, 0, n)
		for i := 0; i < n; i++ {
			key, err := d.Decode()
			if err != nil {
				return Value{}, err
			}
			val, err := d.Decode()
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, KV(key, val))
		}
		return Mapping(pairs...), nil
	case tagObject:
		return d.readObject()
	default:
		return Value{}, merr.WrapErrPickleUnknownTag(tag, off)
	}
}

// ReadSentinel 读取顶层记录之后的分隔字节并校验其为 0x00。
func (d *Decoder) ReadSentinel() error {
	off := d.s.Tell()
	b, err := d.s.ReadByte()
	if err != nil {
		return merr.WrapErrPickleTruncated(off, err)
	}
	if b != Sentinel {
		return merr.WrapErrPickleUnknownTag(b, off)
	}
	return nil
}

func (d *Decoder) next(n int) ([]byte, error) {
	off := d.s.Tell()
	p, err := d.s.Next(n)
	if err != nil {
		return nil, merr.WrapErrPickleTruncated(off, err)
	}
	return p, nil
}

func (d *Decoder) readUint64() (uint64, error) {
	p, err := d.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

func (d *Decoder) readUint32() (uint32, error) {
	p, err := d.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

// readCount 读取容器元素个数。每个元素至少占 minBytes 字节，
// 剩余数据不足以容纳声明的元素时直接判定为截断，避免按损坏的计数分配内存。
func (d *Decoder) readCount(kind Kind, minBytes int) (int, error) {
	u, err := d.readUint32()
	if err != nil {
		return 0, err
	}
	n := int(u)
	if n > d.opts.MaxContainerLen {
		return 0, merr.WrapErrParameterTooLarge(kind.String(), "container length exceeds limit")
	}
	if remaining := d.s.Len(); uint64(n)*uint64(minBytes) > uint64(remaining) {
		return 0, merr.WrapErrPickleTruncated(d.s.Tell(),
			merr.WrapErrStreamUnderrun(n*minBytes, remaining))
	}
	if d.depth >= d.opts.MaxDepth {
		return 0, merr.WrapErrParameterTooLarge(kind.String(), "nesting too deep")
	}
	d.depth++
	return n, nil
}

func (d *Decoder) leave() {
	d.depth--
}

// readStringBody 读取 String 记录中标签之后的部分：长度、内容与结束符。
func (d *Decoder) readStringBody() (string, error) {
	u, err := d.readUint32()
	if err != nil {
		return "", err
	}
	n := int(u)
	if n > d.opts.MaxStringLen {
		return "", merr.WrapErrParameterTooLarge("string", "string length exceeds limit")
	}
	off := d.s.Tell()
	p, err := d.next(n + 1)
	if err != nil {
		return "", err
	}
	if p[n] != 0 {
		return "", merr.WrapErrPickleUnknownTag(p[n], off+n)
	}
	return string(p[:n]), nil
}

func (d *Decoder) readObject() (Value, error) {
	off := d.s.Tell()
	tag, err := d.s.ReadByte()
	if err != nil {
		return Value{}, merr.WrapErrPickleTruncated(off, err)
	}
	if tag != tagString {
		return Value{}, merr.WrapErrPickleUnknownTag(tag, off)
	}
	typeName, err := d.readStringBody()
	if err != nil {
		return Value{}, err
	}
	u, err := d.readUint32()
	if err != nil {
		return Value{}, err
	}
	n := int(u)
	if n > d.opts.MaxStringLen {
		return Value{}, merr.WrapErrParameterTooLarge("object", "object payload exceeds limit")
	}
	p, err := d.next(n)
	if err != nil {
		return Value{}, err
	}
	payload := make([]byte, n)
	copy(payload, p)
	return Object(typeName, payload), nil
}

// Unpickle 从 s 的读游标处读取一个顶层值及其 Sentinel。
// consumed 为本次前进的字节数（包含 Sentinel）。
// 失败时 s 的读游标位置未定义。
func Unpickle(s *stream.Stream, opts ...Option) (Value, int, error) {
	start := s.Tell()
	dec := NewDecoder(s, opts...)
	v, err := dec.Decode()
	if err == nil {
		err = dec.ReadSentinel()
	}
	if err != nil {
		ObserveOp(metrics.OpUnpickle, 0, err)
		decodeLogger().RatedWarn(1, "unpickle value failed",
			zap.Int("offset", start), zap.Int("position", s.Tell()), zap.Error(err))
		return Value{}, 0, err
	}
	consumed := s.Tell() - start
	ObserveOp(metrics.OpUnpickle, consumed, nil)
	return v, consumed, nil
}

// Unmarshal 从 b 的开头读取一个顶层值，返回值与消耗的字节数。
func Unmarshal(b []byte, opts ...Option) (Value, int, error) {
	return Unpickle(stream.NewReadable(b), opts...)
}

func decodeLogger() *log.MLogger {
	return log.With(log.FieldModule("pickle")).WithRateGroup("pickle.decode", 1, 60)
}
