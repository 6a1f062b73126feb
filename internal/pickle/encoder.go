package pickle

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/internal/pool/streampool"
	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
	"github.com/lk2023060901/danmu-garden-ui/pkg/log"
	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

// Encoder 把 Value 以带标签的二进制记录写入 Stream。
type Encoder struct {
	s     *stream.Stream
	opts  Options
	depth int
}

// NewEncoder 创建一个写入 s 的编码器。
func NewEncoder(s *stream.Stream, opts ...Option) *Encoder {
	return &Encoder{s: s, opts: NewOptions(opts...)}
}

// Encode 写入 v 的记录（不含 Sentinel），嵌套值由此递归写入。
func (e *Encoder) Encode(v Value) error {
	switch v.kind {
	case KindNone:
		return e.s.WriteByte(tagNone)
	case KindBool:
		if v.b {
			return e.s.WriteByte(tagTrue)
		}
		return e.s.WriteByte(tagFalse)
	case KindInt:
		return e.writeTagged64(tagInt, uint64(v.i))
	case KindFloat:
		return e.writeTagged64(tagFloat, math.Float64bits(v.f))
	case KindString:
		return e.writeString(v.s)
	case KindTuple:
		if err := e.enter(v.kind, len(v.items)); err != nil {
			return err
		}
		defer e.leave()
		if err := e.writeHeader(tagTuple, len(v.items)); err != nil {
			return err
		}
		for _, item := range v.items {
			if err := e.Encode(item); err != nil {
				return err
			}
		}
		return nil
	case KindMapping:
		if err := e.enter(v.kind, len(v.pairs)); err != nil {
			return err
		}
		defer e.leave()
		if err := e.writeHeader(tagMapping, len(v.pairs)); err != nil {
			return err
		}
		for _, p := range v.pairs {
			if err := e.Encode(p.Key); err != nil {
				return err
			}
			if err := e.Encode(p.Value); err != nil {
				return err
			}
		}
		return nil
	case KindObject:
		return e.writeObject(v.s, v.payload)
	default:
		return merr.WrapErrPickleUnencodable(v.kind, "invalid value kind")
	}
}

// EncodeObject 使用注册表中 typeName 对应的 ObjectCodec 序列化 obj，
// 并以 Object 记录写入。
func (e *Encoder) EncodeObject(typeName string, obj any) error {
	codec, ok := e.opts.Registry.Lookup(typeName)
	if !ok {
		return merr.WrapErrPickleUnencodable(KindObject, "object type not registered: "+typeName)
	}
	tmp := streampool.Get()
	defer streampool.Put(tmp)
	if err := codec.PickleObject(obj, tmp); err != nil {
		return errors.Wrapf(err, "pickle object %s", typeName)
	}
	return e.writeObject(typeName, tmp.Bytes())
}

// WriteSentinel 写入顶层记录之后的分隔字节。
func (e *Encoder) WriteSentinel() error {
	return e.s.WriteByte(Sentinel)
}

func (e *Encoder) enter(kind Kind, n int) error {
	if e.depth >= e.opts.MaxDepth {
		return merr.WrapErrPickleUnencodable(kind, "nesting too deep")
	}
	if n > e.opts.MaxContainerLen || uint64(n) > math.MaxUint32 {
		return merr.WrapErrPickleUnencodable(kind, "container too large")
	}
	e.depth++
	return nil
}

func (e *Encoder) leave() {
	e.depth--
}

func (e *Encoder) writeTagged64(tag byte, u uint64) error {
	p, err := e.s.Extend(9)
	if err != nil {
		return err
	}
	p[0] = tag
	binary.LittleEndian.PutUint64(p[1:], u)
	return nil
}

func (e *Encoder) writeHeader(tag byte, n int) error {
	p, err := e.s.Extend(5)
	if err != nil {
		return err
	}
	p[0] = tag
	binary.LittleEndian.PutUint32(p[1:], uint32(n))
	return nil
}

func (e *Encoder) writeString(s string) error {
	if len(s) > e.opts.MaxStringLen || uint64(len(s)) > math.MaxUint32 {
		return merr.WrapErrPickleUnencodable(KindString, "string too long")
	}
	if err := e.writeHeader(tagString, len(s)); err != nil {
		return err
	}
	if _, err := e.s.WriteString(s); err != nil {
		return err
	}
	return e.s.WriteByte(0)
}

func (e *Encoder) writeObject(typeName string, payload []byte) error {
	if _, ok := e.opts.Registry.Lookup(typeName); !ok {
		return merr.WrapErrPickleUnencodable(KindObject, "object type not registered: "+typeName)
	}
	if len(payload) > e.opts.MaxStringLen || uint64(len(payload)) > math.MaxUint32 {
		return merr.WrapErrPickleUnencodable(KindObject, "object payload too large")
	}
	if err := e.s.WriteByte(tagObject); err != nil {
		return err
	}
	if err := e.writeString(typeName); err != nil {
		return err
	}
	p, err := e.s.Extend(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(p, uint32(len(payload)))
	_, err = e.s.Write(payload)
	return err
}

// Pickle 把 v 作为一个顶层值写入 s：一条记录加一个 Sentinel。
// 返回写入的字节数；失败时 s 回退到写入前的状态。
func Pickle(v Value, s *stream.Stream, opts ...Option) (int, error) {
	start := s.Size()
	enc := NewEncoder(s, opts...)
	err := enc.Encode(v)
	if err == nil {
		err = enc.WriteSentinel()
	}
	if err != nil {
		if !s.ReadOnly() {
			_ = s.Truncate(start)
		}
		ObserveOp(metrics.OpPickle, 0, err)
		log.Debug("pickle value failed", log.FieldOp(metrics.OpPickle),
			zap.Stringer("kind", v.kind), zap.Error(err))
		return 0, err
	}
	n := s.Size() - start
	ObserveOp(metrics.OpPickle, n, nil)
	return n, nil
}

// Marshal 把 v 编码为一段独立的字节，包含末尾的 Sentinel。
func Marshal(v Value, opts ...Option) ([]byte, error) {
	s := stream.NewWritable(0)
	if _, err := Pickle(v, s, opts...); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}
