package window

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/internal/pickle"
	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
	"github.com/lk2023060901/danmu-garden-ui/pkg/log"
	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

// TypeName 为窗口在对象类型注册表中的名字。
const TypeName = "pf.Window"

// 五个标量字段的线上顺序。
var fieldNames = [...]string{"name", "rect", "flags", "virtual_resolution", "resize_mask"}

type codecOptions struct {
	styleCodec StyleCodec
	pickleOpts []pickle.Option
}

// CodecOption 用于定制窗口编解码。
type CodecOption func(*codecOptions)

// WithStyleCodec 指定样式子记录的编解码器，默认为 BinaryStyleCodec。
func WithStyleCodec(c StyleCodec) CodecOption {
	return func(o *codecOptions) {
		o.styleCodec = c
	}
}

// WithPickleOptions 指定标量字段编解码使用的 pickle 选项。
func WithPickleOptions(opts ...pickle.Option) CodecOption {
	return func(o *codecOptions) {
		o.pickleOpts = append(o.pickleOpts, opts...)
	}
}

func newCodecOptions(opts []CodecOption) codecOptions {
	o := codecOptions{styleCodec: BinaryStyleCodec{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.styleCodec == nil {
		o.styleCodec = BinaryStyleCodec{}
	}
	return o
}

// Pickle 把 w 追加写入 s：五个各自带 Sentinel 的顶层值，随后是样式子记录。
// 返回写入的字节数；失败时 s 回退到写入前的状态。
func Pickle(w *Window, s *stream.Stream, opts ...CodecOption) (int, error) {
	o := newCodecOptions(opts)
	start := s.Size()

	err := func() error {
		fields := []pickle.Value{
			pickle.String(truncateName(w.Name)),
			pickle.IntTuple(w.Rect.X, w.Rect.Y, w.Rect.W, w.Rect.H),
			pickle.Int(int64(w.Flags)),
			pickle.IntTuple(w.VirtualResolution.X, w.VirtualResolution.Y),
			pickle.Int(int64(w.ResizeMask)),
		}
		for i, v := range fields {
			if _, err := pickle.Pickle(v, s, o.pickleOpts...); err != nil {
				return errors.Wrapf(err, "pickle window field %s", fieldNames[i])
			}
		}
		if err := o.styleCodec.SaveStyle(s, &w.Style); err != nil {
			return errors.Wrap(err, "pickle window style")
		}
		return nil
	}()
	if err != nil {
		if !s.ReadOnly() {
			_ = s.Truncate(start)
		}
		pickle.ObserveOp(metrics.OpWindowSave, 0, err)
		return 0, err
	}

	n := s.Size() - start
	pickle.ObserveOp(metrics.OpWindowSave, n, nil)
	log.Debug("window pickled", log.FieldWindow(w.Name), zap.Int("bytes", n))
	return n, nil
}

// Pickle 返回窗口的完整存档字节。
func (w *Window) Pickle(opts ...CodecOption) ([]byte, error) {
	s := stream.NewWritable(256)
	if _, err := Pickle(w, s, opts...); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// Unpickle 从 b 的开头还原一个窗口，并返回消耗的字节数。
func Unpickle(b []byte, opts ...CodecOption) (*Window, int, error) {
	return UnpickleStream(stream.NewReadable(b), opts...)
}

// UnpickleStream 从 s 的读游标处还原一个窗口。
//
// 五个标量字段均需解码成功且形状正确，否则返回 ErrPickleSchemaMismatch；
// 失败时不会返回部分构造的窗口。停靠掩码按原样保留，不做合法性校验。
func UnpickleStream(s *stream.Stream, opts ...CodecOption) (*Window, int, error) {
	o := newCodecOptions(opts)
	start := s.Tell()

	w, err := func() (*Window, error) {
		var vals [len(fieldNames)]pickle.Value
		for i := range vals {
			v, _, err := pickle.Unpickle(s, o.pickleOpts...)
			if err != nil {
				return nil, errors.Wrapf(err, "unpickle window field %s", fieldNames[i])
			}
			vals[i] = v
		}
		w, err := fromValues(vals)
		if err != nil {
			return nil, err
		}
		if err := o.styleCodec.LoadStyle(s, &w.Style); err != nil {
			return nil, errors.Wrap(err, "unpickle window style")
		}
		return w, nil
	}()
	if err != nil {
		pickle.ObserveOp(metrics.OpWindowLoad, 0, err)
		loadLogger().RatedWarn(1, "unpickle window failed",
			zap.Int("offset", start), zap.Error(err))
		return nil, 0, err
	}

	consumed := s.Tell() - start
	pickle.ObserveOp(metrics.OpWindowLoad, consumed, nil)
	return w, consumed, nil
}

func fromValues(vals [len(fieldNames)]pickle.Value) (*Window, error) {
	name, ok := vals[0].AsString()
	if !ok {
		return nil, merr.WrapErrPickleSchemaMismatch(fieldNames[0], "string", vals[0].Kind())
	}
	rect, ok := pickle.ToIntTuple[int32](vals[1], 4)
	if !ok {
		return nil, merr.WrapErrPickleSchemaMismatch(fieldNames[1], "tuple(4) of int32", vals[1].String())
	}
	flags, ok := int32Of(vals[2])
	if !ok {
		return nil, merr.WrapErrPickleSchemaMismatch(fieldNames[2], "int32", vals[2].String())
	}
	vres, ok := pickle.ToIntTuple[int32](vals[3], 2)
	if !ok {
		return nil, merr.WrapErrPickleSchemaMismatch(fieldNames[3], "tuple(2) of int32", vals[3].String())
	}
	mask, ok := int32Of(vals[4])
	if !ok {
		return nil, merr.WrapErrPickleSchemaMismatch(fieldNames[4], "int32", vals[4].String())
	}

	return &Window{
		Name:              truncateName(name),
		Rect:              Rect{X: rect[0], Y: rect[1], W: rect[2], H: rect[3]},
		Flags:             Flag(flags),
		VirtualResolution: Vec2i{X: vres[0], Y: vres[1]},
		ResizeMask:        Anchor(mask),
	}, nil
}

func int32Of(v pickle.Value) (int32, bool) {
	i, ok := v.AsInt()
	if !ok {
		return 0, false
	}
	return pickle.NarrowInt[int32](i)
}

func loadLogger() *log.MLogger {
	return log.With(log.FieldModule("window")).WithRateGroup("window.load", 1, 60)
}

// objectCodec 让窗口可以作为 Object 值嵌入任意 pickle 值中。
type objectCodec struct{}

func (objectCodec) PickleObject(v any, s *stream.Stream) error {
	w, ok := v.(*Window)
	if !ok || w == nil {
		return merr.WrapErrPickleUnencodable(fmt.Sprintf("%T", v), "expected *window.Window")
	}
	_, err := Pickle(w, s)
	return err
}

func (objectCodec) UnpickleObject(payload []byte) (any, int, error) {
	w, n, err := Unpickle(payload)
	if err != nil {
		return nil, 0, err
	}
	return w, n, nil
}

func init() {
	pickle.DefaultRegistry().MustRegister(TypeName, objectCodec{})
}
