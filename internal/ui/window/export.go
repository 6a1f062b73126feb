package window

import (
	"github.com/lk2023060901/danmu-garden-ui/internal/pickle"
)

// Export 把窗口转换为一个字符串键的 Mapping，供导出为 JSON/CBOR 等外部格式。
// 样式只导出与布局相关的少数字段。
func (w *Window) Export() pickle.Value {
	str := func(s string) pickle.Value { return pickle.String(s) }
	return pickle.Mapping(
		pickle.KV(str("name"), str(w.Name)),
		pickle.KV(str("rect"), pickle.IntTuple(w.Rect.X, w.Rect.Y, w.Rect.W, w.Rect.H)),
		pickle.KV(str("flags"), pickle.Int(int64(w.Flags))),
		pickle.KV(str("flag_names"), str(w.Flags.String())),
		pickle.KV(str("virtual_resolution"), pickle.IntTuple(w.VirtualResolution.X, w.VirtualResolution.Y)),
		pickle.KV(str("resize_mask"), pickle.Int(int64(w.ResizeMask))),
		pickle.KV(str("visible"), pickle.Bool(w.Visible())),
		pickle.KV(str("interactive"), pickle.Bool(w.Interactive())),
		pickle.KV(str("style"), pickle.Mapping(
			pickle.KV(str("border"), pickle.Float(float64(w.Style.Border))),
			pickle.KV(str("rounding"), pickle.Float(float64(w.Style.Rounding))),
			pickle.KV(str("padding"), pickle.Tuple(
				pickle.Float(float64(w.Style.Padding.X)), pickle.Float(float64(w.Style.Padding.Y)))),
			pickle.KV(str("min_size"), pickle.Tuple(
				pickle.Float(float64(w.Style.MinSize.X)), pickle.Float(float64(w.Style.MinSize.Y)))),
		)),
	)
}
