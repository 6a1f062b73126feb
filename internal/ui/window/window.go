// Package window 实现脚本化 UI 窗口的状态模型、二进制存档编解码与活动窗口注册表。
package window

import (
	"unicode/utf8"

	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

// MaxNameLen 为窗口名的最大字节数，超出部分会被截断。
const MaxNameLen = 127

// Rect 为虚拟分辨率坐标系下的窗口边界。
type Rect struct {
	X, Y, W, H int32
}

// Contains 报告点 (x, y) 是否落在矩形内（含边界）。
func (r Rect) Contains(x, y int32) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Vec2i 为二维整数向量。
type Vec2i struct {
	X, Y int32
}

// Window 为一个持久化的 UI 窗口配置。
type Window struct {
	Name string
	// Rect 以 VirtualResolution 为参考坐标。
	Rect              Rect
	Flags             Flag
	VirtualResolution Vec2i
	ResizeMask        Anchor
	Style             Style
}

type options struct {
	resizeMask Anchor
	style      *Style
}

// Option 用于定制 New 创建的窗口。
type Option func(*options)

// WithResizeMask 设置窗口的停靠掩码，默认为 AnchorDefault。
func WithResizeMask(mask Anchor) Option {
	return func(o *options) {
		o.resizeMask = mask
	}
}

// WithStyle 使用给定样式替代默认样式。
func WithStyle(style Style) Option {
	return func(o *options) {
		o.style = &style
	}
}

// New 创建一个窗口。新窗口默认处于关闭且隐藏的状态，需调用 Show 才会显示。
func New(name string, rect Rect, flags Flag, vres Vec2i, opts ...Option) (*Window, error) {
	o := options{resizeMask: AnchorDefault}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.resizeMask.Valid() {
		return nil, merr.WrapErrWindowInvalid(name, "resize mask must have at least one anchor in each dimension")
	}

	style := DefaultStyle()
	if o.style != nil {
		style = *o.style
	}
	return &Window{
		Name:              truncateName(name),
		Rect:              rect,
		Flags:             flags | FlagClosed | FlagHidden,
		VirtualResolution: vres,
		ResizeMask:        o.resizeMask,
		Style:             style,
	}, nil
}

// truncateName 把名字截断到 MaxNameLen 字节以内，且不拆开多字节字符。
func truncateName(name string) string {
	if len(name) <= MaxNameLen {
		return name
	}
	end := MaxNameLen
	for end > 0 && !utf8.RuneStart(name[end]) {
		end--
	}
	return name[:end]
}

// Show 清除隐藏与关闭标志。
func (w *Window) Show() {
	w.Flags &^= FlagHidden | FlagClosed
}

// Hide 设置隐藏与关闭标志。
func (w *Window) Hide() {
	w.Flags |= FlagHidden | FlagClosed
}

func (w *Window) Closed() bool { return w.Flags&FlagClosed != 0 }

func (w *Window) Hidden() bool { return w.Flags&FlagHidden != 0 }

func (w *Window) Minimized() bool { return w.Flags&FlagMinimized != 0 }

// Interactive 在窗口未设置任何不可交互标志时返回 true。
func (w *Window) Interactive() bool { return w.Flags&FlagNotInteractive == 0 }

func (w *Window) SetInteractive(interactive bool) {
	if interactive {
		w.Flags &^= FlagNotInteractive
	} else {
		w.Flags |= FlagNotInteractive
	}
}

// Visible 表示窗口既未隐藏也未关闭。
func (w *Window) Visible() bool {
	return w.Flags&(FlagHidden|FlagClosed) == 0
}

func (w *Window) Position() (int32, int32) { return w.Rect.X, w.Rect.Y }

func (w *Window) Size() (int32, int32) { return w.Rect.W, w.Rect.H }

// Clone 返回窗口的深拷贝。
func (w *Window) Clone() *Window {
	c := *w
	return &c
}
