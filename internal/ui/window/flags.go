package window

import (
	"strings"

	"github.com/samber/lo"
)

// Flag 为窗口标志位，数值与即时模式 GUI 库的窗口标志保持一致。
type Flag int32

const (
	FlagBorder Flag = 1 << iota
	FlagMovable
	FlagScalable
	FlagClosable
	FlagMinimizable
	FlagNoScrollbar
	FlagTitle
	FlagScrollAutoHide
	FlagBackground
	FlagScaleLeft
	FlagNoInput
)

const (
	FlagDynamic   Flag = 1 << 11
	FlagROM       Flag = 1 << 12
	FlagHidden    Flag = 1 << 13
	FlagClosed    Flag = 1 << 14
	FlagMinimized Flag = 1 << 15

	FlagNotInteractive = FlagROM | FlagNoInput
)

var flagNames = []lo.Tuple2[Flag, string]{
	{A: FlagBorder, B: "border"},
	{A: FlagMovable, B: "movable"},
	{A: FlagScalable, B: "scalable"},
	{A: FlagClosable, B: "closable"},
	{A: FlagMinimizable, B: "minimizable"},
	{A: FlagNoScrollbar, B: "no_scrollbar"},
	{A: FlagTitle, B: "title"},
	{A: FlagScrollAutoHide, B: "scroll_auto_hide"},
	{A: FlagBackground, B: "background"},
	{A: FlagScaleLeft, B: "scale_left"},
	{A: FlagNoInput, B: "no_input"},
	{A: FlagDynamic, B: "dynamic"},
	{A: FlagROM, B: "rom"},
	{A: FlagHidden, B: "hidden"},
	{A: FlagClosed, B: "closed"},
	{A: FlagMinimized, B: "minimized"},
}

func (f Flag) Has(mask Flag) bool { return f&mask == mask }

func (f Flag) String() string {
	if f == 0 {
		return "0"
	}
	names := lo.FilterMap(flagNames, func(t lo.Tuple2[Flag, string], _ int) (string, bool) {
		return t.B, f&t.A != 0
	})
	return strings.Join(names, "|")
}

// Anchor 为窗口在分辨率变化时的停靠方式，X/Y 两个方向各至少需要一个。
type Anchor int32

const (
	AnchorXLeft Anchor = 1 << iota
	AnchorXRight
	AnchorXCenter
	AnchorYTop
	AnchorYBottom
	AnchorYCenter

	AnchorXMask   = AnchorXLeft | AnchorXRight | AnchorXCenter
	AnchorYMask   = AnchorYTop | AnchorYBottom | AnchorYCenter
	AnchorDefault = AnchorXLeft | AnchorYTop
)

// Valid 报告掩码在 X 与 Y 方向上是否都至少有一个停靠点。
func (a Anchor) Valid() bool {
	return a&AnchorXMask != 0 && a&AnchorYMask != 0
}
