package window

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

// StyleVersion 为样式子记录的当前版本。
const StyleVersion uint16 = 1

// Color 为 8 位 RGBA 颜色。
type Color struct {
	R, G, B, A uint8
}

// RGBA 构造一个颜色。
func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Vec2 为二维浮点向量。
type Vec2 struct {
	X, Y float32
}

// HeaderStyle 为窗口标题栏样式。
type HeaderStyle struct {
	Normal      Color
	Hover       Color
	Active      Color
	LabelNormal Color
	LabelHover  Color
	LabelActive Color

	Padding      Vec2
	LabelPadding Vec2
	Spacing      Vec2
}

// Style 为单个窗口的样式，随窗口一起持久化。
type Style struct {
	Header HeaderStyle

	Background       Color
	BorderColor      Color
	GroupBorderColor Color
	ComboBorderColor Color
	PopupBorderColor Color

	Border              float32
	GroupBorder         float32
	ComboBorder         float32
	PopupBorder         float32
	Rounding            float32
	MinRowHeightPadding float32

	Spacing       Vec2
	Padding       Vec2
	GroupPadding  Vec2
	ComboPadding  Vec2
	ScrollbarSize Vec2
	MinSize       Vec2
}

// DefaultStyle 返回新建窗口使用的默认样式。
func DefaultStyle() Style {
	return Style{
		Header: HeaderStyle{
			Normal:       RGBA(40, 40, 40, 255),
			Hover:        RGBA(40, 40, 40, 255),
			Active:       RGBA(40, 40, 40, 255),
			LabelNormal:  RGBA(175, 175, 175, 255),
			LabelHover:   RGBA(175, 175, 175, 255),
			LabelActive:  RGBA(175, 175, 175, 255),
			Padding:      Vec2{X: 4, Y: 4},
			LabelPadding: Vec2{X: 4, Y: 4},
		},
		Background:       RGBA(45, 45, 45, 255),
		BorderColor:      RGBA(65, 65, 65, 255),
		GroupBorderColor: RGBA(65, 65, 65, 255),
		ComboBorderColor: RGBA(65, 65, 65, 255),
		PopupBorderColor: RGBA(65, 65, 65, 255),

		Border:              2,
		GroupBorder:         1,
		ComboBorder:         1,
		PopupBorder:         1,
		MinRowHeightPadding: 8,

		Spacing:       Vec2{X: 4, Y: 4},
		Padding:       Vec2{X: 4, Y: 4},
		GroupPadding:  Vec2{X: 4, Y: 4},
		ComboPadding:  Vec2{X: 4, Y: 4},
		ScrollbarSize: Vec2{X: 10, Y: 10},
		MinSize:       Vec2{X: 64, Y: 64},
	}
}

// HeaderHeight 返回给定字体高度下标题栏的像素高度。
func (s *Style) HeaderHeight(fontHeight float32) int32 {
	return int32(fontHeight + 2*s.Header.Padding.Y + 2*s.Header.LabelPadding.Y)
}

// layout 按固定的线上顺序返回所有颜色与浮点字段的指针，编码与解码共用同一顺序。
func (s *Style) layout() ([]*Color, []*float32) {
	colors := []*Color{
		&s.Header.Normal, &s.Header.Hover, &s.Header.Active,
		&s.Header.LabelNormal, &s.Header.LabelHover, &s.Header.LabelActive,
		&s.Background, &s.BorderColor, &s.GroupBorderColor, &s.ComboBorderColor, &s.PopupBorderColor,
	}
	floats := []*float32{
		&s.Header.Padding.X, &s.Header.Padding.Y,
		&s.Header.LabelPadding.X, &s.Header.LabelPadding.Y,
		&s.Header.Spacing.X, &s.Header.Spacing.Y,
		&s.Border, &s.GroupBorder, &s.ComboBorder, &s.PopupBorder,
		&s.Rounding, &s.MinRowHeightPadding,
		&s.Spacing.X, &s.Spacing.Y,
		&s.Padding.X, &s.Padding.Y,
		&s.GroupPadding.X, &s.GroupPadding.Y,
		&s.ComboPadding.X, &s.ComboPadding.Y,
		&s.ScrollbarSize.X, &s.ScrollbarSize.Y,
		&s.MinSize.X, &s.MinSize.Y,
	}
	return colors, floats
}

// StyleCodec 负责样式子记录的读写，窗口编解码器在五个标量字段之后调用它。
type StyleCodec interface {
	SaveStyle(s *stream.Stream, style *Style) error
	LoadStyle(s *stream.Stream, style *Style) error
}

// BinaryStyleCodec 以定长布局读写样式：
//
//	[uint16 version][uint16 body length][body]
//
// body 依次为 RGBA 颜色（每个 4 字节）与 float32 字段，均为小端序。
// 读取时 body 比当前布局长的部分会被跳过，以兼容后续追加的字段。
type BinaryStyleCodec struct{}

var _ StyleCodec = BinaryStyleCodec{}

func styleBodyLen() int {
	var s Style
	colors, floats := s.layout()
	return len(colors)*4 + len(floats)*4
}

func (BinaryStyleCodec) SaveStyle(s *stream.Stream, style *Style) error {
	colors, floats := style.layout()
	bodyLen := len(colors)*4 + len(floats)*4
	p, err := s.Extend(4 + bodyLen)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(p[0:], StyleVersion)
	binary.LittleEndian.PutUint16(p[2:], uint16(bodyLen))
	off := 4
	for _, c := range colors {
		p[off], p[off+1], p[off+2], p[off+3] = c.R, c.G, c.B, c.A
		off += 4
	}
	for _, f := range floats {
		binary.LittleEndian.PutUint32(p[off:], math.Float32bits(*f))
		off += 4
	}
	return nil
}

func (BinaryStyleCodec) LoadStyle(s *stream.Stream, style *Style) error {
	off := s.Tell()
	hdr, err := s.Next(4)
	if err != nil {
		return merr.WrapErrPickleTruncated(off, err)
	}
	if version := binary.LittleEndian.Uint16(hdr[0:]); version != StyleVersion {
		return merr.WrapErrPickleSchemaMismatch("style.version", "1", version)
	}
	bodyLen := int(binary.LittleEndian.Uint16(hdr[2:]))
	if want := styleBodyLen(); bodyLen < want {
		return merr.WrapErrPickleSchemaMismatch("style.length", "at least "+strconv.Itoa(want), bodyLen)
	}
	body, err := s.Next(bodyLen)
	if err != nil {
		return merr.WrapErrPickleTruncated(off+4, err)
	}

	var loaded Style
	colors, floats := loaded.layout()
	pos := 0
	for _, c := range colors {
		*c = Color{R: body[pos], G: body[pos+1], B: body[pos+2], A: body[pos+3]}
		pos += 4
	}
	for _, f := range floats {
		*f = math.Float32frombits(binary.LittleEndian.Uint32(body[pos:]))
		pos += 4
	}
	*style = loaded
	return nil
}
