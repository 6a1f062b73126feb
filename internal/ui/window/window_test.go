package window

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

func TestNew(t *testing.T) {
	w, err := New("hud", Rect{X: 10, Y: 20, W: 300, H: 150}, FlagBorder|FlagTitle, Vec2i{X: 1920, Y: 1080})
	require.NoError(t, err)

	assert.Equal(t, "hud", w.Name)
	assert.True(t, w.Closed())
	assert.True(t, w.Hidden())
	assert.False(t, w.Visible())
	assert.True(t, w.Flags.Has(FlagBorder|FlagTitle))
	assert.Equal(t, AnchorDefault, w.ResizeMask)
	assert.Equal(t, DefaultStyle(), w.Style)

	x, y := w.Position()
	assert.Equal(t, [2]int32{10, 20}, [2]int32{x, y})
	width, height := w.Size()
	assert.Equal(t, [2]int32{300, 150}, [2]int32{width, height})
}

func TestNewInvalidResizeMask(t *testing.T) {
	for _, mask := range []Anchor{0, AnchorXLeft, AnchorYTop | AnchorYBottom} {
		_, err := New("hud", Rect{}, 0, Vec2i{}, WithResizeMask(mask))
		assert.ErrorIs(t, err, merr.ErrWindowInvalid, "mask %d", mask)
	}

	w, err := New("hud", Rect{}, 0, Vec2i{}, WithResizeMask(AnchorXCenter|AnchorYBottom))
	require.NoError(t, err)
	assert.Equal(t, AnchorXCenter|AnchorYBottom, w.ResizeMask)
}

func TestNewWithStyle(t *testing.T) {
	style := DefaultStyle()
	style.Rounding = 6
	w, err := New("hud", Rect{}, 0, Vec2i{}, WithStyle(style))
	require.NoError(t, err)
	assert.Equal(t, float32(6), w.Style.Rounding)
}

func TestTruncateName(t *testing.T) {
	long := strings.Repeat("a", 200)
	w, err := New(long, Rect{}, 0, Vec2i{})
	require.NoError(t, err)
	assert.Len(t, w.Name, MaxNameLen)

	// 126 个 ASCII 字节后跟一个 3 字节字符，截断不能拆开它。
	name := strings.Repeat("b", 126) + "界" + "tail"
	got := truncateName(name)
	assert.Equal(t, strings.Repeat("b", 126), got)
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, "hud", truncateName("hud"))
}

func TestShowHide(t *testing.T) {
	w, err := New("main_menu", Rect{}, 0, Vec2i{})
	require.NoError(t, err)

	w.Show()
	assert.True(t, w.Visible())
	assert.False(t, w.Closed())
	assert.False(t, w.Hidden())

	w.Hide()
	assert.False(t, w.Visible())
	assert.True(t, w.Closed())
}

func TestInteractive(t *testing.T) {
	w, err := New("hud", Rect{}, 0, Vec2i{})
	require.NoError(t, err)
	assert.True(t, w.Interactive())

	w.SetInteractive(false)
	assert.False(t, w.Interactive())
	assert.True(t, w.Flags.Has(FlagROM|FlagNoInput))

	w.SetInteractive(true)
	assert.True(t, w.Interactive())

	w.Flags |= FlagROM
	assert.False(t, w.Interactive())
}

func TestFlagString(t *testing.T) {
	assert.Equal(t, "0", Flag(0).String())
	assert.Equal(t, "border|title|hidden", (FlagBorder | FlagTitle | FlagHidden).String())
}

func TestAnchorValid(t *testing.T) {
	assert.True(t, AnchorDefault.Valid())
	assert.True(t, (AnchorXRight | AnchorYCenter).Valid())
	assert.False(t, AnchorXMask.Valid())
	assert.False(t, AnchorYMask.Valid())
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 300, H: 150}
	assert.True(t, r.Contains(10, 20))
	assert.True(t, r.Contains(310, 170))
	assert.False(t, r.Contains(9, 20))
	assert.False(t, r.Contains(311, 100))
}

func TestClone(t *testing.T) {
	w, err := New("hud", Rect{W: 1}, 0, Vec2i{})
	require.NoError(t, err)
	c := w.Clone()
	c.Rect.W = 2
	c.Style.Border = 9
	assert.EqualValues(t, 1, w.Rect.W)
	assert.Equal(t, DefaultStyle().Border, w.Style.Border)
}

func TestHeaderHeight(t *testing.T) {
	style := DefaultStyle()
	assert.EqualValues(t, 30, style.HeaderHeight(14))
}

func TestExport(t *testing.T) {
	w, err := New("hud", Rect{X: 10, Y: 20, W: 300, H: 150}, FlagTitle, Vec2i{X: 1920, Y: 1080})
	require.NoError(t, err)
	w.Show()

	m, ok := w.Export().Interface().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hud", m["name"])
	assert.Equal(t, []any{int64(10), int64(20), int64(300), int64(150)}, m["rect"])
	assert.Equal(t, "title", m["flag_names"])
	assert.Equal(t, true, m["visible"])
	assert.Equal(t, int64(AnchorDefault), m["resize_mask"])

	style, ok := m["style"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), style["border"])
}
