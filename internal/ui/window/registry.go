package window

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/internal/archive"
	"github.com/lk2023060901/danmu-garden-ui/pkg/log"
	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/conc"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/hardware"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/typeutil"
)

const (
	// DefaultFontHeight 为计算最小化窗口标题栏高度时使用的默认字体高度。
	DefaultFontHeight float32 = 14
	// DefaultRegistryName 为未命名注册表在指标中的标签值。
	DefaultRegistryName = "default"
)

// Registry 维护当前所有活动窗口，按加入顺序保存，窗口名在注册表内唯一。
type Registry struct {
	log.Binder

	name       string
	mu         sync.RWMutex
	windows    []*Window
	fontHeight float32
	codecOpts  []CodecOption
	size       prometheus.Gauge
}

// RegistryOption 用于定制 Registry。
type RegistryOption func(*Registry)

// WithFontHeight 设置标题栏字体高度。
func WithFontHeight(h float32) RegistryOption {
	return func(r *Registry) {
		if h > 0 {
			r.fontHeight = h
		}
	}
}

// WithName 设置注册表名，用作窗口数量指标的 registry 标签。
// 同名注册表共享同一个指标序列。
func WithName(name string) RegistryOption {
	return func(r *Registry) {
		if name != "" {
			r.name = name
		}
	}
}

// WithCodecOptions 设置 Snapshot/Restore 使用的窗口编解码选项。
func WithCodecOptions(opts ...CodecOption) RegistryOption {
	return func(r *Registry) {
		r.codecOpts = append(r.codecOpts, opts...)
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{name: DefaultRegistryName, fontHeight: DefaultFontHeight}
	for _, opt := range opts {
		opt(r)
	}
	r.size = metrics.WindowRegistrySize.WithLabelValues(r.name)
	r.SetComponent("window-registry", zap.String(metrics.RegistryLabelName, r.name))
	return r
}

// Add 把窗口加入注册表。
func (r *Registry) Add(w *Window) error {
	if w == nil {
		return merr.WrapErrParameterMissing("window")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if lo.Contains(r.windows, w) {
		return merr.WrapErrParameterInvalidMsg("window %s already registered", w.Name)
	}
	if lo.ContainsBy(r.windows, func(other *Window) bool { return other.Name == w.Name }) {
		return merr.WrapErrWindowInvalid(w.Name, "duplicate window name")
	}
	r.windows = append(r.windows, w)
	r.size.Set(float64(len(r.windows)))
	return nil
}

// Remove 按实例移除窗口。
func (r *Registry) Remove(w *Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := lo.IndexOf(r.windows, w)
	if idx < 0 {
		name := ""
		if w != nil {
			name = w.Name
		}
		return merr.WrapErrWindowNotFound(name)
	}
	r.windows = append(r.windows[:idx], r.windows[idx+1:]...)
	r.size.Set(float64(len(r.windows)))
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// Windows 返回当前窗口列表的副本。
func (r *Registry) Windows() []*Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Window(nil), r.windows...)
}

// Visible 返回既未隐藏也未关闭的窗口。
func (r *Registry) Visible() []*Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Filter(r.windows, func(w *Window, _ int) bool {
		return w.Visible()
	})
}

func (r *Registry) Find(name string) (*Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Find(r.windows, func(w *Window) bool {
		return w.Name == name
	})
}

// WindowAt 返回鼠标所在的第一个可见窗口。
//
// 鼠标坐标以绘制区域像素为单位，会先缩放到每个窗口的虚拟分辨率再做命中测试；
// 最小化的窗口只有标题栏参与命中。
func (r *Registry) WindowAt(mouseX, mouseY, drawableW, drawableH int) (*Window, bool) {
	if drawableW <= 0 || drawableH <= 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.windows {
		if !w.Visible() {
			continue
		}
		vx := int32(float32(mouseX) / float32(drawableW) * float32(w.VirtualResolution.X))
		vy := int32(float32(mouseY) / float32(drawableH) * float32(w.VirtualResolution.Y))

		bounds := w.Rect
		if w.Minimized() {
			bounds.H = w.Style.HeaderHeight(r.fontHeight)
		}
		if bounds.Contains(vx, vy) {
			return w, true
		}
	}
	return nil, false
}

// MouseOverWindow 报告鼠标是否位于任一可见窗口之上。
func (r *Registry) MouseOverWindow(mouseX, mouseY, drawableW, drawableH int) bool {
	_, ok := r.WindowAt(mouseX, mouseY, drawableW, drawableH)
	return ok
}

// Snapshot 把所有窗口编码为存档分段，分段名即窗口名。
func (r *Registry) Snapshot() ([]archive.Section, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sections := make([]archive.Section, 0, len(r.windows))
	for _, w := range r.windows {
		data, err := w.Pickle(r.codecOpts...)
		if err != nil {
			return nil, errors.Wrapf(err, "snapshot window %s", w.Name)
		}
		sections = append(sections, archive.Section{Name: w.Name, Data: data})
	}
	return sections, nil
}

// Restore 用存档分段整体替换注册表内容；任一分段失败时注册表保持不变。
// 各分段在协程池中并行解码，返回的错误对应顺序上第一个失败的分段。
func (r *Registry) Restore(sections []archive.Section) error {
	restored := make([]*Window, 0, len(sections))
	if len(sections) > 0 {
		// 一次性的池：预分配 worker，不启动定期清理；解码 panic 已经转成 Future 的错误。
		pool := conc.NewPool[*Window](min(len(sections), hardware.GetCPUNum()),
			conc.WithPreAlloc(true),
			conc.WithDisablePurge(true),
			conc.WithConcealPanic(true))
		defer pool.Release()

		futures := lo.Map(sections, func(sec archive.Section, _ int) *conc.Future[*Window] {
			return pool.Submit(func() (*Window, error) {
				return r.decodeSection(sec)
			})
		})
		if err := conc.AwaitAll(futures...); err != nil {
			return err
		}

		names := typeutil.NewSet[string]()
		for _, f := range futures {
			w := f.Value()
			if names.Contain(w.Name) {
				return merr.WrapErrWindowInvalid(w.Name, "duplicate window name")
			}
			names.Insert(w.Name)
			restored = append(restored, w)
		}
	}

	r.mu.Lock()
	r.windows = restored
	r.size.Set(float64(len(restored)))
	r.mu.Unlock()

	r.Logger().Info("window registry restored", zap.Int("windows", len(restored)))
	return nil
}

func (r *Registry) decodeSection(sec archive.Section) (*Window, error) {
	w, consumed, err := Unpickle(sec.Data, r.codecOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "restore window %s", sec.Name)
	}
	if consumed != len(sec.Data) {
		return nil, merr.WrapErrArchiveCorrupted("trailing bytes in window section", sec.Name)
	}
	if w.Name != sec.Name {
		return nil, merr.WrapErrArchiveCorrupted("section name does not match window name", sec.Name, w.Name)
	}
	return w, nil
}
