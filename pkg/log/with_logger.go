package log

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var (
	_ WithLogger   = &Binder{}
	_ LoggerBinder = &Binder{}
)

// WithLogger 由持有自身 Logger 的组件实现。
type WithLogger interface {
	Logger() *MLogger
}

// LoggerBinder 由允许外部替换 Logger 的组件实现。
type LoggerBinder interface {
	SetLogger(logger *MLogger)
}

// Binder 嵌入到注册表、编解码器等组件中，保存带组件字段的 Logger。
type Binder struct {
	logger atomic.Pointer[MLogger]
}

// SetLogger 替换绑定的 Logger。
func (b *Binder) SetLogger(logger *MLogger) {
	b.logger.Store(logger)
}

// SetComponent 绑定一个带 component 字段及附加字段的 Logger。
func (b *Binder) SetComponent(component string, fields ...zap.Field) {
	b.SetLogger(With(append([]zap.Field{FieldComponent(component)}, fields...)...))
}

// Logger 返回绑定的 Logger，未绑定时退化为全局 Logger。
func (b *Binder) Logger() *MLogger {
	if l := b.logger.Load(); l != nil {
		return l
	}
	return With()
}
