// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
)

type ctxLogKeyType struct{}

// CtxLogKey 是 ctx 中保存 *MLogger 的键。
var CtxLogKey = ctxLogKeyType{}

// callerL 返回跳过一层调用栈的全局 Logger，供包级输出函数使用，caller 指向调用方。
func callerL() *zap.Logger {
	return _globalCallerL.Load().(*zap.Logger)
}

func Debug(msg string, fields ...zap.Field) { callerL().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { callerL().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { callerL().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { callerL().Error(msg, fields...) }

// Fatal 输出日志后退出进程，退出前会停止异步写 Core。
func Fatal(msg string, fields ...zap.Field) {
	defer Cleanup()
	callerL().Fatal(msg, fields...)
}

// RatedWarn 使用全局限流器输出 Warn 日志，返回是否实际输出。
func RatedWarn(cost float64, msg string, fields ...zap.Field) bool {
	if !R().CheckCredit(cost) {
		metrics.LoggingRatedDropped.WithLabelValues("warn").Inc()
		return false
	}
	callerL().Warn(msg, fields...)
	return true
}

// With 返回带 fields 的 MLogger。字段在第一次实际输出时才编码，
// 适合在失败路径上按次构造、多数会被限流丢弃的 Logger。
func With(fields ...zap.Field) *MLogger {
	return &MLogger{Logger: L().WithOptions(lazyWith(fields))}
}

func SetLevel(l zapcore.Level) {
	Level().SetLevel(l)
}

func GetLevel() zapcore.Level {
	return Level().Level()
}

// WithTraceID 在 ctx 的 Logger 上附加 traceID。
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return WithFields(ctx, zap.String("traceID", traceID))
}

// WithModule 在 ctx 的 Logger 上附加 module 字段。
func WithModule(ctx context.Context, module string) context.Context {
	return WithFields(ctx, FieldModule(module))
}

// WithWindow 在 ctx 的 Logger 上附加正在处理的窗口名。
func WithWindow(ctx context.Context, name string) context.Context {
	return WithFields(ctx, FieldWindow(name))
}

// WithFields 返回一个 ctx，其 Logger 在原有基础上附加 fields。
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, CtxLogKey, Ctx(ctx).With(fields...))
}

// NewIntentContext 以 name 为 tracer 开启一个 span，返回的 ctx 中的 Logger
// 带有 role、intent 与 traceID 字段。
func NewIntentContext(name string, intent string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(name).Start(context.Background(), intent)
	ctx = WithFields(ctx,
		zap.String("role", name),
		zap.String("intent", intent),
		zap.String("traceID", span.SpanContext().TraceID().String()))
	return ctx, span
}

// Ctx 返回 ctx 中的 Logger，没有时返回全局 Logger。
func Ctx(ctx context.Context) *MLogger {
	if ctx != nil {
		if l, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
			return l
		}
	}
	return &MLogger{Logger: L()}
}
