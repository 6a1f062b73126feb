// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
)

// MLogger 是 zap.Logger 的封装类型，增加了按分组限流的日志能力。
type MLogger struct {
	*zap.Logger
	rl RateLimiter
}

// With 返回携带额外字段的新 MLogger，不影响原 Logger，已绑定的限流分组会被继承。
// 字段与包级 With 一样延迟到首次输出时编码。
func (l *MLogger) With(fields ...zap.Field) *MLogger {
	return &MLogger{
		Logger: l.Logger.WithOptions(lazyWith(fields)),
		rl:     l.rl,
	}
}

// WithRateGroup 返回绑定了命名限流器的新 MLogger。
// 同名分组共享同一个限流器，再次声明时会更新其参数。
func (l *MLogger) WithRateGroup(groupName string, creditPerSecond, maxBalance float64) *MLogger {
	rl := utils.NewRateLimiter(creditPerSecond, maxBalance)
	actual, loaded := _namedRateLimiters.LoadOrStore(groupName, rl)
	if loaded {
		rl = actual.(*utils.ReconfigurableRateLimiter)
		rl.Update(creditPerSecond, maxBalance)
	}
	return &MLogger{
		Logger: l.Logger,
		rl:     rl,
	}
}

func (l *MLogger) r() RateLimiter {
	if l.rl == nil {
		return R()
	}
	return l.rl
}

// RatedDebug 在 Debug 级别输出限流日志，返回 true 表示本次已输出。
func (l *MLogger) RatedDebug(cost float64, msg string, fields ...zap.Field) bool {
	if l.r().CheckCredit(cost) {
		l.WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
		return true
	}
	metrics.LoggingRatedDropped.WithLabelValues("debug").Inc()
	return false
}

// RatedInfo 在 Info 级别输出限流日志，返回 true 表示本次已输出。
func (l *MLogger) RatedInfo(cost float64, msg string, fields ...zap.Field) bool {
	if l.r().CheckCredit(cost) {
		l.WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
		return true
	}
	metrics.LoggingRatedDropped.WithLabelValues("info").Inc()
	return false
}

// RatedWarn 在 Warn 级别输出限流日志，返回 true 表示本次已输出。
func (l *MLogger) RatedWarn(cost float64, msg string, fields ...zap.Field) bool {
	if l.r().CheckCredit(cost) {
		l.WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
		return true
	}
	metrics.LoggingRatedDropped.WithLabelValues("warn").Inc()
	return false
}
