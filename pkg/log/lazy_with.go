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
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// lazyWithCore 推迟 core.With(fields) 到第一次真正输出时执行。
// 编解码失败路径会为每次调用构造带字段的 Logger，多数被限流或低于级别，不必编码字段。
type lazyWithCore struct {
	core   atomic.Pointer[zapcore.Core]
	once   sync.Once
	fields []zapcore.Field
}

var _ zapcore.Core = (*lazyWithCore)(nil)

// NewLazyWith 返回一个在首次 Check/With/Write 时才附加 fields 的 Core。
func NewLazyWith(core zapcore.Core, fields []zapcore.Field) zapcore.Core {
	if len(fields) == 0 {
		return core
	}
	c := &lazyWithCore{fields: fields}
	c.core.Store(&core)
	return c
}

// lazyWith 把 NewLazyWith 包装成 zap.Option。
func lazyWith(fields []zap.Field) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return NewLazyWith(core, fields)
	})
}

func (c *lazyWithCore) materialize() zapcore.Core {
	c.once.Do(func() {
		withFields := (*c.core.Load()).With(c.fields)
		c.core.Store(&withFields)
	})
	return *c.core.Load()
}

// Enabled 只读取级别，无需附加字段。
func (c *lazyWithCore) Enabled(level zapcore.Level) bool {
	return (*c.core.Load()).Enabled(level)
}

func (c *lazyWithCore) With(fields []zapcore.Field) zapcore.Core {
	return c.materialize().With(fields)
}

// Check 返回的 CheckedEntry 会直接调用底层 Core 的 Write，因此在这里附加字段。
func (c *lazyWithCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.materialize().Check(e, ce)
}

func (c *lazyWithCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	return c.materialize().Write(e, fields)
}

func (c *lazyWithCore) Sync() error {
	return (*c.core.Load()).Sync()
}
