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

package conc

import (
	"time"

	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/pkg/log"
)

// poolOption 汇总 Pool 的构造参数，零值即 ants 的默认行为（阻塞提交、定期清理空闲 worker）。
type poolOption struct {
	preAlloc       bool
	disablePurge   bool
	concealPanic   bool
	expiryDuration time.Duration
	preHandler     func()
}

// PoolOption 定制 NewPool 创建的协程池。
type PoolOption func(opt *poolOption)

func (opt *poolOption) antsOptions() []ants.Option {
	result := []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		ants.WithDisablePurge(opt.disablePurge),
		// Submit 已经把 panic 写进 Future，这里只决定 worker 是否继续向上抛出。
		ants.WithPanicHandler(func(v any) {
			log.Error("conc pool task panicked", zap.Any("panic", v), zap.Bool("concealed", opt.concealPanic))
			if !opt.concealPanic {
				panic(v)
			}
		}),
	}
	if opt.expiryDuration > 0 {
		result = append(result, ants.WithExpiryDuration(opt.expiryDuration))
	}
	return result
}

// WithPreAlloc 在创建时一次性分配全部 worker 槽位。
func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) { opt.preAlloc = v }
}

// WithDisablePurge 关闭空闲 worker 的定期清理，适合随用随弃的短生命周期池。
func WithDisablePurge(v bool) PoolOption {
	return func(opt *poolOption) { opt.disablePurge = v }
}

// WithConcealPanic 为 true 时任务 panic 只记录日志并通过 Future 返回错误，不再使进程崩溃。
func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) { opt.concealPanic = v }
}

// WithExpiryDuration 设置空闲 worker 的清理间隔。
func WithExpiryDuration(d time.Duration) PoolOption {
	return func(opt *poolOption) { opt.expiryDuration = d }
}

// WithPreHandler 设置每个任务执行前调用的函数。
func WithPreHandler(fn func()) PoolOption {
	return func(opt *poolOption) { opt.preHandler = fn }
}
