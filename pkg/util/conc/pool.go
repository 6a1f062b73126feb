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
	"fmt"

	ants "github.com/panjf2000/ants/v2"

	"github.com/lk2023060901/danmu-garden-ui/pkg/util/hardware"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

// Pool 是 ants 协程池的泛型封装，提交的任务以 Future 返回结果。
type Pool[T any] struct {
	inner *ants.Pool
	opt   *poolOption
}

// NewPool 创建容量为 cap 的协程池。
func NewPool[T any](cap int, opts ...PoolOption) *Pool[T] {
	opt := &poolOption{}
	for _, o := range opts {
		o(opt)
	}

	pool, err := ants.NewPool(cap, opt.antsOptions()...)
	if err != nil {
		panic(err)
	}

	return &Pool[T]{
		inner: pool,
		opt:   opt,
	}
}

// NewDefaultPool 创建容量为 CPU 数的协程池。
func NewDefaultPool[T any](opts ...PoolOption) *Pool[T] {
	return NewPool[T](hardware.GetCPUNum(), opts...)
}

// Submit 提交一个任务，池已满时阻塞。提交失败（例如池已释放）时返回的 Future 直接携带错误。
// 任务 panic 时 Future 以 ErrServiceInternal 完成。
func (pool *Pool[T]) Submit(method func() (T, error)) *Future[T] {
	future := newFuture[T]()
	err := pool.inner.Submit(func() {
		var (
			res T
			err error
		)
		defer func() {
			if x := recover(); x != nil {
				future.complete(res, merr.WrapErrServiceInternal(fmt.Sprintf("task panicked: %v", x)))
				panic(x)
			}
		}()
		if pool.opt.preHandler != nil {
			pool.opt.preHandler()
		}
		res, err = method()
		future.complete(res, err)
	})
	if err != nil {
		var res T
		future.complete(res, err)
	}

	return future
}

// Cap 返回池容量。
func (pool *Pool[T]) Cap() int {
	return pool.inner.Cap()
}

// Running 返回正在运行的 worker 数。
func (pool *Pool[T]) Running() int {
	return pool.inner.Running()
}

// Free 返回空闲 worker 数。
func (pool *Pool[T]) Free() int {
	return pool.inner.Free()
}

// Release 释放协程池，之后不能再提交任务。
func (pool *Pool[T]) Release() {
	pool.inner.Release()
}

// Resize 调整池容量，size 必须为正数。
func (pool *Pool[T]) Resize(size int) error {
	if size <= 0 {
		return merr.WrapErrParameterInvalid(1, size, "pool size must be positive")
	}
	pool.inner.Tune(size)
	return nil
}
