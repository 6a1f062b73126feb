// Copyright (c) 2019 The Gnet Authors. All rights reserved.
// Copyright (c) 2016 Aliaksandr Valialkin, VertaMedia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Use of this source code is governed by a MIT license that can be found
// at https://github.com/valyala/bytebufferpool/blob/master/LICENSE

// Package streampool 实现了可写 Stream 的对象池，按使用量自动校准默认容量。
package streampool

import (
	"math/bits"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
)

const (
	minBitSize = 6 // 2**6=64，与 stream.DefaultBufferSize 一致
	steps      = 20

	minSize = 1 << minBitSize

	calibrateCallsThreshold = 42000
	maxPercentile           = 0.95
)

// Pool 表示可写 Stream 的对象池。
//
// 窗口存档、归档编码等不同用途可以各自持有一个 Pool，避免互相拉高默认容量。
type Pool struct {
	calls       [steps]uint64
	calibrating uint64

	defaultSize uint64
	maxSize     uint64

	pool sync.Pool
}

var builtinPool Pool

// Get 从默认池中获取一个空的可写流。
func Get() *stream.Stream { return builtinPool.Get() }

// Get 从 Pool 中获取一个空的可写流，用完后通过 Put 归还。
func (p *Pool) Get() *stream.Stream {
	v := p.pool.Get()
	if v != nil {
		return v.(*stream.Stream)
	}
	return stream.NewWritable(int(atomic.LoadUint64(&p.defaultSize)))
}

// Put 将可写流归还到默认池中。
func Put(s *stream.Stream) { builtinPool.Put(s) }

// Put 将通过 Get 获取的流归还到 Pool 中。
//
// 注意：归还后的流不允许再被访问，之前通过 Bytes 取得的切片也随之失效。
// 只读流不会被回收。
func (p *Pool) Put(s *stream.Stream) {
	if s == nil || s.ReadOnly() {
		return
	}
	idx := index(s.Size())

	if atomic.AddUint64(&p.calls[idx], 1) > calibrateCallsThreshold {
		p.calibrate()
	}

	maxSize := int(atomic.LoadUint64(&p.maxSize))
	if maxSize == 0 || s.Cap() <= maxSize {
		s.Reset()
		p.pool.Put(s)
	}
}

func (p *Pool) calibrate() {
	if !atomic.CompareAndSwapUint64(&p.calibrating, 0, 1) {
		return
	}

	a := make(callSizes, 0, steps)
	var callsSum uint64
	for i := uint64(0); i < steps; i++ {
		calls := atomic.SwapUint64(&p.calls[i], 0)
		callsSum += calls
		a = append(a, callSize{
			calls: calls,
			size:  minSize << i,
		})
	}
	sort.Sort(a)

	defaultSize := a[0].size
	maxSize := defaultSize

	maxSum := uint64(float64(callsSum) * maxPercentile)
	callsSum = 0
	for i := 0; i < steps; i++ {
		if callsSum > maxSum {
			break
		}
		callsSum += a[i].calls
		if size := a[i].size; size > maxSize {
			maxSize = size
		}
	}

	atomic.StoreUint64(&p.defaultSize, defaultSize)
	atomic.StoreUint64(&p.maxSize, maxSize)

	atomic.StoreUint64(&p.calibrating, 0)
}

type callSize struct {
	calls uint64
	size  uint64
}

type callSizes []callSize

func (ci callSizes) Len() int           { return len(ci) }
func (ci callSizes) Less(i, j int) bool { return ci[i].calls > ci[j].calls }
func (ci callSizes) Swap(i, j int)      { ci[i], ci[j] = ci[j], ci[i] }

func index(n int) int {
	n--
	n >>= minBitSize
	idx := 0
	if n > 0 {
		idx = bits.Len(uint(n))
	}
	if idx >= steps {
		idx = steps - 1
	}
	return idx
}
