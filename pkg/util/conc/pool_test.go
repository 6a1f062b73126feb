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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"

	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

func TestPool(t *testing.T) {
	pool := NewDefaultPool[int]()
	defer pool.Release()

	futures := make([]*Future[int], 0, pool.Cap())
	for i := 0; i < pool.Cap(); i++ {
		futures = append(futures, pool.Submit(func() (int, error) {
			return i, nil
		}))
	}

	assert.NoError(t, AwaitAll(futures...))
	for i, future := range futures {
		assert.True(t, future.Done())
		assert.True(t, future.OK())
		assert.Equal(t, i, future.Value())
	}
}

func TestPoolAwaitAllFirstError(t *testing.T) {
	pool := NewPool[string](2)
	defer pool.Release()

	errBad := errors.New("bad section")
	ok := pool.Submit(func() (string, error) { return "hud", nil })
	bad := pool.Submit(func() (string, error) { return "", errBad })

	err := AwaitAll(ok, bad)
	assert.ErrorIs(t, err, errBad)
	v, err := ok.Await()
	assert.NoError(t, err)
	assert.Equal(t, "hud", v)
}

func TestPoolPreHandler(t *testing.T) {
	calls := atomic.NewInt32(0)
	pool := NewPool[struct{}](1, WithPreHandler(func() { calls.Inc() }), WithExpiryDuration(0))
	defer pool.Release()

	assert.NoError(t, pool.Submit(func() (struct{}, error) { return struct{}{}, nil }).Err())
	assert.EqualValues(t, 1, calls.Load())
}

func TestPoolConcealPanic(t *testing.T) {
	pool := NewPool[int](2, WithPreAlloc(true), WithDisablePurge(true), WithConcealPanic(true))
	defer pool.Release()

	boom := pool.Submit(func() (int, error) { panic("corrupt section") })
	assert.ErrorIs(t, boom.Err(), merr.ErrServiceInternal)

	v, err := pool.Submit(func() (int, error) { return 7, nil }).Await()
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestPoolSubmitAfterRelease(t *testing.T) {
	pool := NewPool[int](1)
	pool.Release()
	assert.Error(t, pool.Submit(func() (int, error) { return 1, nil }).Err())
}

func TestPoolResize(t *testing.T) {
	pool := NewPool[int](2)
	defer pool.Release()

	assert.NoError(t, pool.Resize(4))
	assert.Equal(t, 4, pool.Cap())
	assert.ErrorIs(t, pool.Resize(0), merr.ErrParameterInvalid)
}

func TestGo(t *testing.T) {
	future := Go(func() (int, error) { return 42, nil })
	<-future.Inner()
	assert.Equal(t, 42, future.Value())
}
