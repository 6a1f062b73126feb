// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestDoSuccessAfterRetry(t *testing.T) {
	ctx := context.Background()
	n := 0
	err := Do(ctx, func() error {
		n++
		if n < 3 {
			return errors.New("busy")
		}
		return nil
	}, Sleep(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDoAttempts(t *testing.T) {
	ctx := context.Background()
	n := 0
	err := Do(ctx, func() error {
		n++
		return errors.New("always")
	}, Attempts(3), Sleep(time.Millisecond), MaxSleepTime(2*time.Millisecond))
	assert.Error(t, err)
	assert.Equal(t, 3, n)
}

func TestDoUnrecoverable(t *testing.T) {
	ctx := context.Background()
	n := 0
	errFatal := errors.New("disk full")
	err := Do(ctx, func() error {
		n++
		return Unrecoverable(errFatal)
	}, Sleep(time.Millisecond))
	assert.ErrorIs(t, err, errFatal)
	assert.False(t, IsRecoverable(err))
	assert.Equal(t, 1, n)
}

func TestDoRetryErr(t *testing.T) {
	ctx := context.Background()
	n := 0
	err := Do(ctx, func() error {
		n++
		return errors.New("permission denied")
	}, Sleep(time.Millisecond), RetryErr(func(error) bool { return false }))
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestDoCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = Do(ctx, func() error {
		return errors.New("slow")
	}, Attempts(0), Sleep(time.Second))
	assert.Error(t, err)
}
