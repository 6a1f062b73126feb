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
	"runtime"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/pkg/log"
)

var errUnrecoverable = errors.New("unrecoverable error")

// Unrecoverable 标记 err 为不可恢复，Do 遇到后立即返回。
func Unrecoverable(err error) error {
	return errors.Mark(err, errUnrecoverable)
}

// IsRecoverable 报告 err 是否允许重试。
func IsRecoverable(err error) bool {
	return !errors.Is(err, errUnrecoverable)
}

func getCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return file + ":" + strconv.Itoa(line)
}

func newBackOff(c *config) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.sleep
	b.MaxInterval = c.maxSleepTime
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do 使用重试机制执行 fn。
// 等待时间按指数增长，上限为 MaxSleepTime；ctx 结束、错误被标记为不可恢复或达到最大次数时返回。
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log := log.Ctx(ctx)
	c := newDefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	b := newBackOff(c)

	var lastErr error
	for i := uint(0); c.attempts == 0 || i < c.attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if i%4 == 0 {
			log.Warn("retry func failed",
				zap.Uint("retried", i),
				zap.Error(err),
				zap.String("caller", getCaller(2)))
		}

		if !IsRecoverable(err) || (c.isRetryErr != nil && !c.isRetryErr(err)) {
			isContextErr := errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
			log.Warn("retry func failed, not be recoverable",
				zap.Uint("retried", i),
				zap.Uint("attempt", c.attempts),
				zap.Bool("isContextErr", isContextErr),
				zap.String("caller", getCaller(2)),
			)
			if isContextErr && lastErr != nil {
				return lastErr
			}
			return err
		}

		sleep := b.NextBackOff()
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < sleep {
			log.Warn("retry func failed, deadline",
				zap.Uint("retried", i),
				zap.Uint("attempt", c.attempts),
				zap.String("caller", getCaller(2)),
			)
			return err
		}

		lastErr = err

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			log.Warn("retry func failed, ctx done",
				zap.Uint("retried", i),
				zap.Uint("attempt", c.attempts),
				zap.String("caller", getCaller(2)),
			)
			return lastErr
		}
	}
	if lastErr != nil {
		log.Warn("retry func failed, reach max retry",
			zap.Uint("attempt", c.attempts),
		)
	}
	return lastErr
}
