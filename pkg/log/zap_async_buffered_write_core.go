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
	"context"
	"sync"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
)

var _ zapcore.Core = (*asyncTextIOCore)(nil)

// asyncTextIOCore 把编码好的日志放入队列，由后台协程写入 BufferedWriteSyncer。
// 由 With 派生的 Core 共享同一个 asyncSink。
type asyncTextIOCore struct {
	zapcore.LevelEnabler
	enc  zapcore.Encoder
	sink *asyncSink
}

type asyncSink struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	stop   sync.Once

	ws      zapcore.WriteSyncer
	bws     *zapcore.BufferedWriteSyncer
	pending chan *entryItem

	writeDroppedTimeout time.Duration
	nonDroppableLevel   zapcore.Level
	stopTimeout         time.Duration
	maxBytesPerLog      int
}

type entryItem struct {
	buf   *buffer.Buffer
	level zapcore.Level
}

// NewAsyncTextIOCore 创建异步写 Core 并启动后台写协程，cfg 中的异步参数需已填充默认值。
func NewAsyncTextIOCore(cfg *Config, ws zapcore.WriteSyncer, enab zapcore.LevelEnabler) *asyncTextIOCore {
	nonDroppable, _ := zapcore.ParseLevel(cfg.AsyncWriteNonDroppableLevel)
	ctx, cancel := context.WithCancel(context.Background())
	sink := &asyncSink{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		ws:     ws,
		bws: &zapcore.BufferedWriteSyncer{
			WS:            ws,
			Size:          cfg.AsyncWriteBufferSize,
			FlushInterval: cfg.AsyncWriteFlushInterval,
		},
		pending:             make(chan *entryItem, cfg.AsyncWritePendingLength),
		writeDroppedTimeout: cfg.AsyncWriteDroppedTimeout,
		nonDroppableLevel:   nonDroppable,
		stopTimeout:         cfg.AsyncWriteStopTimeout,
		maxBytesPerLog:      cfg.AsyncWriteMaxBytesPerLog,
	}
	go sink.background()
	return &asyncTextIOCore{
		LevelEnabler: enab,
		enc:          newZapEncoder(cfg),
		sink:         sink,
	}
}

func (c *asyncTextIOCore) With(fields []zapcore.Field) zapcore.Core {
	return &asyncTextIOCore{
		LevelEnabler: c.LevelEnabler,
		enc:          withFields(c.enc, fields),
		sink:         c.sink,
	}
}

func (c *asyncTextIOCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write 只负责入队。低于 nonDroppableLevel 的日志在队列满且超时后被丢弃；
// Stop 之后的写入直接落到底层输出。
func (c *asyncTextIOCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	length := buf.Len()
	if length == 0 {
		buf.Free()
		return nil
	}
	s := c.sink
	if s.ctx.Err() != nil {
		_, err := s.ws.Write(s.truncate(buf.Bytes()))
		buf.Free()
		return err
	}

	var dropAfter <-chan time.Time
	if ent.Level < s.nonDroppableLevel {
		timer := time.NewTimer(s.writeDroppedTimeout)
		defer timer.Stop()
		dropAfter = timer.C
	}
	select {
	case s.pending <- &entryItem{buf: buf, level: ent.Level}:
		metrics.LoggingPendingWriteLength.Inc()
		metrics.LoggingPendingWriteBytes.Add(float64(length))
	case <-dropAfter:
		metrics.LoggingDroppedWrites.Inc()
		buf.Free()
	}
	return nil
}

// Sync 刷新已经进入缓冲区的日志，队列中的条目由后台协程继续处理。
func (c *asyncTextIOCore) Sync() error {
	return c.sink.bws.Sync()
}

// Stop 停止后台协程，最多等待 stopTimeout 排空队列。可重复调用。
func (c *asyncTextIOCore) Stop() {
	c.sink.stop.Do(func() {
		c.sink.cancel()
		<-c.sink.done
	})
}

func (s *asyncSink) background() {
	defer func() {
		s.drainWithTimeout()
		close(s.done)
	}()
	for {
		select {
		case <-s.ctx.Done():
			return
		case ent := <-s.pending:
			s.consume(ent)
		}
	}
}

func (s *asyncSink) consume(ent *entryItem) {
	length := ent.buf.Len()
	metrics.LoggingPendingWriteLength.Dec()
	metrics.LoggingPendingWriteBytes.Sub(float64(length))
	if _, err := s.bws.Write(s.truncate(ent.buf.Bytes())); err != nil {
		metrics.LoggingIOFailure.Inc()
	}
	ent.buf.Free()
	if ent.level > zapcore.ErrorLevel {
		_ = s.bws.Sync()
	}
}

// truncate 把超长日志截到 maxBytesPerLog，保留原来的行尾字节。
func (s *asyncSink) truncate(p []byte) []byte {
	if len(p) <= s.maxBytesPerLog {
		return p
	}
	metrics.LoggingTruncatedWrites.Inc()
	metrics.LoggingTruncatedWriteBytes.Add(float64(len(p) - s.maxBytesPerLog))
	end := p[len(p)-1]
	p = p[:s.maxBytesPerLog]
	p[len(p)-1] = end
	return p
}

func (s *asyncSink) drainWithTimeout() {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case ent := <-s.pending:
				s.consume(ent)
			default:
				if err := s.bws.Stop(); err != nil {
					metrics.LoggingIOFailure.Inc()
				}
				return
			}
		}
	}()
	select {
	case <-drained:
	case <-time.After(s.stopTimeout):
	}
}
