// Copyright (c) 2019 The Gnet Authors. All rights reserved.
// Copyright (c) 2019 Chao yuepan, Allen Xu
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package stream 实现了带独立读写游标的连续字节流，供 pickle 编解码使用。
//
// 与环形缓冲区不同，Stream 的数据始终连续存放：写游标 w 之前为有效数据，
// 读游标 r 只能在 [0, w] 范围内移动，读取越过 w 时返回 underrun 错误，
// 绝不会返回未初始化或补零的字节。
package stream

import (
	"io"

	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

const (
	// DefaultBufferSize 是可写流首次分配时的最小容量。
	DefaultBufferSize = 64
	// MaxSize 是可写流默认允许增长到的最大容量（1GB）。
	MaxSize             = 1 << 30
	bufferGrowThreshold = 4 * 1024 // 4KB
)

// Stream 是一段连续字节缓冲区，带有读游标与写游标。
//
// 不变式：0 <= r <= w <= len(buf)。
// 同一个 Stream 不支持并发访问。
type Stream struct {
	buf      []byte // 底层字节切片
	r        int    // 下一次读取位置
	w        int    // 下一次写入位置，即有效数据末尾
	readOnly bool   // 只读流借用外部切片，禁止写入
	maxSize  int    // 可写流允许的最大容量
}

// Option 用于定制可写流。
type Option func(*Stream)

// WithMaxSize 设置可写流允许增长到的最大容量。
func WithMaxSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// NewWritable 创建一个初始容量为 size 的空可写流。
// size 为 0 时延迟到第一次写入才分配内存。
func NewWritable(size int, opts ...Option) *Stream {
	s := &Stream{maxSize: MaxSize}
	for _, opt := range opts {
		opt(s)
	}
	if size > s.maxSize {
		size = s.maxSize
	}
	if size > 0 {
		s.buf = make([]byte, size)
	}
	return s
}

// NewReadable 创建一个借用 b 的只读流，写游标位于 len(b)。
// 调用方在流使用期间不得修改 b。
func NewReadable(b []byte) *Stream {
	return &Stream{
		buf:      b,
		w:        len(b),
		readOnly: true,
		maxSize:  len(b),
	}
}

// Write 实现 io.Writer，把 p 追加到写游标处，必要时扩容。
func (s *Stream) Write(p []byte) (n int, err error) {
	if err = s.grow(len(p)); err != nil {
		return 0, err
	}
	n = copy(s.buf[s.w:], p)
	s.w += n
	return n, nil
}

// WriteByte 实现 io.ByteWriter。
func (s *Stream) WriteByte(c byte) error {
	if err := s.grow(1); err != nil {
		return err
	}
	s.buf[s.w] = c
	s.w++
	return nil
}

// WriteString 把字符串内容追加到写游标处。
func (s *Stream) WriteString(str string) (int, error) {
	if err := s.grow(len(str)); err != nil {
		return 0, err
	}
	n := copy(s.buf[s.w:], str)
	s.w += n
	return n, nil
}

// Extend 在写游标处预留 n 个字节并返回这段可写切片，写游标同时前进 n。
// 返回的切片在下一次写入前有效，适合定长整数的原地编码。
func (s *Stream) Extend(n int) ([]byte, error) {
	if n < 0 {
		return nil, merr.WrapErrParameterInvalidRange(0, MaxSize, n, "extend size")
	}
	if err := s.grow(n); err != nil {
		return nil, err
	}
	p := s.buf[s.w : s.w+n]
	s.w += n
	return p, nil
}

// Next 返回接下来的 n 个字节并前进读游标。
// 剩余字节不足 n 时返回 ErrStreamUnderrun，读游标保持不变。
// 返回的切片与流共享底层内存。
func (s *Stream) Next(n int) ([]byte, error) {
	if n < 0 {
		return nil, merr.WrapErrParameterInvalidRange(0, s.w, n, "next size")
	}
	if remaining := s.w - s.r; n > remaining {
		return nil, merr.WrapErrStreamUnderrun(n, remaining)
	}
	p := s.buf[s.r : s.r+n]
	s.r += n
	return p, nil
}

// Peek 返回接下来的 n 个字节，但不会前进读游标。
func (s *Stream) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, merr.WrapErrParameterInvalidRange(0, s.w, n, "peek size")
	}
	if remaining := s.w - s.r; n > remaining {
		return nil, merr.WrapErrStreamUnderrun(n, remaining)
	}
	return s.buf[s.r : s.r+n], nil
}

// Read 实现 io.Reader：尽可能多地读取可用数据，无数据时返回 io.EOF。
func (s *Stream) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.r == s.w {
		return 0, io.EOF
	}
	n = copy(p, s.buf[s.r:s.w])
	s.r += n
	return n, nil
}

// ReadByte 实现 io.ByteReader，无剩余数据时返回 ErrStreamUnderrun。
func (s *Stream) ReadByte() (byte, error) {
	if s.r == s.w {
		return 0, merr.WrapErrStreamUnderrun(1, 0)
	}
	c := s.buf[s.r]
	s.r++
	return c, nil
}

// WriteTo 实现 io.WriterTo，把未读数据全部写入 w。
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	if s.r == s.w {
		return 0, nil
	}
	remaining := s.w - s.r
	n, err := w.Write(s.buf[s.r:s.w])
	s.r += n
	if err == nil && n < remaining {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// Tell 返回当前读游标。
func (s *Stream) Tell() int { return s.r }

// Len 返回尚未读取的字节数。
func (s *Stream) Len() int { return s.w - s.r }

// Size 返回写游标，即已写入的有效数据长度。
func (s *Stream) Size() int { return s.w }

// Cap 返回底层缓冲区容量。
func (s *Stream) Cap() int { return len(s.buf) }

// ReadOnly 表示该流是否借用外部切片。
func (s *Stream) ReadOnly() bool { return s.readOnly }

// Bytes 返回已写入的全部数据 [0:w]。
// 返回的切片在下一次写入后可能失效。
func (s *Stream) Bytes() []byte { return s.buf[:s.w] }

// Seek 把读游标移动到 off，off 必须位于 [0, Size()] 内。
func (s *Stream) Seek(off int) error {
	if off < 0 || off > s.w {
		return merr.WrapErrParameterInvalidRange(0, s.w, off, "seek offset out of range")
	}
	s.r = off
	return nil
}

// Truncate 丢弃写游标 n 之后的数据，n 必须位于 [0, Size()] 内。
// 读游标超过 n 时一并回退到 n。
func (s *Stream) Truncate(n int) error {
	if s.readOnly {
		return merr.WrapErrStreamReadOnly("truncate")
	}
	if n < 0 || n > s.w {
		return merr.WrapErrParameterInvalidRange(0, s.w, n, "truncate offset out of range")
	}
	s.w = n
	if s.r > n {
		s.r = n
	}
	return nil
}

// Reset 清空流的读写游标；只读流只会回退读游标。
func (s *Stream) Reset() {
	s.r = 0
	if !s.readOnly {
		s.w = 0
	}
}

// grow 确保写游标之后至少还有 n 个字节可写。
// 容量小于 4KB 时按倍数增长，之后每次增长 25%，且不超过 maxSize。
func (s *Stream) grow(n int) error {
	if s.readOnly {
		return merr.WrapErrStreamReadOnly("write")
	}
	need := s.w + n
	if need <= len(s.buf) {
		return nil
	}
	if need < s.w || need > s.maxSize {
		return merr.WrapErrAllocationFailure(need, s.maxSize)
	}

	newCap := len(s.buf)
	if newCap < DefaultBufferSize {
		newCap = DefaultBufferSize
	}
	for newCap < need {
		if newCap < bufferGrowThreshold {
			newCap += newCap
		} else {
			newCap += newCap / 4
		}
	}
	if newCap > s.maxSize {
		newCap = s.maxSize
	}

	newBuf := make([]byte, newCap)
	copy(newBuf, s.buf[:s.w])
	s.buf = newBuf
	return nil
}
