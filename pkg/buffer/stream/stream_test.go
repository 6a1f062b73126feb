package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

type StreamSuite struct {
	suite.Suite
}

func (s *StreamSuite) TestWriteThenRead() {
	st := NewWritable(0)
	s.Equal(0, st.Cap())

	n, err := st.Write([]byte("main"))
	s.NoError(err)
	s.Equal(4, n)
	s.NoError(st.WriteByte('_'))
	_, err = st.WriteString("menu")
	s.NoError(err)

	s.Equal(9, st.Size())
	s.Equal(9, st.Len())
	s.Equal("main_menu", string(st.Bytes()))

	p, err := st.Next(4)
	s.NoError(err)
	s.Equal("main", string(p))
	s.Equal(4, st.Tell())

	c, err := st.ReadByte()
	s.NoError(err)
	s.Equal(byte('_'), c)
	s.Equal(4, st.Len())
}

func (s *StreamSuite) TestUnderrun() {
	st := NewReadable([]byte{1, 2, 3})
	_, err := st.Next(4)
	s.ErrorIs(err, merr.ErrStreamUnderrun)
	s.Equal(0, st.Tell(), "failed read must not move the cursor")

	_, err = st.Next(3)
	s.NoError(err)
	_, err = st.ReadByte()
	s.ErrorIs(err, merr.ErrStreamUnderrun)
	_, err = st.Peek(1)
	s.ErrorIs(err, merr.ErrStreamUnderrun)

	_, err = st.Next(-1)
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *StreamSuite) TestReadOnly() {
	st := NewReadable([]byte("abc"))
	s.True(st.ReadOnly())
	_, err := st.Write([]byte{1})
	s.ErrorIs(err, merr.ErrStreamReadOnly)
	s.ErrorIs(st.WriteByte(1), merr.ErrStreamReadOnly)
	_, err = st.Extend(2)
	s.ErrorIs(err, merr.ErrStreamReadOnly)

	_, _ = st.Next(2)
	st.Reset()
	s.Equal(0, st.Tell())
	s.Equal(3, st.Size())
}

func (s *StreamSuite) TestGrowth() {
	st := NewWritable(0)
	s.NoError(st.WriteByte(0))
	s.Equal(DefaultBufferSize, st.Cap())

	_, err := st.Write(make([]byte, DefaultBufferSize))
	s.NoError(err)
	s.Equal(2*DefaultBufferSize, st.Cap())

	big := NewWritable(bufferGrowThreshold)
	_, err = big.Write(make([]byte, bufferGrowThreshold+1))
	s.NoError(err)
	s.Equal(bufferGrowThreshold+bufferGrowThreshold/4, big.Cap())
}

func (s *StreamSuite) TestAllocationFailure() {
	st := NewWritable(0, WithMaxSize(16))
	_, err := st.Write(make([]byte, 16))
	s.NoError(err)
	s.Equal(16, st.Cap())

	err = st.WriteByte(1)
	s.ErrorIs(err, merr.ErrAllocationFailure)
	s.Equal(16, st.Size())
}

func (s *StreamSuite) TestExtend() {
	st := NewWritable(4)
	p, err := st.Extend(8)
	s.NoError(err)
	s.Len(p, 8)
	p[0] = 0xff
	s.Equal(8, st.Size())
	s.Equal(byte(0xff), st.Bytes()[0])
}

func (s *StreamSuite) TestTruncate() {
	st := NewWritable(0)
	_, _ = st.WriteString("window")
	_, _ = st.Next(5)
	s.NoError(st.Truncate(3))
	s.Equal(3, st.Size())
	s.Equal(3, st.Tell())
	s.Equal("win", string(st.Bytes()))
	s.ErrorIs(st.Truncate(4), merr.ErrParameterInvalid)
	s.ErrorIs(NewReadable([]byte{1}).Truncate(0), merr.ErrStreamReadOnly)
}

func (s *StreamSuite) TestSeek() {
	st := NewReadable([]byte("hello"))
	s.NoError(st.Seek(5))
	s.Equal(0, st.Len())
	s.NoError(st.Seek(1))
	p, err := st.Next(2)
	s.NoError(err)
	s.Equal("el", string(p))

	s.ErrorIs(st.Seek(6), merr.ErrParameterInvalid)
	s.ErrorIs(st.Seek(-1), merr.ErrParameterInvalid)
}

func (s *StreamSuite) TestIOInterfaces() {
	var (
		_ io.Reader     = (*Stream)(nil)
		_ io.Writer     = (*Stream)(nil)
		_ io.ByteReader = (*Stream)(nil)
		_ io.ByteWriter = (*Stream)(nil)
		_ io.WriterTo   = (*Stream)(nil)
	)

	st := NewWritable(0)
	_, _ = st.WriteString("payload")
	out, err := io.ReadAll(st)
	s.NoError(err)
	s.Equal("payload", string(out))

	n, err := st.Read(make([]byte, 1))
	s.Equal(0, n)
	s.Equal(io.EOF, err)

	st.Reset()
	s.Equal(0, st.Size())
	_, _ = st.WriteString("again")
	var buf bytes.Buffer
	written, err := st.WriteTo(&buf)
	s.NoError(err)
	s.EqualValues(5, written)
	s.Equal("again", buf.String())
}

func TestStream(t *testing.T) {
	suite.Run(t, new(StreamSuite))
}
