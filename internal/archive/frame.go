package archive

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/danmu-garden-ui/internal/pickle"
	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

const frameHeaderSize = 4

// writeFrame 向 body 追加一帧：4 字节大端长度 + 带 Sentinel 的分段名 + 分段数据。
// 长度不含自身的 4 字节。
func writeFrame(body *stream.Stream, sec Section, o *Options) error {
	headerAt := body.Size()
	if _, err := body.Extend(frameHeaderSize); err != nil {
		return err
	}
	if _, err := pickle.Pickle(pickle.String(sec.Name), body, o.Pickle...); err != nil {
		return errors.Wrapf(err, "pickle section name %s", sec.Name)
	}
	if _, err := body.Write(sec.Data); err != nil {
		return err
	}

	length := body.Size() - headerAt - frameHeaderSize
	if uint64(length) > uint64(o.MaxFrameSize) {
		return merr.WrapErrParameterTooLarge("section "+sec.Name,
			"frame size exceeds max frame size")
	}
	// Extend 之后的写入可能触发扩容，需按偏移回填。
	binary.BigEndian.PutUint32(body.Bytes()[headerAt:], uint32(length))
	return nil
}

// readFrame 从 body 的读游标处读取一帧。返回的 Data 不与 body 共享内存。
func readFrame(body *stream.Stream, o *Options) (Section, error) {
	header, err := body.Next(frameHeaderSize)
	if err != nil {
		return Section{}, merr.Combine(err, merr.WrapErrArchiveCorrupted("truncated frame header"))
	}
	length := binary.BigEndian.Uint32(header)
	if length > o.MaxFrameSize {
		return Section{}, merr.WrapErrArchiveCorrupted("frame size exceeds max frame size")
	}
	frame, err := body.Next(int(length))
	if err != nil {
		return Section{}, merr.Combine(err, merr.WrapErrArchiveCorrupted("truncated frame"))
	}

	name, consumed, err := pickle.Unmarshal(frame, o.Pickle...)
	if err != nil {
		return Section{}, merr.Combine(err, merr.WrapErrArchiveCorrupted("bad section name"))
	}
	s, ok := name.AsString()
	if !ok {
		return Section{}, merr.WrapErrArchiveCorrupted("section name is not a string")
	}

	data := make([]byte, len(frame)-consumed)
	copy(data, frame[consumed:])
	return Section{Name: s, Data: data}, nil
}
