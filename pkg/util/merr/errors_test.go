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

package merr

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrPickleSchemaMismatch("rect", "tuple(4)", "int")
	errors.Wrap(err, "failed to unpickle window")
	s.ErrorIs(err, ErrPickleSchemaMismatch)
	s.Equal(Code(ErrPickleSchemaMismatch), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(errUnexpected.errCode, Code(errors.New("plain")))

	sameCodeErr := newUIError("new error", ErrPickleSchemaMismatch.errCode, false)
	s.True(sameCodeErr.Is(ErrPickleSchemaMismatch))
}

func (s *ErrSuite) TestWrap() {
	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid(8, 1, "failed to create"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidRange(1, 1<<16, 0, "depth should be in range"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("name", "no name parameter"), ErrParameterMissing)
	s.ErrorIs(WrapErrParameterTooLarge("unit test"), ErrParameterTooLarge)

	// Stream 相关错误。
	s.ErrorIs(WrapErrStreamUnderrun(8, 3), ErrStreamUnderrun)
	s.ErrorIs(WrapErrStreamReadOnly("write"), ErrStreamReadOnly)
	s.ErrorIs(WrapErrAllocationFailure(1<<31, 1<<30), ErrAllocationFailure)

	// Pickle 相关错误。
	s.ErrorIs(WrapErrPickleTruncated(12, nil), ErrPickleTruncated)
	s.ErrorIs(WrapErrPickleUnknownTag('?', 0), ErrPickleUnknownTag)
	s.ErrorIs(WrapErrPickleUnencodable("chan", "unsupported kind"), ErrPickleUnencodable)
	s.ErrorIs(WrapErrPickleSchemaMismatch("flags", "int", "string"), ErrPickleSchemaMismatch)

	// Archive / Window 相关错误。
	s.ErrorIs(WrapErrArchiveCorrupted("bad magic"), ErrArchiveCorrupted)
	s.ErrorIs(WrapErrArchiveVersion("2.0.0", "1.0.0"), ErrArchiveVersion)
	s.ErrorIs(WrapErrWindowInvalid("hud", "resize mask"), ErrWindowInvalid)
	s.ErrorIs(WrapErrWindowNotFound("hud"), ErrWindowNotFound)
	s.ErrorIs(WrapErrOperationNotSupported("write"), ErrOperationNotSupported)
	s.ErrorIs(WrapErrServiceInternal("never throw out"), ErrServiceInternal)
}

func (s *ErrSuite) TestTruncatedKeepsUnderrun() {
	err := WrapErrPickleTruncated(5, WrapErrStreamUnderrun(8, 2))
	s.ErrorIs(err, ErrPickleTruncated)
	s.ErrorIs(err, ErrStreamUnderrun)
	s.Equal(Code(ErrPickleTruncated), Code(err))
	s.Contains(err.Error(), "offset=5")
}

func (s *ErrSuite) TestFieldsInMessage() {
	err := WrapErrPickleUnknownTag(0x7f, 9)
	s.Equal("unknown pickle tag[tag=0x7f][offset=9]", err.Error())
}

func (s *ErrSuite) TestInputErrorType() {
	err := WrapErrAsInputError(ErrWindowInvalid)
	s.Equal(InputError, GetErrorType(err))
	s.Equal(SystemError, GetErrorType(errors.New("plain")))

	err = WrapErrAsInputErrorWhen(ErrPickleSchemaMismatch, ErrPickleSchemaMismatch)
	s.Equal(InputError, GetErrorType(err))
	s.False(IsRetryableErr(err))
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrStreamUnderrun(1, 0), WrapErrPickleTruncated(0, nil))
	s.Equal(Code(ErrPickleTruncated), Code(err))
}

func (s *ErrSuite) TestCanceledOrTimeout() {
	s.True(IsCanceledOrTimeout(errors.Wrap(context.Canceled, "stop")))
	s.False(IsCanceledOrTimeout(ErrStreamUnderrun))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
