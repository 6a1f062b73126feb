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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Service related
	ErrServiceInternal      = newUIError("service internal error", 5, false)
	ErrServiceUnimplemented = newUIError("service unimplemented", 10, false)

	// Parameter related
	ErrParameterInvalid  = newUIError("invalid parameter", 1100, false)
	ErrParameterMissing  = newUIError("missing parameter", 1101, false)
	ErrParameterTooLarge = newUIError("parameter too large", 1102, false)

	// Stream related
	ErrStreamUnderrun    = newUIError("stream underrun", 4000, false)
	ErrStreamReadOnly    = newUIError("stream is read only", 4001, false)
	ErrAllocationFailure = newUIError("stream allocation failure", 4002, false) // 视为致命错误，当前操作不可继续

	// Pickle related
	ErrPickleTruncated      = newUIError("pickled record truncated", 4100, false)
	ErrPickleUnknownTag     = newUIError("unknown pickle tag", 4101, false)
	ErrPickleUnencodable    = newUIError("value is not encodable", 4102, false)
	ErrPickleSchemaMismatch = newUIError("pickled schema mismatch", 4103, false)

	// Archive related
	ErrArchiveCorrupted = newUIError("save archive corrupted", 4200, false)
	ErrArchiveVersion   = newUIError("save archive version unsupported", 4201, false)

	// Window related
	ErrWindowInvalid  = newUIError("invalid window", 4300, false)
	ErrWindowNotFound = newUIError("window not found", 4301, false)

	// General
	ErrOperationNotSupported = newUIError("unsupported operation", 3000, false)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to uiError
	errUnexpected = newUIError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*uiError)

func WithDetail(detail string) errorOption {
	return func(err *uiError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *uiError) {
		err.errType = etype
	}
}

type uiError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newUIError(msg string, code int32, retriable bool, options ...errorOption) uiError {
	err := uiError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e uiError) code() int32 {
	return e.errCode
}

func (e uiError) Error() string {
	return e.msg
}

func (e uiError) Detail() string {
	return e.detail
}

func (e uiError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(uiError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// 为了让 merr 能识别多个错误，这里约定多个错误的 cause 为最后一个错误。
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
