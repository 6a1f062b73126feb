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
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/pkg/log"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case uiError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := err.(uiError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

func WrapErrAsInputError(err error) error {
	if merr, ok := err.(uiError); ok {
		WithErrorType(InputError)(&merr)
		return merr
	}
	return err
}

func WrapErrAsInputErrorWhen(err error, targets ...uiError) error {
	if merr, ok := err.(uiError); ok {
		for _, target := range targets {
			if target.errCode == merr.errCode {
				log.Info("mark error as input error", zap.Error(err))
				WithErrorType(InputError)(&merr)
				return merr
			}
		}
	}
	return err
}

func GetErrorType(err error) ErrorType {
	if merr, ok := err.(uiError); ok {
		return merr.errType
	}

	return SystemError
}

func WrapErrServiceInternal(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrServiceInternal, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// 参数相关错误封装。
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidRange[T any](lower, upper, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		bound("value", actual, lower, upper),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

func WrapErrParameterMissing[T any](param T, msg ...string) error {
	err := wrapFields(ErrParameterMissing,
		value("missing_param", param),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterTooLarge(name string, msg ...string) error {
	err := wrapFields(ErrParameterTooLarge, value("message", name))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Stream 相关错误封装。
func WrapErrStreamUnderrun(want, remaining int, msg ...string) error {
	err := wrapFields(ErrStreamUnderrun,
		value("want", want),
		value("remaining", remaining),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrStreamReadOnly(msg ...string) error {
	err := error(ErrStreamReadOnly)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrAllocationFailure(requested, limit int, msg ...string) error {
	err := wrapFields(ErrAllocationFailure,
		value("requested", requested),
		value("limit", limit),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Pickle 相关错误封装。
//
// WrapErrPickleTruncated 会同时保留底层的 underrun 错误，
// 使 errors.Is 对 ErrPickleTruncated 与 ErrStreamUnderrun 均成立；Code 返回截断错误码。
func WrapErrPickleTruncated(offset int, cause error) error {
	err := wrapFields(ErrPickleTruncated, value("offset", offset))
	if cause == nil {
		return err
	}
	return Combine(cause, err)
}

func WrapErrPickleUnknownTag(tag byte, offset int) error {
	return wrapFields(ErrPickleUnknownTag,
		value("tag", fmt.Sprintf("0x%02x", tag)),
		value("offset", offset),
	)
}

func WrapErrPickleUnencodable(kind any, reason string) error {
	return wrapFieldsWithDesc(ErrPickleUnencodable, reason, value("kind", kind))
}

func WrapErrPickleSchemaMismatch(field string, expected string, actual any) error {
	return wrapFields(ErrPickleSchemaMismatch,
		value("field", field),
		value("expected", expected),
		value("actual", actual),
	)
}

// Archive 相关错误封装。
func WrapErrArchiveCorrupted(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrArchiveCorrupted, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrArchiveVersion(actual, supported string) error {
	return wrapFields(ErrArchiveVersion,
		value("actual", actual),
		value("supported", supported),
	)
}

// Window 相关错误封装。
func WrapErrWindowInvalid(name string, reason string) error {
	return wrapFieldsWithDesc(ErrWindowInvalid, reason, value("window", name))
}

func WrapErrWindowNotFound(name string, msg ...string) error {
	err := wrapFields(ErrWindowNotFound, value("window", name))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrOperationNotSupported(operation string) error {
	return wrapFields(ErrOperationNotSupported, value("operation", operation))
}

func wrapFields(err uiError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err uiError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
