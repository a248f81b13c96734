// Copyright (c) 2025, MinBackup Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodePlatformUnavailable indicates the platform's native tool is
	// missing or unresponsive.
	ErrCodePlatformUnavailable ErrorCode = "PLATFORM_UNAVAILABLE"
	// ErrCodePlatformTimeout indicates a native tool invocation exceeded its
	// configured time limit.
	ErrCodePlatformTimeout ErrorCode = "PLATFORM_TIMEOUT"
	// ErrCodePlatformError indicates a nonzero or otherwise unexpected native
	// tool result.
	ErrCodePlatformError ErrorCode = "PLATFORM_ERROR"
	// ErrCodeVMNotFound indicates the named VM does not exist on any
	// discovered platform.
	ErrCodeVMNotFound ErrorCode = "VM_NOT_FOUND"
	// ErrCodeAmbiguousVM indicates the VM name matched on more than one
	// platform and the caller must disambiguate with a platform hint.
	ErrCodeAmbiguousVM ErrorCode = "AMBIGUOUS_VM"
	// ErrCodeUnknownPlatform indicates a platform hint that does not match
	// any discovered adapter.
	ErrCodeUnknownPlatform ErrorCode = "UNKNOWN_PLATFORM"
	// ErrCodeSnapshotNotFound indicates a named snapshot does not exist.
	ErrCodeSnapshotNotFound ErrorCode = "SNAPSHOT_NOT_FOUND"
	// ErrCodeNameCollision indicates a snapshot name already exists on the VM.
	ErrCodeNameCollision ErrorCode = "NAME_COLLISION"
	// ErrCodeInvalidInterval indicates a non-positive or unparseable
	// scheduler interval.
	ErrCodeInvalidInterval ErrorCode = "INVALID_INTERVAL"
	// ErrCodeInvalidRetentionCount indicates a non-positive retention count.
	ErrCodeInvalidRetentionCount ErrorCode = "INVALID_RETENTION_COUNT"
	// ErrCodeInternal indicates an internal system error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError provides structured error information for better observability.
// It includes an error code for programmatic handling, a human-readable message,
// the underlying cause, and optional context for debugging.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the ErrorCode of err if it is, or wraps, a StructuredError,
// and ErrCodeInternal otherwise. A nil error returns an empty code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err is, or wraps, a StructuredError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *StructuredError
	return stderrors.As(err, &se) && se.Code == code
}
