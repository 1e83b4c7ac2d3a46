// Package errors implements the store's error taxonomy (spec §7), grounded
// on the teacher's internal/errors/codes.go shape: a structured error type
// with a stable code, a human message, and an optional wrapped cause.
//
// The teacher additionally maps codes to gRPC status codes for its RPC
// surface. This store has none (see DESIGN.md — dropped dependencies), so
// that mapping is not carried over; WithDetail's free-form map is narrowed
// to the handful of fields each constructor actually needs.
package errors

import "fmt"

// Code identifies a class of failure from spec §7.
type Code int

const (
	// CodeTxnNotActive: operation called with an aborted/committed/missing
	// transaction descriptor. No mutation performed.
	CodeTxnNotActive Code = iota + 1
	// CodeKeyExists: non-MVCC insert on an already-present key.
	CodeKeyExists
	// CodeKeyMissing: delete or search found no such key.
	CodeKeyMissing
	// CodeBadRecord: malformed dump-file line; caller skips and continues.
	CodeBadRecord
	// CodeIOFailure: dump/load I/O error, propagated to the caller.
	CodeIOFailure
	// CodeInvalidArgument: malformed call, e.g. an encoded key containing
	// the reserved separator.
	CodeInvalidArgument
)

func (c Code) String() string {
	switch c {
	case CodeTxnNotActive:
		return "txn_not_active"
	case CodeKeyExists:
		return "key_exists"
	case CodeKeyMissing:
		return "key_missing"
	case CodeBadRecord:
		return "bad_record"
	case CodeIOFailure:
		return "io_failure"
	case CodeInvalidArgument:
		return "invalid_argument"
	default:
		return "unknown"
	}
}

// StoreError is a structured error carrying a stable Code alongside a
// human-readable message and an optional wrapped cause.
type StoreError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// Is lets callers write errors.Is(err, &StoreError{Code: errors.CodeKeyMissing})
// by comparing codes rather than pointer identity.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code Code, message string, cause error) *StoreError {
	return &StoreError{Code: code, Message: message, Cause: cause}
}

// TxnNotActive reports that an operation was attempted against a
// transaction that is not ACTIVE.
func TxnNotActive(txnID uint64) *StoreError {
	return newError(CodeTxnNotActive, fmt.Sprintf("transaction %d is not active", txnID), nil)
}

// KeyExists reports that a non-MVCC insert found the key already present.
func KeyExists(key string) *StoreError {
	return newError(CodeKeyExists, fmt.Sprintf("key %q already exists", key), nil)
}

// KeyMissing reports that a delete or search found no such key.
func KeyMissing(key string) *StoreError {
	return newError(CodeKeyMissing, fmt.Sprintf("key %q not found", key), nil)
}

// BadRecord reports a malformed persistence-file line.
func BadRecord(line string) *StoreError {
	return newError(CodeBadRecord, fmt.Sprintf("malformed record %q", line), nil)
}

// IOFailure wraps an I/O error encountered during dump or load.
func IOFailure(message string, cause error) *StoreError {
	return newError(CodeIOFailure, message, cause)
}

// InvalidArgument reports a malformed call.
func InvalidArgument(message string, cause error) *StoreError {
	return newError(CodeInvalidArgument, message, cause)
}

// GetCode extracts the Code from err, or 0 if err is not a *StoreError.
func GetCode(err error) Code {
	if se, ok := err.(*StoreError); ok {
		return se.Code
	}
	return 0
}
