/*
NAME
  status.go

DESCRIPTION
  status.go defines the status taxonomy returned by every rc engine
  operation, and an error type that carries a Status alongside the usual
  Go error chain.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package rc provides a real-time bitrate rate controller for VP8, VP9 and
// AV1, modelled on the buffer-level/rate-correction-factor rate control used
// by the libvpx and libaom reference encoders.
package rc

import "fmt"

// Status is returned by every engine operation in place of a bare error, so
// that callers can branch on outcome class without string-matching errors.
type Status int

const (
	StatusSuccess Status = iota
	StatusWarning
	StatusError
	StatusFailed
	StatusInvalidParam
	StatusUnsupportedCodec
	StatusUnimplemented
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	case StatusFailed:
		return "failed"
	case StatusInvalidParam:
		return "invalid parameter"
	case StatusUnsupportedCodec:
		return "unsupported codec"
	case StatusUnimplemented:
		return "unimplemented"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with the Status a caller should act on.
// A nil Err is valid; Error() then reports only the status text.
type Error struct {
	Status Status
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Status.String()
	}
	return fmt.Sprintf("%s: %v", e.Status, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// newError builds an *Error, wrapping msg and args with fmt.Errorf so callers
// of this package can still %w further context at the engine-package level.
func newError(status Status, format string, args ...interface{}) *Error {
	return &Error{Status: status, Err: fmt.Errorf(format, args...)}
}

// NewError is newError exported for use by the codec subpackages.
func NewError(status Status, format string, args ...interface{}) *Error {
	return newError(status, format, args...)
}

// NewUnsupportedCodec builds the Error a backend's Init/UpdateConfig returns
// when handed a Config for a codec it does not implement.
func NewUnsupportedCodec(codec CodecKind) *Error {
	return newError(StatusUnsupportedCodec, "rc: backend does not support codec %s", codec)
}
