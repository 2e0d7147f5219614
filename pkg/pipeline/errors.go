package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"
)

// ErrorKind classifies pipeline failures for callers at the encoder boundary.
type ErrorKind int

const (
	KindOK ErrorKind = iota
	KindInvalidArgument
	KindInvalidState
	KindQuantization
	KindMux
	KindThreadLost
	KindNotFound
	KindPermissionDenied
	KindAlreadyExists
	KindInvalidInput
	KindTimedOut
	KindShortWrite
	KindInterrupted
	KindUnexpectedEOF
	KindAborted
	KindOther
)

var kindNames = map[ErrorKind]string{
	KindOK:               "ok",
	KindInvalidArgument:  "invalid argument",
	KindInvalidState:     "invalid state",
	KindQuantization:     "quantization failed",
	KindMux:              "gif write failed",
	KindThreadLost:       "worker lost",
	KindNotFound:         "not found",
	KindPermissionDenied: "permission denied",
	KindAlreadyExists:    "already exists",
	KindInvalidInput:     "invalid input",
	KindTimedOut:         "timed out",
	KindShortWrite:       "short write",
	KindInterrupted:      "interrupted",
	KindUnexpectedEOF:    "unexpected end of file",
	KindAborted:          "aborted",
	KindOther:            "other error",
}

// String returns a short description of the kind.
func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsIO reports whether the kind describes an output failure.
func (k ErrorKind) IsIO() bool {
	switch k {
	case KindNotFound, KindPermissionDenied, KindAlreadyExists, KindTimedOut,
		KindShortWrite, KindInterrupted, KindUnexpectedEOF, KindOther:
		return true
	}
	return false
}

// Error is a classified pipeline error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Errorf creates an Error whose cause is formatted from format and args.
func Errorf(kind ErrorKind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindAborted}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrAborted      = &Error{Kind: KindAborted}
)

// KindOf classifies any error. Classified errors keep their kind;
// well-known I/O conditions are mapped; anything else is KindOther.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindOK
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, fs.ErrExist):
		return KindAlreadyExists
	case errors.Is(err, fs.ErrInvalid):
		return KindInvalidInput
	case errors.Is(err, io.ErrShortWrite):
		return KindShortWrite
	case errors.Is(err, io.ErrUnexpectedEOF):
		return KindUnexpectedEOF
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimedOut
	case errors.Is(err, context.Canceled), errors.Is(err, syscall.EINTR):
		return KindInterrupted
	}
	return KindOther
}

// Classify returns err as an *Error, deriving the kind with KindOf when
// err is not already classified.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}
