package qwi

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	ErrIO              = errors.New("qwi: i/o error")
	ErrFormat          = errors.New("qwi: invalid format")
	ErrVersionMismatch = errors.New("qwi: format version mismatch")
	ErrResource        = errors.New("qwi: resource limit exceeded")
	ErrCancelled       = errors.New("qwi: operation cancelled")
	ErrValidation      = errors.New("qwi: validation failed")
)

// Format errors. Each wraps ErrFormat.
var (
	ErrInvalidMagic      = fmt.Errorf("%w: not a QWI file", ErrFormat)
	ErrInvalidHeader     = fmt.Errorf("%w: invalid header", ErrFormat)
	ErrInvalidSection    = fmt.Errorf("%w: invalid optional section", ErrFormat)
	ErrTruncated         = fmt.Errorf("%w: truncated file", ErrFormat)
	ErrUnsupportedPlanes = fmt.Errorf("%w: unsupported plane count", ErrFormat)
	ErrUnterminatedTag   = fmt.Errorf("%w: unterminated script tag", ErrFormat)
	ErrInvalidBitstream  = fmt.Errorf("%w: invalid element bitstream", ErrFormat)
)

// ErrorKind classifies a failure surfaced by Load and Save.
type ErrorKind int

const (
	KindIO ErrorKind = iota
	KindFormat
	KindVersion
	KindResource
	KindCancelled
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFormat:
		return "format"
	case KindVersion:
		return "version"
	case KindResource:
		return "resource"
	case KindCancelled:
		return "cancelled"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is returned by Load and Save. Its message names the file so hosts can
// show it to the user as is.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("qwi: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var qe *Error
	if errors.As(err, &qe) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Path: path, Err: err}
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, ErrFormat):
		return KindFormat
	case errors.Is(err, ErrResource), errors.Is(err, ErrLimitExceeded):
		return KindResource
	case errors.Is(err, ErrVersionMismatch):
		return KindVersion
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindIO
	}
}

// readErr maps a failed read of what into the error taxonomy: short reads are
// truncation, everything else is an I/O failure.
func readErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading %s", ErrTruncated, what)
	}
	return fmt.Errorf("%w: reading %s: %w", ErrIO, what, err)
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
