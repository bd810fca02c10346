package resp

import "errors"

var (
	ErrInvalidPrefix  = errors.New("resp: invalid type prefix")
	ErrBadLineEnding  = errors.New("resp: bad line ending")
	ErrLineTooLong    = errors.New("resp: line too long")
	ErrInvalidInteger = errors.New("resp: invalid integer")
	ErrInvalidLength  = errors.New("resp: invalid length")
	ErrBulkTooLarge   = errors.New("resp: bulk payload too large")
	ErrArrayTooLarge  = errors.New("resp: array too large")
	ErrNestingTooDeep = errors.New("resp: nesting too deep")
	ErrTruncated      = errors.New("resp: truncated data")
	ErrUnsafeContent  = errors.New("resp: unsafe line content")
	ErrKindMismatch   = errors.New("resp: value kind mismatch")
	ErrInvalidKind    = errors.New("resp: invalid value kind")
)
