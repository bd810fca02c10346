package resp

import "strings"

// Kind identifies the protocol type carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindSimpleString
	KindError
	KindInteger
	KindBulkString
	KindArray
)

// String returns the protocol name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindSimpleString:
		return "simple string"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulkString:
		return "bulk string"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is a single protocol value. The zero Value is Null.
//
// Exactly one payload field is meaningful for a given Kind: Str for simple
// strings and errors, Num for integers, Bulk for bulk strings, Elems for
// arrays.
type Value struct {
	Kind  Kind
	Str   string
	Num   int64
	Bulk  []byte
	Elems []Value
}

// NullValue returns the null value.
func NullValue() Value {
	return Value{Kind: KindNull}
}

// SimpleStringValue builds a simple string value.
func SimpleStringValue(s string) Value {
	return Value{Kind: KindSimpleString, Str: s}
}

// ErrorValue builds an error reply value.
func ErrorValue(message string) Value {
	return Value{Kind: KindError, Str: message}
}

// IntegerValue builds an integer value.
func IntegerValue(n int64) Value {
	return Value{Kind: KindInteger, Num: n}
}

// BulkStringValue builds a bulk string value from a string.
func BulkStringValue(s string) Value {
	return Value{Kind: KindBulkString, Bulk: []byte(s)}
}

// BulkBytesValue builds a bulk string value from a copy of b.
func BulkBytesValue(b []byte) Value {
	buf := make([]byte, len(b))
	copy(buf, b)
	return Value{Kind: KindBulkString, Bulk: buf}
}

// ArrayValue builds an array value from elems without copying.
func ArrayValue(elems ...Value) Value {
	return Value{Kind: KindArray, Elems: elems}
}

// IsNull reports whether the value is the protocol null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsError reports whether the value is an error reply.
func (v Value) IsError() bool {
	return v.Kind == KindError
}

// Text returns the value as a string. Simple strings and bulk strings
// qualify; every other kind returns ErrKindMismatch.
func (v Value) Text() (string, error) {
	switch v.Kind {
	case KindSimpleString:
		return v.Str, nil
	case KindBulkString:
		return string(v.Bulk), nil
	default:
		return "", ErrKindMismatch
	}
}

// Bytes returns a copy of the bulk string payload.
func (v Value) Bytes() ([]byte, error) {
	if v.Kind != KindBulkString {
		return nil, ErrKindMismatch
	}
	buf := make([]byte, len(v.Bulk))
	copy(buf, v.Bulk)
	return buf, nil
}

// Int returns the integer payload.
func (v Value) Int() (int64, error) {
	if v.Kind != KindInteger {
		return 0, ErrKindMismatch
	}
	return v.Num, nil
}

// Elements returns the array elements without copying.
func (v Value) Elements() ([]Value, error) {
	if v.Kind != KindArray {
		return nil, ErrKindMismatch
	}
	return v.Elems, nil
}

// Err returns the error reply as a *ServerError, or nil when the value is
// not an error reply.
func (v Value) Err() error {
	if v.Kind != KindError {
		return nil
	}
	return &ServerError{Message: v.Str}
}

// ServerError is an error reply received from the peer.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Code returns the leading word of the message, the conventional error
// class ("ERR", "NOSCRIPT", "NOAUTH", ...).
func (e *ServerError) Code() string {
	if i := strings.IndexByte(e.Message, ' '); i >= 0 {
		return e.Message[:i]
	}
	return e.Message
}
