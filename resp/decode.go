package resp

import (
	"bufio"
	"io"
	"strconv"
)

// Limits bounds what Decode will accept from the wire.
type Limits struct {
	// MaxLineBytes caps a single protocol line including its terminator.
	MaxLineBytes int
	// MaxBulkBytes caps a single bulk string payload.
	MaxBulkBytes int
	// MaxArrayElements caps the declared element count of one array.
	MaxArrayElements int
	// MaxDepth caps array nesting. A top-level scalar has depth one.
	MaxDepth int
}

// DefaultLimits returns the limits used when a caller passes the zero
// Limits.
func DefaultLimits() Limits {
	return Limits{
		MaxLineBytes:     64 * 1024,
		MaxBulkBytes:     8 * 1024 * 1024,
		MaxArrayElements: 1024 * 1024,
		MaxDepth:         32,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxLineBytes <= 0 {
		l.MaxLineBytes = def.MaxLineBytes
	}
	if l.MaxBulkBytes <= 0 {
		l.MaxBulkBytes = def.MaxBulkBytes
	}
	if l.MaxArrayElements <= 0 {
		l.MaxArrayElements = def.MaxArrayElements
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	return l
}

// Decode reads a single value from r using the protocol wire format. It
// returns io.EOF only when the stream ends cleanly before the first byte of
// a value; a stream cut mid-value returns ErrTruncated.
func Decode(r *bufio.Reader, limits Limits) (Value, error) {
	return decodeValue(r, limits.withDefaults(), 1)
}

func decodeValue(r *bufio.Reader, limits Limits, depth int) (Value, error) {
	if depth > limits.MaxDepth {
		return Value{}, ErrNestingTooDeep
	}
	line, err := readLine(r, limits.MaxLineBytes)
	if err != nil {
		return Value{}, err
	}
	if len(line) == 0 {
		return Value{}, ErrInvalidPrefix
	}
	mark, body := line[0], string(line[1:])
	switch mark {
	case markSimpleString:
		return SimpleStringValue(body), nil
	case markError:
		return ErrorValue(body), nil
	case markInteger:
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return Value{}, ErrInvalidInteger
		}
		return IntegerValue(n), nil
	case markBulkString:
		return decodeBulk(r, body, limits)
	case markArray:
		return decodeArray(r, body, limits, depth)
	default:
		return Value{}, ErrInvalidPrefix
	}
}

func decodeBulk(r *bufio.Reader, body string, limits Limits) (Value, error) {
	n, err := parseLength(body)
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return NullValue(), nil
	}
	if n > int64(limits.MaxBulkBytes) {
		return Value{}, ErrBulkTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Value{}, ErrTruncated
	}
	tail := make([]byte, 2)
	if _, err := io.ReadFull(r, tail); err != nil {
		return Value{}, ErrTruncated
	}
	if tail[0] != '\r' || tail[1] != '\n' {
		return Value{}, ErrBadLineEnding
	}
	return Value{Kind: KindBulkString, Bulk: payload}, nil
}

func decodeArray(r *bufio.Reader, body string, limits Limits, depth int) (Value, error) {
	n, err := parseLength(body)
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return NullValue(), nil
	}
	if n > int64(limits.MaxArrayElements) {
		return Value{}, ErrArrayTooLarge
	}
	elems := make([]Value, 0, min(n, 64))
	for i := int64(0); i < n; i++ {
		e, err := decodeValue(r, limits, depth+1)
		if err != nil {
			if err == io.EOF {
				err = ErrTruncated
			}
			return Value{}, err
		}
		elems = append(elems, e)
	}
	return Value{Kind: KindArray, Elems: elems}, nil
}

// parseLength parses a bulk or array length line body. -1 is the null
// marker; any other negative value is invalid.
func parseLength(body string) (int64, error) {
	n, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		return 0, ErrInvalidLength
	}
	if n < -1 {
		return 0, ErrInvalidLength
	}
	return n, nil
}

// readLine reads one CRLF-terminated line and returns it without the
// terminator. io.EOF passes through only when no byte was read.
func readLine(r *bufio.Reader, max int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			if len(line) > max {
				return nil, ErrLineTooLong
			}
			continue
		}
		if err == io.EOF && len(line) == 0 {
			return nil, io.EOF
		}
		return nil, ErrTruncated
	}
	if len(line) > max {
		return nil, ErrLineTooLong
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, ErrBadLineEnding
	}
	return line[:len(line)-2], nil
}
