package resp

import (
	"io"
	"strconv"
	"strings"
)

const crlf = "\r\n"

const (
	markSimpleString = '+'
	markError        = '-'
	markInteger      = ':'
	markBulkString   = '$'
	markArray        = '*'
)

// Encode writes v to w using the protocol wire format. Simple strings and
// error replies must not contain CR or LF; such content belongs in a bulk
// string.
func Encode(w io.Writer, v Value) error {
	switch v.Kind {
	case KindNull:
		_, err := io.WriteString(w, "$-1"+crlf)
		return err
	case KindSimpleString:
		return writeLine(w, markSimpleString, v.Str)
	case KindError:
		return writeLine(w, markError, v.Str)
	case KindInteger:
		return writeLine(w, markInteger, strconv.FormatInt(v.Num, 10))
	case KindBulkString:
		return writeBulk(w, v.Bulk)
	case KindArray:
		if err := writeLine(w, markArray, strconv.Itoa(len(v.Elems))); err != nil {
			return err
		}
		for _, e := range v.Elems {
			if err := Encode(w, e); err != nil {
				return err
			}
		}
		return nil
	default:
		return ErrInvalidKind
	}
}

func writeLine(w io.Writer, mark byte, body string) error {
	if strings.ContainsAny(body, crlf) {
		return ErrUnsafeContent
	}
	buf := make([]byte, 0, 1+len(body)+2)
	buf = append(buf, mark)
	buf = append(buf, body...)
	buf = append(buf, crlf...)
	_, err := w.Write(buf)
	return err
}

func writeBulk(w io.Writer, payload []byte) error {
	buf := make([]byte, 0, 1+20+2+len(payload)+2)
	buf = append(buf, markBulkString)
	buf = strconv.AppendInt(buf, int64(len(payload)), 10)
	buf = append(buf, crlf...)
	buf = append(buf, payload...)
	buf = append(buf, crlf...)
	_, err := w.Write(buf)
	return err
}
