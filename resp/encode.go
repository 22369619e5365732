package resp

import (
	"bytes"
	"errors"
	"strconv"
)

// ErrCRLFInText is returned when a SimpleString request contains a CR or LF,
// which RESP cannot represent on the wire.
var ErrCRLFInText = errors.New("resp: simple string contains CR or LF")

// Encode appends the wire encoding of req to buf. It never emits a Bulk*
// frame whose declared length disagrees with the bytes that follow: the
// length is always computed from the payload actually written.
//
// Encode reserves buf.Grow(n) for header+body+terminator before each write,
// so pipelining many requests back to back causes at most a handful of
// reallocations regardless of how many frames are coalesced into buf.
func Encode(buf *bytes.Buffer, req Request) error {
	switch v := req.(type) {
	case Array:
		writeHeader(buf, '*', len(v))
		for _, child := range v {
			if err := Encode(buf, child); err != nil {
				return err
			}
		}
		return nil

	case BulkString:
		writeBulk(buf, v)
		return nil

	case BulkStatic:
		writeBulk(buf, []byte(v))
		return nil

	case BulkInteger:
		writeBulk(buf, strconv.AppendInt(nil, int64(v), 10))
		return nil

	case SimpleString:
		if containsCRLF(string(v)) {
			return ErrCRLFInText
		}
		buf.Grow(1 + len(v) + 2)
		buf.WriteByte('+')
		buf.WriteString(string(v))
		buf.WriteString("\r\n")
		return nil

	case Integer:
		writeHeaderByte(buf, ':', int64(v))
		return nil

	default:
		return errors.New("resp: unknown request type")
	}
}

// EncodeCommand is a convenience for the common case of a flat command: an
// array of bulk strings built from a name and opaque arguments.
func EncodeCommand(buf *bytes.Buffer, name string, args ...[]byte) error {
	req := make(Array, 0, len(args)+1)
	req = append(req, BulkStatic(name))
	for _, a := range args {
		req = append(req, BulkString(a))
	}
	return Encode(buf, req)
}

func writeHeader(buf *bytes.Buffer, prefix byte, n int) {
	digits := strconv.AppendInt(nil, int64(n), 10)
	buf.Grow(1 + len(digits) + 2)
	buf.WriteByte(prefix)
	buf.Write(digits)
	buf.WriteString("\r\n")
}

func writeHeaderByte(buf *bytes.Buffer, prefix byte, n int64) {
	digits := strconv.AppendInt(nil, n, 10)
	buf.Grow(1 + len(digits) + 2)
	buf.WriteByte(prefix)
	buf.Write(digits)
	buf.WriteString("\r\n")
}

func writeBulk(buf *bytes.Buffer, payload []byte) {
	digits := strconv.AppendInt(nil, int64(len(payload)), 10)
	buf.Grow(1 + len(digits) + 2 + len(payload) + 2)
	buf.WriteByte('$')
	buf.Write(digits)
	buf.WriteString("\r\n")
	buf.Write(payload)
	buf.WriteString("\r\n")
}

func containsCRLF(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			return true
		}
	}
	return false
}
