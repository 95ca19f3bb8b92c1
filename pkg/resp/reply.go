package resp

import (
	"fmt"
	"strconv"
)

// ReplyType identifies the wire shape of a Reply.
type ReplyType uint8

// Reply type constants cover every shape a server may send.
const (
	TypeSimpleString ReplyType = iota // +OK\r\n
	TypeError                         // -ERR message\r\n
	TypeInteger                       // :n\r\n
	TypeBulk                          // $len\r\nbytes\r\n
	TypeNullBulk                      // $-1\r\n
	TypeArray                         // *n\r\n followed by n bulk strings
	TypeNullArray                     // *-1\r\n
)

// Reply represents one typed server reply. The Type field determines which
// payload field is meaningful: Str for simple strings, errors, and bulk
// strings; Int for integers; Elems for arrays.
//
// Example:
//
//	reply := resp.Array([]string{"mylist", "value"})
//	conn.Write(reply.Encode())
type Reply struct {
	Str   string
	Elems []string
	Int   int64
	Type  ReplyType
}

// SimpleString returns a `+s` reply.
func SimpleString(s string) Reply { return Reply{Type: TypeSimpleString, Str: s} }

// Bulk returns a length-prefixed bulk string reply.
func Bulk(s string) Reply { return Reply{Type: TypeBulk, Str: s} }

// NullBulk returns the null bulk string reply ($-1).
func NullBulk() Reply { return Reply{Type: TypeNullBulk} }

// NullArray returns the null array reply (*-1), used for blocking-pop
// timeouts.
func NullArray() Reply { return Reply{Type: TypeNullArray} }

// Integer returns a `:n` reply.
func Integer(n int64) Reply { return Reply{Type: TypeInteger, Int: n} }

// Array returns an array-of-bulk-strings reply. A nil slice encodes as an
// empty array, not a null array.
func Array(elems []string) Reply { return Reply{Type: TypeArray, Elems: elems} }

// Errorf returns a simple error reply with a formatted message. The message
// should carry its own prefix ("ERR ...", "WRONGTYPE ...").
func Errorf(format string, args ...interface{}) Reply {
	return Reply{Type: TypeError, Str: fmt.Sprintf(format, args...)}
}

// IsError reports whether the reply is a simple error.
func (r Reply) IsError() bool { return r.Type == TypeError }

// Encode converts the reply into its wire representation. Encoding is total:
// every well-formed Reply value has an encoding and Encode never fails.
func (r Reply) Encode() []byte {
	switch r.Type {
	case TypeSimpleString:
		return []byte("+" + r.Str + "\r\n")
	case TypeError:
		return []byte("-" + r.Str + "\r\n")
	case TypeInteger:
		return []byte(":" + strconv.FormatInt(r.Int, 10) + "\r\n")
	case TypeBulk:
		return appendBulk(nil, r.Str)
	case TypeNullBulk:
		return []byte("$-1\r\n")
	case TypeArray:
		buf := []byte("*" + strconv.Itoa(len(r.Elems)) + "\r\n")
		for _, e := range r.Elems {
			buf = appendBulk(buf, e)
		}
		return buf
	case TypeNullArray:
		return []byte("*-1\r\n")
	}
	// Unreachable for well-formed replies; keep encoding total anyway.
	return []byte("-ERR unencodable reply\r\n")
}

// EncodeCommand builds a request frame (array of bulk strings) from an
// argument vector. It is the inverse of Reader.ReadCommand.
func EncodeCommand(args []string) []byte {
	buf := []byte("*" + strconv.Itoa(len(args)) + "\r\n")
	for _, a := range args {
		buf = appendBulk(buf, a)
	}
	return buf
}

func appendBulk(buf []byte, s string) []byte {
	buf = append(buf, '$')
	buf = strconv.AppendInt(buf, int64(len(s)), 10)
	buf = append(buf, '\r', '\n')
	buf = append(buf, s...)
	return append(buf, '\r', '\n')
}
