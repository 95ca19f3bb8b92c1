// Package resp implements the RESP wire protocol used for RespKV client-server communication.
//
// Requests are array-of-bulk-strings frames: `*<n>\r\n` followed by n
// bulk-string elements `$<len>\r\n<bytes>\r\n`. Replies come in five shapes:
// simple string, bulk string (including the null bulk string), integer,
// array of bulk strings, and simple error.
//
// The Reader is a resumable decoder over a buffered stream: a frame split
// across several socket reads is assembled transparently, and several
// pipelined frames arriving in one read are consumed one frame per call,
// the remainder staying buffered for the next call.
//
// Example usage:
//
//	r := resp.NewReader(conn)
//	args, err := r.ReadCommand()
//	if errors.Is(err, resp.ErrProtocol) {
//		// malformed framing: close the connection
//	}
//
//	reply := resp.Bulk("hello")
//	conn.Write(reply.Encode())
//
// Malformed framing (non-numeric or oversized lengths, a missing CRLF, an unexpected
// type byte) is reported as an error wrapping ErrProtocol. Protocol errors
// are fatal to the connection that produced them, never to the process.
package resp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrProtocol is the sentinel wrapped by every framing error returned from
// the Reader. Callers should treat a matching error as fatal to the
// connection.
var ErrProtocol = errors.New("protocol error")

// Frame size limits, matching Redis's protocol limits. Lengths are
// client-controlled; anything past these bounds is rejected before any
// allocation happens, so a hostile header cannot commit memory or
// overflow make.
const (
	// MaxArrayLen caps the element count of a request or reply array.
	MaxArrayLen = 1024 * 1024

	// MaxBulkLen caps the byte length of a single bulk string (512MB).
	MaxBulkLen = 512 * 1024 * 1024
)

// Reader decodes RESP frames from a byte stream. It is not safe for
// concurrent use; each connection owns exactly one Reader.
type Reader struct {
	br *bufio.Reader
}

// NewReader returns a Reader decoding frames from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadCommand reads one request frame and returns its argument vector.
// The first element is the command name. It returns io.EOF unwrapped when
// the stream ends cleanly between frames, so callers can distinguish a
// client disconnect from a protocol violation.
func (r *Reader) ReadCommand() ([]string, error) {
	n, err := r.readSizeLine('*')
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: empty command array", ErrProtocol)
	}

	args := make([]string, n)
	for i := range args {
		arg, err := r.readBulk()
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

// ReadReply reads one reply frame of any of the five supported shapes.
// It is the client-side counterpart of Reply.Encode.
func (r *Reader) ReadReply() (Reply, error) {
	t, err := r.br.ReadByte()
	if err != nil {
		return Reply{}, err
	}

	switch t {
	case '+':
		line, err := r.readLine()
		if err != nil {
			return Reply{}, err
		}
		return SimpleString(line), nil
	case '-':
		line, err := r.readLine()
		if err != nil {
			return Reply{}, err
		}
		return Reply{Type: TypeError, Str: line}, nil
	case ':':
		line, err := r.readLine()
		if err != nil {
			return Reply{}, err
		}
		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: bad integer reply %q", ErrProtocol, line)
		}
		return Integer(n), nil
	case '$':
		if err := r.br.UnreadByte(); err != nil {
			return Reply{}, err
		}
		n, err := r.readSizeLine('$')
		if err != nil {
			return Reply{}, err
		}
		if n < 0 {
			return NullBulk(), nil
		}
		s, err := r.readBulkBody(n)
		if err != nil {
			return Reply{}, err
		}
		return Bulk(s), nil
	case '*':
		if err := r.br.UnreadByte(); err != nil {
			return Reply{}, err
		}
		n, err := r.readSizeLine('*')
		if err != nil {
			return Reply{}, err
		}
		if n < 0 {
			return Reply{Type: TypeNullArray}, nil
		}
		elems := make([]string, n)
		for i := range elems {
			elems[i], err = r.readBulk()
			if err != nil {
				return Reply{}, err
			}
		}
		return Array(elems), nil
	default:
		return Reply{}, fmt.Errorf("%w: unexpected type byte %q", ErrProtocol, t)
	}
}

// readLine reads up to CRLF and returns the line without the terminator.
func (r *Reader) readLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return "", fmt.Errorf("%w: truncated frame", ErrProtocol)
		}
		return "", err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", fmt.Errorf("%w: line missing CRLF terminator", ErrProtocol)
	}
	return line[:len(line)-2], nil
}

// readSizeLine reads a `<prefix><n>\r\n` header line and returns n, bounded
// by the frame size limit for the prefix's shape. A negative n is only
// meaningful for reply decoding (null bulk/array).
func (r *Reader) readSizeLine(prefix byte) (int, error) {
	t, err := r.br.ReadByte()
	if err != nil {
		return 0, err
	}
	if t != prefix {
		return 0, fmt.Errorf("%w: expected %q, got %q", ErrProtocol, prefix, t)
	}
	line, err := r.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad length %q", ErrProtocol, line)
	}
	limit := int64(MaxBulkLen)
	if prefix == '*' {
		limit = MaxArrayLen
	}
	if n > limit {
		return 0, fmt.Errorf("%w: length %d exceeds limit %d", ErrProtocol, n, limit)
	}
	return int(n), nil
}

func (r *Reader) readBulk() (string, error) {
	n, err := r.readSizeLine('$')
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("%w: negative bulk length in request", ErrProtocol)
	}
	return r.readBulkBody(n)
}

func (r *Reader) readBulkBody(n int) (string, error) {
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return "", fmt.Errorf("%w: truncated bulk string", ErrProtocol)
		}
		return "", err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return "", fmt.Errorf("%w: bulk string missing CRLF terminator", ErrProtocol)
	}
	return string(buf[:n]), nil
}
