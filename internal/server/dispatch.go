package server

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/respkv/respkv/pkg/resp"
)

// dispatch routes one decoded argument vector to its command handler.
// Command names are case-insensitive. Unknown commands and bad argument
// shapes produce an error reply, never a dropped request or a crashed
// connection.
func (s *Server) dispatch(args []string) resp.Reply {
	name := strings.ToUpper(args[0])
	if handler := s.getCommandHandler(name); handler != nil {
		return handler(args[1:])
	}
	return resp.Errorf("ERR unknown command '%s'", args[0])
}

func (s *Server) getCommandHandler(name string) func([]string) resp.Reply {
	handlers := map[string]func([]string) resp.Reply{
		"PING":   s.handlePing,
		"ECHO":   s.handleEcho,
		"GET":    s.handleGet,
		"SET":    s.handleSet,
		"TYPE":   s.handleType,
		"RPUSH":  s.handleRPush,
		"LPUSH":  s.handleLPush,
		"LPOP":   s.handleLPop,
		"LLEN":   s.handleLLen,
		"LRANGE": s.handleLRange,
		"BLPOP":  s.handleBLPop,
		"BRPOP":  s.handleBRPop,
		"XADD":   s.handleXAdd,
	}
	return handlers[name]
}

func wrongArity(name string) resp.Reply {
	return resp.Errorf("ERR wrong number of arguments for '%s' command", name)
}

func (s *Server) handlePing(_ []string) resp.Reply {
	return resp.SimpleString("PONG")
}

func (s *Server) handleEcho(args []string) resp.Reply {
	if len(args) != 1 {
		return wrongArity("echo")
	}
	return resp.Bulk(args[0])
}

func (s *Server) handleGet(args []string) resp.Reply {
	if len(args) != 1 {
		return wrongArity("get")
	}
	value, ok := s.store.Get(args[0])
	if !ok {
		return resp.NullBulk()
	}
	return resp.Bulk(value)
}

// handleSet stores a string value, optionally with a PX millisecond expiry.
// SET always overwrites: last writer wins.
func (s *Server) handleSet(args []string) resp.Reply {
	if len(args) != 2 && len(args) != 4 {
		return wrongArity("set")
	}

	var ttl time.Duration
	if len(args) == 4 {
		if !strings.EqualFold(args[2], "PX") {
			return resp.Errorf("ERR syntax error")
		}
		ms, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return resp.Errorf("ERR value is not an integer or out of range")
		}
		if ms <= 0 {
			return resp.Errorf("ERR invalid expire time in 'set' command")
		}
		ttl = time.Duration(ms) * time.Millisecond
	}

	s.store.Set(args[0], args[1], ttl)
	return resp.SimpleString("OK")
}

func (s *Server) handleType(args []string) resp.Reply {
	if len(args) != 1 {
		return wrongArity("type")
	}
	return resp.SimpleString(s.store.Type(args[0]))
}

func (s *Server) handleRPush(args []string) resp.Reply {
	if len(args) < 2 {
		return wrongArity("rpush")
	}
	return resp.Integer(int64(s.store.RPush(args[0], args[1:]...)))
}

func (s *Server) handleLPush(args []string) resp.Reply {
	if len(args) < 2 {
		return wrongArity("lpush")
	}
	return resp.Integer(int64(s.store.LPush(args[0], args[1:]...)))
}

// handleLPop distinguishes the two reply shapes: without a count the reply
// is a bulk string or null, with a count it is an array, empty included.
func (s *Server) handleLPop(args []string) resp.Reply {
	switch len(args) {
	case 1:
		value, ok := s.store.LPopOne(args[0])
		if !ok {
			return resp.NullBulk()
		}
		return resp.Bulk(value)
	case 2:
		count, err := strconv.Atoi(args[1])
		if err != nil {
			return resp.Errorf("ERR value is not an integer or out of range")
		}
		if count < 0 {
			return resp.Errorf("ERR value is out of range, must be positive")
		}
		return resp.Array(s.store.LPop(args[0], count))
	default:
		return wrongArity("lpop")
	}
}

func (s *Server) handleLLen(args []string) resp.Reply {
	if len(args) != 1 {
		return wrongArity("llen")
	}
	return resp.Integer(int64(s.store.LLen(args[0])))
}

func (s *Server) handleLRange(args []string) resp.Reply {
	if len(args) != 3 {
		return wrongArity("lrange")
	}
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return resp.Errorf("ERR value is not an integer or out of range")
	}
	stop, err := strconv.Atoi(args[2])
	if err != nil {
		return resp.Errorf("ERR value is not an integer or out of range")
	}
	return resp.Array(s.store.LRange(args[0], start, stop))
}

func (s *Server) handleBLPop(args []string) resp.Reply {
	return s.blockingPop("blpop", args, s.store.BLPop)
}

func (s *Server) handleBRPop(args []string) resp.Reply {
	return s.blockingPop("brpop", args, s.store.BRPop)
}

// blockingPop parses a seconds timeout (0 meaning wait forever) and parks
// the calling goroutine in the store. A timeout resolves to a null array,
// a delivery to the [key, element] pair.
func (s *Server) blockingPop(name string, args []string, pop func(string, time.Duration) (string, bool)) resp.Reply {
	if len(args) != 2 {
		return wrongArity(name)
	}
	seconds, err := strconv.ParseFloat(args[1], 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return resp.Errorf("ERR timeout is not a float or out of range")
	}
	if seconds < 0 {
		return resp.Errorf("ERR timeout is negative")
	}
	// A finite but huge value would overflow the nanosecond duration and
	// wrap negative, turning a bounded wait into an indefinite one.
	if seconds > float64(math.MaxInt64/int64(time.Second)) {
		return resp.Errorf("ERR timeout is out of range")
	}

	key := args[0]
	value, ok := pop(key, time.Duration(seconds*float64(time.Second)))
	if !ok {
		return resp.NullArray()
	}
	return resp.Array([]string{key, value})
}

func (s *Server) handleXAdd(args []string) resp.Reply {
	if len(args) < 4 || len(args)%2 != 0 {
		return wrongArity("xadd")
	}
	id, err := s.store.XAdd(args[0], args[1], args[2:])
	if err != nil {
		return resp.Errorf("ERR %v", err)
	}
	return resp.Bulk(id.String())
}
