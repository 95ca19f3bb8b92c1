// Package respkv provides an in-memory data-structure server speaking a
// Redis-compatible RESP wire protocol.
//
// RespKV is a single-process server holding keyed strings with optional
// millisecond expiry, ordered lists with blocking pop semantics, and
// append-only streams with monotonically ordered entry identifiers. It
// serves unboundedly many concurrent TCP clients, one goroutine per
// connection, over a single shared store.
//
// # Architecture Overview
//
// RespKV consists of several key components:
//
//   - Protocol Codec: RESP framing — decodes array-of-bulk-strings
//     requests, encodes the five reply shapes
//   - Data Store: three independent keyspaces (strings, lists, streams)
//     behind one mutex, with lazy and active expiry
//   - Timer Registry: one deadline-ordered heap driving both key expiry
//     and blocking-pop timeouts, with cancel-by-handle
//   - Command Dispatcher: case-insensitive command table with arity and
//     argument validation
//   - Client SDK: single-connection RESP client with typed helpers
//
// # Quick Start
//
// Server:
//
//	import "github.com/respkv/respkv/internal/server"
//	import "github.com/respkv/respkv/pkg/config"
//
//	cfg := config.LoadServerConfig()
//	srv := server.New(cfg)
//	log.Fatal(srv.Start())
//
// Client:
//
//	import "github.com/respkv/respkv/pkg/client"
//
//	c, err := client.Dial("localhost:6379")
//	defer c.Close()
//
//	c.Set("user:123", "john_doe", time.Hour)
//	value, err := c.Get("user:123")
//
//	c.RPush("tasks", "task1", "task2")
//	key, elem, err := c.BLPop("tasks", time.Second)
//
//	id, err := c.XAdd("events", "*", "type", "login")
//
// Any RESP-speaking client works too, redis-cli included:
//
//	redis-cli -p 6379 RPUSH tasks a b c
//	redis-cli -p 6379 LRANGE tasks 0 -1
//
// # Supported Commands
//
// Connection:
//   - PING, ECHO
//
// Strings:
//   - GET, SET (with optional PX millisecond expiry), TYPE
//
// Lists:
//   - RPUSH, LPUSH, LPOP (with optional count), LLEN, LRANGE
//   - BLPOP, BRPOP: blocking pops with second-granularity timeouts
//     (0 waits forever); waiters per key are served strictly FIFO
//
// Streams:
//   - XADD with explicit (ms-seq), auto-sequence (ms-*), or fully
//     automatic (*) entry IDs; IDs are strictly increasing per stream
//
// Unknown commands and malformed arguments produce -ERR replies; a
// malformed frame closes only the offending connection.
//
// # Configuration
//
// Server configuration via flags or environment variables:
//
//	./respkv-server -port 6379 -host 0.0.0.0
//	# or
//	RESPKV_PORT=6379 RESPKV_HOST=0.0.0.0 ./respkv-server
//
// # Package Structure
//
//   - pkg/resp: RESP wire protocol codec
//   - pkg/store: In-memory data engine and timer registry
//   - pkg/client: Client SDK
//   - pkg/config: Configuration management
//   - internal/server: Server implementation and command dispatch
//   - cmd/server: Server executable
//   - cmd/client-example: Example client usage
//
// For detailed documentation of individual packages, see their respective godoc pages.
package respkv
