// Package client provides a client SDK for connecting to a RespKV server.
//
// The client speaks the RESP wire protocol over a single TCP connection
// and exposes both a generic Do entry point and typed helpers for the
// server's command surface. Operations are synchronized, so a Client can
// be shared by multiple goroutines; commands are serialized over the one
// connection in issue order.
//
// Basic usage:
//
//	c, err := client.Dial("localhost:6379")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
//	// String operations
//	err = c.Set("user:123", "john_doe", 0)
//	value, err := c.Get("user:123")
//
//	// List operations
//	length, err := c.RPush("tasks", "task1", "task2", "task3")
//	elems, err := c.LRange("tasks", 0, -1)
//
//	// Blocking pop with a one second timeout
//	key, elem, err := c.BLPop("tasks", time.Second)
//
//	// Stream append
//	id, err := c.XAdd("events", "*", "type", "login")
//
// Advanced configuration:
//
//	cfg := config.LoadClientConfig()
//	cfg.Addr = "cache.internal:6379"
//	c, err := client.DialConfig(cfg)
//
// Read deadlines are derived from the configured read timeout; blocking
// commands extend the deadline past their own timeout so a legitimate wait
// is not cut short.
package client

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/respkv/respkv/pkg/config"
	"github.com/respkv/respkv/pkg/resp"
)

// ErrNil is returned by typed helpers when the server replies with a null
// bulk string or null array (key absent, blocking pop timed out).
var ErrNil = errors.New("respkv: nil reply")

// Client is a connection to one RespKV server. Create it with Dial or
// DialConfig and release it with Close.
type Client struct {
	cfg    *config.ClientConfig
	conn   net.Conn
	reader *resp.Reader
	mu     sync.Mutex
}

// Dial connects to the server at addr ("host:port") using default client
// configuration.
//
// Example:
//
//	c, err := client.Dial("localhost:6379")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
func Dial(addr string) (*Client, error) {
	cfg := config.LoadClientConfig()
	cfg.Addr = addr
	return DialConfig(cfg)
}

// DialConfig connects to the server described by cfg.
func DialConfig(cfg *config.ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	dialer := &net.Dialer{Timeout: time.Duration(cfg.ConnTimeout) * time.Second}
	conn, err := dialer.Dial("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Addr, err)
	}

	return &Client{
		cfg:    cfg,
		conn:   conn,
		reader: resp.NewReader(conn),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// Do sends one command and returns the server's raw reply. An error reply
// from the server is returned in the Reply, not as a Go error; transport
// failures are Go errors.
func (c *Client) Do(args ...string) (resp.Reply, error) {
	return c.do(0, args...)
}

// do sends a command with the read deadline extended by blockFor, which
// blocking commands set to their own wait budget (0 for a plain command,
// negative for an unbounded wait).
func (c *Client) do(blockFor time.Duration, args ...string) (resp.Reply, error) {
	if len(args) == 0 {
		return resp.Reply{}, fmt.Errorf("empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	writeDeadline := time.Now().Add(time.Duration(c.cfg.WriteTimeout) * time.Second)
	if err := c.conn.SetWriteDeadline(writeDeadline); err != nil {
		return resp.Reply{}, err
	}
	if _, err := c.conn.Write(resp.EncodeCommand(args)); err != nil {
		return resp.Reply{}, fmt.Errorf("failed to send command: %w", err)
	}

	var readDeadline time.Time
	if blockFor >= 0 {
		readDeadline = time.Now().Add(time.Duration(c.cfg.ReadTimeout)*time.Second + blockFor)
	}
	if err := c.conn.SetReadDeadline(readDeadline); err != nil {
		return resp.Reply{}, err
	}

	reply, err := c.reader.ReadReply()
	if err != nil {
		return resp.Reply{}, fmt.Errorf("failed to read reply: %w", err)
	}
	return reply, nil
}

// replyErr converts an error reply into a Go error for typed helpers.
func replyErr(r resp.Reply) error {
	return fmt.Errorf("server error: %s", r.Str)
}

// Ping checks connectivity to the server.
func (c *Client) Ping() error {
	reply, err := c.Do("PING")
	if err != nil {
		return err
	}
	if reply.IsError() {
		return replyErr(reply)
	}
	return nil
}

// Echo round-trips a message through the server.
func (c *Client) Echo(message string) (string, error) {
	reply, err := c.Do("ECHO", message)
	if err != nil {
		return "", err
	}
	if reply.IsError() {
		return "", replyErr(reply)
	}
	return reply.Str, nil
}

// Set stores a string value with an optional expiration. If ttl is 0 the
// key does not expire; a positive ttl is sent as PX milliseconds.
//
// Example:
//
//	err := c.Set("session", "abc123", 30*time.Minute)
func (c *Client) Set(key, value string, ttl time.Duration) error {
	args := []string{"SET", key, value}
	if ttl > 0 {
		args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
	}
	reply, err := c.Do(args...)
	if err != nil {
		return err
	}
	if reply.IsError() {
		return replyErr(reply)
	}
	return nil
}

// Get retrieves the string value of a key. Returns ErrNil if the key is
// absent or expired.
func (c *Client) Get(key string) (string, error) {
	reply, err := c.Do("GET", key)
	if err != nil {
		return "", err
	}
	switch {
	case reply.IsError():
		return "", replyErr(reply)
	case reply.Type == resp.TypeNullBulk:
		return "", ErrNil
	}
	return reply.Str, nil
}

// Type classifies a key: "list", "string", "stream", or "none".
func (c *Client) Type(key string) (string, error) {
	reply, err := c.Do("TYPE", key)
	if err != nil {
		return "", err
	}
	if reply.IsError() {
		return "", replyErr(reply)
	}
	return reply.Str, nil
}

// RPush appends values to the tail of a list and returns the new length.
func (c *Client) RPush(key string, values ...string) (int64, error) {
	return c.intCommand(append([]string{"RPUSH", key}, values...))
}

// LPush prepends values to the head of a list and returns the new length.
func (c *Client) LPush(key string, values ...string) (int64, error) {
	return c.intCommand(append([]string{"LPUSH", key}, values...))
}

// LLen returns the length of a list, 0 if absent.
func (c *Client) LLen(key string) (int64, error) {
	return c.intCommand([]string{"LLEN", key})
}

func (c *Client) intCommand(args []string) (int64, error) {
	reply, err := c.Do(args...)
	if err != nil {
		return 0, err
	}
	if reply.IsError() {
		return 0, replyErr(reply)
	}
	return reply.Int, nil
}

// LPop removes and returns the front element of a list. Returns ErrNil if
// the list is empty or absent.
func (c *Client) LPop(key string) (string, error) {
	reply, err := c.Do("LPOP", key)
	if err != nil {
		return "", err
	}
	switch {
	case reply.IsError():
		return "", replyErr(reply)
	case reply.Type == resp.TypeNullBulk:
		return "", ErrNil
	}
	return reply.Str, nil
}

// LPopCount removes and returns up to count elements from the front of a
// list. An empty or absent list yields an empty slice.
func (c *Client) LPopCount(key string, count int) ([]string, error) {
	reply, err := c.Do("LPOP", key, strconv.Itoa(count))
	if err != nil {
		return nil, err
	}
	if reply.IsError() {
		return nil, replyErr(reply)
	}
	return reply.Elems, nil
}

// LRange returns the inclusive slice [start, stop] of a list. Negative
// indices count from the end.
func (c *Client) LRange(key string, start, stop int) ([]string, error) {
	reply, err := c.Do("LRANGE", key, strconv.Itoa(start), strconv.Itoa(stop))
	if err != nil {
		return nil, err
	}
	if reply.IsError() {
		return nil, replyErr(reply)
	}
	return reply.Elems, nil
}

// BLPop pops the front element of a list, waiting up to timeout for one to
// appear. A timeout of 0 waits indefinitely. Returns the key and element,
// or ErrNil if the wait timed out.
func (c *Client) BLPop(key string, timeout time.Duration) (string, string, error) {
	return c.blockingPop("BLPOP", key, timeout)
}

// BRPop is BLPop taking from the tail of the list.
func (c *Client) BRPop(key string, timeout time.Duration) (string, string, error) {
	return c.blockingPop("BRPOP", key, timeout)
}

func (c *Client) blockingPop(name, key string, timeout time.Duration) (string, string, error) {
	seconds := strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64)
	blockFor := timeout
	if timeout == 0 {
		blockFor = -1 // unbounded wait: no read deadline
	}
	reply, err := c.do(blockFor, name, key, seconds)
	if err != nil {
		return "", "", err
	}
	switch {
	case reply.IsError():
		return "", "", replyErr(reply)
	case reply.Type == resp.TypeNullArray || reply.Type == resp.TypeNullBulk:
		return "", "", ErrNil
	}
	if len(reply.Elems) != 2 {
		return "", "", fmt.Errorf("unexpected %s reply of %d elements", name, len(reply.Elems))
	}
	return reply.Elems[0], reply.Elems[1], nil
}

// XAdd appends an entry to a stream and returns the assigned entry ID.
// id may be "*", "<ms>-*", or "<ms>-<seq>"; fieldValues is an alternating
// field, value, ... sequence.
//
// Example:
//
//	id, err := c.XAdd("events", "*", "type", "login", "user", "123")
func (c *Client) XAdd(key, id string, fieldValues ...string) (string, error) {
	args := append([]string{"XADD", key, id}, fieldValues...)
	reply, err := c.Do(args...)
	if err != nil {
		return "", err
	}
	if reply.IsError() {
		return "", replyErr(reply)
	}
	return reply.Str, nil
}
