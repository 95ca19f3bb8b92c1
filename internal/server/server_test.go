package server

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/respkv/respkv/pkg/client"
	"github.com/respkv/respkv/pkg/config"
	"github.com/respkv/respkv/pkg/resp"
)

// startTestServer runs a server on an ephemeral port and returns its
// address once the listener is bound.
func startTestServer(t *testing.T) string {
	t.Helper()

	srv := New(&config.ServerConfig{Host: "127.0.0.1", Port: 0, MaxConns: 16, LogLevel: "info"})
	go func() {
		if err := srv.Start(); err != nil {
			t.Errorf("Server failed: %v", err)
		}
	}()
	t.Cleanup(func() { srv.Stop() })

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("Server did not bind a listener in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return srv.Addr()
}

func dialTestServer(t *testing.T, addr string) *client.Client {
	t.Helper()
	c, err := client.Dial(addr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestServerPingEcho(t *testing.T) {
	addr := startTestServer(t)
	c := dialTestServer(t, addr)

	if err := c.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	msg, err := c.Echo("hello")
	if err != nil {
		t.Fatalf("Echo failed: %v", err)
	}
	if msg != "hello" {
		t.Errorf("Expected hello, got %q", msg)
	}
}

func TestServerStringLifecycle(t *testing.T) {
	addr := startTestServer(t)
	c := dialTestServer(t, addr)

	if err := c.Set("name", "respkv", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, err := c.Get("name")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "respkv" {
		t.Errorf("Expected respkv, got %q", value)
	}

	kind, err := c.Type("name")
	if err != nil {
		t.Fatalf("Type failed: %v", err)
	}
	if kind != "string" {
		t.Errorf("Expected string, got %q", kind)
	}

	if _, err := c.Get("missing"); !errors.Is(err, client.ErrNil) {
		t.Errorf("Expected ErrNil for missing key, got %v", err)
	}
}

func TestServerSetWithExpiry(t *testing.T) {
	addr := startTestServer(t)
	c := dialTestServer(t, addr)

	if err := c.Set("temp", "value", 60*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := c.Get("temp"); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	if _, err := c.Get("temp"); !errors.Is(err, client.ErrNil) {
		t.Errorf("Expected ErrNil after expiry, got %v", err)
	}
	kind, err := c.Type("temp")
	if err != nil {
		t.Fatalf("Type failed: %v", err)
	}
	if kind != "none" {
		t.Errorf("Expected none after expiry, got %q", kind)
	}
}

func TestServerListCommands(t *testing.T) {
	addr := startTestServer(t)
	c := dialTestServer(t, addr)

	length, err := c.RPush("tasks", "a", "b", "c")
	if err != nil {
		t.Fatalf("RPush failed: %v", err)
	}
	if length != 3 {
		t.Errorf("Expected length 3, got %d", length)
	}

	elems, err := c.LRange("tasks", 0, -1)
	if err != nil {
		t.Fatalf("LRange failed: %v", err)
	}
	if len(elems) != 3 || elems[0] != "a" || elems[2] != "c" {
		t.Errorf("Expected [a b c], got %v", elems)
	}

	elem, err := c.LPop("tasks")
	if err != nil {
		t.Fatalf("LPop failed: %v", err)
	}
	if elem != "a" {
		t.Errorf("Expected a, got %q", elem)
	}

	rest, err := c.LPopCount("tasks", 10)
	if err != nil {
		t.Fatalf("LPopCount failed: %v", err)
	}
	if len(rest) != 2 || rest[0] != "b" {
		t.Errorf("Expected [b c], got %v", rest)
	}

	if _, err := c.LPop("tasks"); !errors.Is(err, client.ErrNil) {
		t.Errorf("Expected ErrNil from empty list, got %v", err)
	}
}

func TestServerBLPopTimeout(t *testing.T) {
	addr := startTestServer(t)
	c := dialTestServer(t, addr)

	started := time.Now()
	_, _, err := c.BLPop("empty", 100*time.Millisecond)
	elapsed := time.Since(started)

	if !errors.Is(err, client.ErrNil) {
		t.Fatalf("Expected ErrNil on timeout, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("BLPop returned after %v, before the timeout", elapsed)
	}
}

func TestServerBLPopServedByOtherConnection(t *testing.T) {
	addr := startTestServer(t)
	waiter := dialTestServer(t, addr)
	pusher := dialTestServer(t, addr)

	go func() {
		time.Sleep(50 * time.Millisecond)
		if _, err := pusher.RPush("queue", "job-1"); err != nil {
			t.Errorf("RPush failed: %v", err)
		}
	}()

	key, elem, err := waiter.BLPop("queue", 2*time.Second)
	if err != nil {
		t.Fatalf("BLPop failed: %v", err)
	}
	if key != "queue" || elem != "job-1" {
		t.Errorf("Expected queue/job-1, got %q/%q", key, elem)
	}
}

func TestServerBLPopFIFOAcrossConnections(t *testing.T) {
	addr := startTestServer(t)
	first := dialTestServer(t, addr)
	second := dialTestServer(t, addr)
	pusher := dialTestServer(t, addr)

	type result struct {
		elem string
		err  error
	}
	firstCh := make(chan result, 1)
	secondCh := make(chan result, 1)

	go func() {
		_, elem, err := first.BLPop("jobs", 2*time.Second)
		firstCh <- result{elem, err}
	}()
	// The second waiter registers after the first; delivery must follow
	// arrival order.
	time.Sleep(100 * time.Millisecond)
	go func() {
		_, elem, err := second.BLPop("jobs", 2*time.Second)
		secondCh <- result{elem, err}
	}()
	time.Sleep(100 * time.Millisecond)

	if _, err := pusher.RPush("jobs", "one"); err != nil {
		t.Fatalf("RPush failed: %v", err)
	}
	got := <-firstCh
	if got.err != nil || got.elem != "one" {
		t.Fatalf("Expected first waiter to receive one, got %q, %v", got.elem, got.err)
	}

	select {
	case got := <-secondCh:
		t.Fatalf("Second waiter resolved early with %q, %v", got.elem, got.err)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := pusher.RPush("jobs", "two"); err != nil {
		t.Fatalf("RPush failed: %v", err)
	}
	got = <-secondCh
	if got.err != nil || got.elem != "two" {
		t.Fatalf("Expected second waiter to receive two, got %q, %v", got.elem, got.err)
	}
}

func TestServerBRPopTakesTail(t *testing.T) {
	addr := startTestServer(t)
	c := dialTestServer(t, addr)

	if _, err := c.RPush("stack", "a", "b", "c"); err != nil {
		t.Fatalf("RPush failed: %v", err)
	}
	_, elem, err := c.BRPop("stack", time.Second)
	if err != nil {
		t.Fatalf("BRPop failed: %v", err)
	}
	if elem != "c" {
		t.Errorf("Expected c from the tail, got %q", elem)
	}
}

func TestServerXAdd(t *testing.T) {
	addr := startTestServer(t)
	c := dialTestServer(t, addr)

	id1, err := c.XAdd("events", "*", "type", "login")
	if err != nil {
		t.Fatalf("XAdd failed: %v", err)
	}
	id2, err := c.XAdd("events", "*", "type", "logout")
	if err != nil {
		t.Fatalf("XAdd failed: %v", err)
	}
	if id1 == id2 {
		t.Errorf("Expected distinct auto IDs, got %q twice", id1)
	}

	if _, err := c.XAdd("events", "0-0", "type", "bad"); err == nil {
		t.Error("Expected error for reserved ID 0-0")
	} else if !strings.Contains(err.Error(), "greater than 0-0") {
		t.Errorf("Unexpected error text: %v", err)
	}

	kind, err := c.Type("events")
	if err != nil {
		t.Fatalf("Type failed: %v", err)
	}
	if kind != "stream" {
		t.Errorf("Expected stream, got %q", kind)
	}
}

func TestServerErrorRepliesKeepConnectionOpen(t *testing.T) {
	addr := startTestServer(t)
	c := dialTestServer(t, addr)

	reply, err := c.Do("NOSUCH", "arg")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !reply.IsError() || !strings.Contains(reply.Str, "unknown command") {
		t.Errorf("Expected unknown command error reply, got %+v", reply)
	}

	// The same connection must still serve the next command.
	if err := c.Ping(); err != nil {
		t.Errorf("Ping after error reply failed: %v", err)
	}
}

func TestServerConcurrentClients(t *testing.T) {
	addr := startTestServer(t)

	const clients = 8
	done := make(chan error, clients)
	for i := 0; i < clients; i++ {
		go func(i int) {
			c, err := client.Dial(addr)
			if err != nil {
				done <- err
				return
			}
			defer c.Close()

			key := "counter:" + string(rune('a'+i))
			for j := 0; j < 20; j++ {
				if err := c.Set(key, "v", 0); err != nil {
					done <- err
					return
				}
				if _, err := c.Get(key); err != nil {
					done <- err
					return
				}
				if _, err := c.RPush(key+":l", "x"); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(i)
	}
	for i := 0; i < clients; i++ {
		if err := <-done; err != nil {
			t.Errorf("Client %d failed: %v", i, err)
		}
	}
}

func TestServerRawWireShapes(t *testing.T) {
	addr := startTestServer(t)
	c := dialTestServer(t, addr)

	reply, err := c.Do("LPOP", "nothing")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if reply.Type != resp.TypeNullBulk {
		t.Errorf("Expected null bulk, got %+v", reply)
	}

	reply, err = c.Do("LPOP", "nothing", "5")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if reply.Type != resp.TypeArray || len(reply.Elems) != 0 {
		t.Errorf("Expected empty array, got %+v", reply)
	}

	reply, err = c.Do("BLPOP", "nothing", "0.05")
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if reply.Type != resp.TypeNullArray {
		t.Errorf("Expected null array, got %+v", reply)
	}
}
