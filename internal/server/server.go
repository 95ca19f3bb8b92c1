// Package server implements the RespKV server: TCP connection handling and
// command dispatch over the RESP wire protocol.
//
// Each accepted connection is served by its own goroutine, which loops
// reading one request frame, dispatching it against the store, and writing
// the encoded reply. Blocking commands (BLPOP/BRPOP) suspend only the
// goroutine of the connection that issued them; every other connection
// keeps being served.
//
// Error policy:
//   - Protocol errors (malformed framing) close the offending connection.
//   - Command errors (bad arity, unparsable numbers, unknown commands)
//     produce a -ERR reply and keep the connection open.
//   - Only socket I/O failure terminates a connection, and only that one.
//
// Example usage:
//
//	srv := server.New(config.LoadServerConfig())
//	go func() {
//		if err := srv.Start(); err != nil {
//			log.Fatal(err)
//		}
//	}()
//	// ...
//	srv.Stop()
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/respkv/respkv/pkg/config"
	"github.com/respkv/respkv/pkg/resp"
	"github.com/respkv/respkv/pkg/store"
)

// Server owns the TCP listener and the data store. It is created by New
// and runs until Stop is called.
type Server struct {
	cfg      *config.ServerConfig
	store    *store.Store
	listener net.Listener

	mu      sync.Mutex
	closing bool
}

// New creates a Server with a fresh store. The server does not listen
// until Start is called.
func New(cfg *config.ServerConfig) *Server {
	return &Server{
		cfg:   cfg,
		store: store.New(),
	}
}

// Addr returns the listener's address, or "" before Start has bound one.
// Useful when the configured port is 0 (ephemeral).
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the configured address and serves connections until Stop is
// called or the listener fails. Each connection is handled in its own
// goroutine.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		listener.Close()
		return nil
	}
	s.listener = listener
	s.mu.Unlock()

	log.Printf("RespKV server listening on %s", listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return nil
			}
			log.Printf("Failed to accept connection: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// Stop closes the listener and the store. In-flight connections finish
// their current command; parked blocking pops are released with a null
// reply.
func (s *Server) Stop() error {
	s.mu.Lock()
	s.closing = true
	listener := s.listener
	s.mu.Unlock()

	s.store.Close()
	if listener != nil {
		return listener.Close()
	}
	return nil
}

// handleConnection runs the per-connection loop: read a frame, dispatch,
// write the reply. No read deadline is set: a connection parked in a
// blocking pop is legitimately idle for its whole timeout.
func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("Error closing connection: %v", err)
		}
	}()

	reader := resp.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		args, err := reader.ReadCommand()
		if err != nil {
			if err != io.EOF {
				if errors.Is(err, resp.ErrProtocol) {
					log.Printf("Closing %s: %v", conn.RemoteAddr(), err)
				} else {
					log.Printf("Failed to read command from %s: %v", conn.RemoteAddr(), err)
				}
			}
			return
		}

		reply := s.dispatch(args)

		if _, err := writer.Write(reply.Encode()); err != nil {
			log.Printf("Failed to write reply to %s: %v", conn.RemoteAddr(), err)
			return
		}
		if err := writer.Flush(); err != nil {
			log.Printf("Failed to flush reply to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}
