// Package config provides configuration management for the RespKV server
// and client components.
//
// The package supports configuration through multiple sources with the
// following precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables
//  3. Default values (lowest priority)
//
// Environment variables are prefixed with "RESPKV_" and use uppercase
// names. For example, the server port can be set with RESPKV_PORT=6379.
//
// Example server usage:
//
//	cfg := config.LoadServerConfig()
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	srv := server.New(cfg)
//
// None of this surface is part of the core server contract; it belongs to
// the bootstrap layer and only cmd/ and the client SDK consume it.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// Default configuration constants.
const (
	DefaultServerPort       = 6379
	DefaultMaxConnections   = 1000
	DefaultConnTimeoutSecs  = 5
	DefaultReadTimeoutSecs  = 30
	DefaultWriteTimeoutSecs = 10
)

// ServerConfig holds all configuration options for a RespKV server
// instance.
//
// Example:
//
//	cfg := &config.ServerConfig{Host: "0.0.0.0", Port: 6379}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
type ServerConfig struct {
	Host     string // Host address to bind to (default: "0.0.0.0")
	LogLevel string // Log level: debug, info, warn, error (default: "info")
	Port     int    // TCP port to listen on (default: 6379)
	MaxConns int    // Maximum concurrent connections (default: 1000)
}

// ClientConfig holds all configuration options for a RespKV client
// instance.
type ClientConfig struct {
	Addr         string // Server address in host:port form (default: "localhost:6379")
	ConnTimeout  int    // Connection timeout in seconds (default: 5)
	ReadTimeout  int    // Read timeout in seconds (default: 30)
	WriteTimeout int    // Write timeout in seconds (default: 10)
}

// LoadServerConfig creates a ServerConfig by loading values from
// command-line flags and environment variables, with sensible defaults.
//
// Command-line flags:
//
//	-port: Server port (default: 6379)
//	-host: Server host (default: "0.0.0.0")
//	-max-conns: Maximum connections (default: 1000)
//	-log-level: Log level (default: "info")
//
// Environment variables:
//
//	RESPKV_PORT: Server port
//	RESPKV_HOST: Server host
//	RESPKV_MAX_CONNS: Maximum connections
func LoadServerConfig() *ServerConfig {
	config := &ServerConfig{
		Host:     "0.0.0.0",
		Port:     DefaultServerPort,
		MaxConns: DefaultMaxConnections,
		LogLevel: "info",
	}

	flag.IntVar(&config.Port, "port", config.Port, "Server port")
	flag.StringVar(&config.Host, "host", config.Host, "Server host")
	flag.IntVar(&config.MaxConns, "max-conns", config.MaxConns, "Maximum concurrent connections")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	if port := os.Getenv("RESPKV_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Port = p
		}
	}
	if host := os.Getenv("RESPKV_HOST"); host != "" {
		config.Host = host
	}
	if maxConns := os.Getenv("RESPKV_MAX_CONNS"); maxConns != "" {
		if mc, err := strconv.Atoi(maxConns); err == nil {
			config.MaxConns = mc
		}
	}

	return config
}

// LoadClientConfig creates a ClientConfig by loading values from
// environment variables, with sensible defaults.
//
// Environment variables:
//
//	RESPKV_ADDR: Server address (host:port)
//	RESPKV_CONN_TIMEOUT: Connection timeout in seconds
//	RESPKV_READ_TIMEOUT: Read timeout in seconds
//	RESPKV_WRITE_TIMEOUT: Write timeout in seconds
func LoadClientConfig() *ClientConfig {
	config := &ClientConfig{
		Addr:         "localhost:6379",
		ConnTimeout:  DefaultConnTimeoutSecs,
		ReadTimeout:  DefaultReadTimeoutSecs,
		WriteTimeout: DefaultWriteTimeoutSecs,
	}

	if addr := os.Getenv("RESPKV_ADDR"); addr != "" {
		config.Addr = addr
	}
	if v := os.Getenv("RESPKV_CONN_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.ConnTimeout = n
		}
	}
	if v := os.Getenv("RESPKV_READ_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.ReadTimeout = n
		}
	}
	if v := os.Getenv("RESPKV_WRITE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.WriteTimeout = n
		}
	}

	return config
}

// Validate checks the server configuration for invalid values.
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive, got %d", c.MaxConns)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

// Validate checks the client configuration for invalid values.
func (c *ClientConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if c.ConnTimeout <= 0 {
		return fmt.Errorf("connection timeout must be positive, got %d", c.ConnTimeout)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %d", c.ReadTimeout)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %d", c.WriteTimeout)
	}
	return nil
}
