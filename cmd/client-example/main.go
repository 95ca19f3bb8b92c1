package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/respkv/respkv/pkg/client"
)

func main() {
	c, err := client.Dial("localhost:6379")
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer c.Close()

	fmt.Println("=== RespKV Client Example ===")

	if err := c.Ping(); err != nil {
		log.Fatalf("Ping failed: %v", err)
	}
	fmt.Println("✓ Connected to RespKV server")

	if msg, err := c.Echo("hello"); err != nil {
		log.Printf("ECHO failed: %v", err)
	} else {
		fmt.Printf("✓ ECHO hello = %s\n", msg)
	}

	fmt.Println("\n--- String Operations ---")

	if err := c.Set("user:1", "john_doe", 0); err != nil {
		log.Printf("SET failed: %v", err)
	} else {
		fmt.Println("✓ SET user:1 = john_doe")
	}

	if value, err := c.Get("user:1"); err != nil {
		log.Printf("GET failed: %v", err)
	} else {
		fmt.Printf("✓ GET user:1 = %s\n", value)
	}

	fmt.Println("\n--- Expiration ---")

	if err := c.Set("temp_key", "temp_value", 100*time.Millisecond); err != nil {
		log.Printf("SET with TTL failed: %v", err)
	} else {
		fmt.Println("✓ SET temp_key with 100ms TTL")
	}

	time.Sleep(150 * time.Millisecond)

	if _, err := c.Get("temp_key"); errors.Is(err, client.ErrNil) {
		fmt.Println("✓ GET temp_key after expiry = (nil)")
	} else if err != nil {
		log.Printf("GET failed: %v", err)
	}

	fmt.Println("\n--- List Operations ---")

	if length, err := c.RPush("tasks", "task1", "task2", "task3"); err != nil {
		log.Printf("RPUSH failed: %v", err)
	} else {
		fmt.Printf("✓ RPUSH tasks = %d items\n", length)
	}

	if elems, err := c.LRange("tasks", 0, -1); err != nil {
		log.Printf("LRANGE failed: %v", err)
	} else {
		fmt.Printf("✓ LRANGE tasks 0 -1 = %v\n", elems)
	}

	if value, err := c.LPop("tasks"); err != nil {
		log.Printf("LPOP failed: %v", err)
	} else {
		fmt.Printf("✓ LPOP tasks = %s\n", value)
	}

	if kind, err := c.Type("tasks"); err != nil {
		log.Printf("TYPE failed: %v", err)
	} else {
		fmt.Printf("✓ TYPE tasks = %s\n", kind)
	}

	fmt.Println("\n--- Blocking Pop ---")

	// Push from a second connection while this one waits.
	go func() {
		pusher, err := client.Dial("localhost:6379")
		if err != nil {
			log.Printf("Pusher failed to connect: %v", err)
			return
		}
		defer pusher.Close()
		time.Sleep(200 * time.Millisecond)
		if _, err := pusher.RPush("jobs", "deferred-job"); err != nil {
			log.Printf("RPUSH failed: %v", err)
		}
	}()

	if key, elem, err := c.BLPop("jobs", 2*time.Second); err != nil {
		log.Printf("BLPOP failed: %v", err)
	} else {
		fmt.Printf("✓ BLPOP jobs = [%s, %s]\n", key, elem)
	}

	fmt.Println("\n--- Stream Operations ---")

	if id, err := c.XAdd("events", "*", "type", "login", "user", "1"); err != nil {
		log.Printf("XADD failed: %v", err)
	} else {
		fmt.Printf("✓ XADD events * = %s\n", id)
	}

	if id, err := c.XAdd("events", "*", "type", "logout", "user", "1"); err != nil {
		log.Printf("XADD failed: %v", err)
	} else {
		fmt.Printf("✓ XADD events * = %s\n", id)
	}

	fmt.Println("\n=== Example Complete ===")
}
