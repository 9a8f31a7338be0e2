package bench

import (
	"fmt"
	"runtime"
	"time"
)

const DefaultHashCount = 1_000_000

var DefaultPayload = []byte("benchmark")

type Config struct {
	// HashCount is the number of digests each worker computes.
	HashCount int
	// Threads is the worker count of the multi-threaded run. Zero means the
	// logical thread count of the host.
	Threads   int
	Algorithm string
	Payload   []byte
	// Timeout bounds a StartBenchmark cycle. It is checked between runs,
	// never mid-run. Zero disables it.
	Timeout time.Duration
}

func (c Config) Validate() error {
	if c.HashCount <= 0 {
		return fmt.Errorf("%w: hash count must be positive, got %d", ErrInvalidConfiguration, c.HashCount)
	}
	if c.Threads < 0 {
		return fmt.Errorf("%w: threads must not be negative, got %d", ErrInvalidConfiguration, c.Threads)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative, got %s", ErrInvalidConfiguration, c.Timeout)
	}
	return nil
}

func (c Config) clone() Config {
	if c.Threads == 0 {
		c.Threads = runtime.NumCPU()
	}
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmSHA256
	}
	payload := c.Payload
	if len(payload) == 0 {
		payload = DefaultPayload
	}
	c.Payload = make([]byte, len(payload))
	copy(c.Payload, payload)
	return c
}
