// Package litmus exercises membarrier on real hardware: message-passing
// litmus tests over shared memory, a descriptor-ring stream, and a
// per-pair latency benchmark.
package litmus

import (
	"errors"
	"fmt"
	"math/bits"
	"time"

	membarrier "github.com/ehrlich-b/go-membarrier"
	"github.com/ehrlich-b/go-membarrier/internal/logging"
)

// Config holds litmus run parameters
type Config struct {
	Kind        membarrier.Kind // Barrier family under test
	Iterations  int             // Message-passing rounds or ring descriptors
	RingEntries int             // Ring capacity for RunRing, power of two
	Timeout     time.Duration   // Upper bound for one run, 0 for none
	Logger      *logging.Logger // Defaults to logging.Default()
	Metrics     *Metrics        // Defaults to a fresh Metrics
}

// DefaultConfig returns a configuration suitable for a quick check
func DefaultConfig() Config {
	return Config{
		Kind:        membarrier.Memory,
		Iterations:  100_000,
		RingEntries: 256,
		Timeout:     30 * time.Second,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	var errs []error
	if !c.Kind.Valid() {
		errs = append(errs, fmt.Errorf("invalid barrier kind %s", c.Kind))
	}
	if c.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("iterations must be positive, got %d", c.Iterations))
	}
	if c.RingEntries <= 0 || bits.OnesCount(uint(c.RingEntries)) != 1 {
		errs = append(errs, fmt.Errorf("ring entries must be a power of two, got %d", c.RingEntries))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}

func (c *Config) logger() *logging.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.Default()
}

func (c *Config) metrics() *Metrics {
	if c.Metrics == nil {
		c.Metrics = NewMetrics()
	}
	return c.Metrics
}
