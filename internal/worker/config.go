package worker

import (
	"fmt"
	"time"
)

// Config tunes the background job worker. The zero value is not usable;
// start from DefaultConfig or the WORKER_* environment settings.
type Config struct {
	// Concurrency is how many goroutines poll and process jobs in parallel.
	// Recommendation generation is network-bound (directory fetch plus an
	// AI call), so a small number goes a long way.
	Concurrency int

	// PollInterval is how long an idle worker sleeps between dequeue
	// attempts.
	PollInterval time.Duration

	// JobTimeout bounds a single job run. The job's context is canceled at
	// the deadline and the run counts as a failed attempt.
	JobTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for in-flight jobs before
	// giving up on them. Abandoned jobs are recovered as stale on the next
	// startup.
	ShutdownTimeout time.Duration

	// StaleJobThreshold is the age at which a job still marked running is
	// assumed to belong to a crashed worker and gets rescheduled.
	StaleJobThreshold time.Duration
}

// DefaultConfig returns the tuning used when no environment overrides are
// set.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        5 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}
}

// Validate rejects configurations that would stall or thrash the queue.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Concurrency > 100 {
		return fmt.Errorf("concurrency too high (max 100), got %d", c.Concurrency)
	}
	if c.PollInterval < 1*time.Second {
		return fmt.Errorf("poll interval must be at least 1 second, got %v", c.PollInterval)
	}
	if c.JobTimeout < 1*time.Second {
		return fmt.Errorf("job timeout must be at least 1 second, got %v", c.JobTimeout)
	}
	if c.ShutdownTimeout < 1*time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	if c.StaleJobThreshold < 1*time.Minute {
		return fmt.Errorf("stale job threshold must be at least 1 minute, got %v", c.StaleJobThreshold)
	}
	return nil
}
