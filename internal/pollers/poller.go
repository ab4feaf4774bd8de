// Package pollers runs periodic maintenance jobs next to the HTTP server.
package pollers

import (
	"context"
	"time"
)

// Poller is a background job the Manager can start and stop.
type Poller interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
}

// Config controls how often a job runs and how failures are retried.
type Config struct {
	Name     string
	Interval time.Duration
	// Attempts per tick; values below 1 mean a single attempt.
	Attempts int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
	Timeout time.Duration
}

// NewConfig returns the defaults for a job running every interval.
func NewConfig(name string, interval time.Duration) Config {
	return Config{
		Name:     name,
		Interval: interval,
		Attempts: 3,
		Backoff:  30 * time.Second,
		Timeout:  5 * time.Minute,
	}
}

// Enabled reports whether the job has a schedule.
func (c Config) Enabled() bool {
	return c.Interval > 0
}
