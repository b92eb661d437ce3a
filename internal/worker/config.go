package worker

import (
	"errors"
	"fmt"
	"time"
)

// Config tunes the job worker.
type Config struct {
	Concurrency     int           // polling goroutines
	PollInterval    time.Duration // idle wait between queue checks
	JobTimeout      time.Duration // deadline of one handler call
	ShutdownTimeout time.Duration // how long Stop waits for running jobs

	// StaleJobThreshold is the age after which a 'running' job is assumed
	// to belong to a crashed process and is requeued on Start.
	StaleJobThreshold time.Duration
}

// DefaultConfig suits a single small instance. One report email or one
// PDF render finishes well inside JobTimeout.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        2 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}
}

// WithOverrides applies the positive arguments and keeps the rest.
func (c Config) WithOverrides(concurrency int, pollInterval, jobTimeout time.Duration) Config {
	if concurrency > 0 {
		c.Concurrency = concurrency
	}
	if pollInterval > 0 {
		c.PollInterval = pollInterval
	}
	if jobTimeout > 0 {
		c.JobTimeout = jobTimeout
	}
	return c
}

// Validate reports every out of range setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 || c.Concurrency > 100 {
		errs = append(errs, fmt.Errorf("concurrency must be between 1 and 100, got %d", c.Concurrency))
	}
	atLeast := func(name string, d, min time.Duration) {
		if d < min {
			errs = append(errs, fmt.Errorf("%s must be at least %v, got %v", name, min, d))
		}
	}
	atLeast("poll interval", c.PollInterval, time.Second)
	atLeast("job timeout", c.JobTimeout, time.Second)
	atLeast("shutdown timeout", c.ShutdownTimeout, time.Second)
	atLeast("stale job threshold", c.StaleJobThreshold, time.Minute)
	return errors.Join(errs...)
}
