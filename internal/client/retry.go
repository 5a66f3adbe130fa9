package client

import (
	"context"
	"math/rand/v2"
	"time"
)

// maxShift keeps 2^attempt from overflowing time.Duration
const maxShift = 30

// RetryPolicy bounds the attempts of one logical request.
// The cap applies to every failure kind alike, 429 included.
type RetryPolicy struct {
	// MaxAttempts includes the initial attempt. Values < 1 are treated as 1.
	MaxAttempts int `mapstructure:"max_attempts"`
	// BaseDelay is multiplied by 2^attempt
	BaseDelay time.Duration `mapstructure:"base_delay"`
	// MaxJitter is the exclusive upper bound of the random delay added to every wait
	MaxJitter time.Duration `mapstructure:"max_jitter"`
}

// DefaultRetryPolicy returns 5 attempts with 2^attempt seconds plus up to one second of jitter
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxJitter:   time.Second,
	}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns 2^attempt * BaseDelay + jitter * MaxJitter, attempt starting at 0.
// jitter is expected in [0, 1).
func (p RetryPolicy) Delay(attempt int, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	if jitter < 0 || jitter >= 1 {
		jitter = 0
	}
	return time.Duration(1<<attempt)*p.BaseDelay + time.Duration(jitter*float64(p.MaxJitter))
}

// Sleeper waits for d or until ctx is done, returning ctx.Err() in the latter case
type Sleeper func(ctx context.Context, d time.Duration) error

// Jitter returns a value in [0, 1)
type Jitter func() float64

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func defaultJitter() float64 {
	return rand.Float64()
}
