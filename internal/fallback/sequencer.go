// Package fallback sequences ordered provider attempts for one logical fetch.
package fallback

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/btcnav/btcnav/internal/observ"
)

// Attempt is one named provider invocation in a fallback chain
type Attempt[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
}

// Result carries the first successful value and the provider that produced it
type Result[T any] struct {
	Value  T
	Source string
}

// AllFailedError aggregates a fully exhausted chain, keeping the last cause
type AllFailedError struct {
	Domain   string
	Attempts int
	LastErr  error
}

func (e *AllFailedError) Error() string {
	return fmt.Sprintf("all %d providers failed for %s: %v", e.Attempts, e.Domain, e.LastErr)
}

func (e *AllFailedError) Unwrap() error { return e.LastErr }

// Sequencer tries providers strictly in configured priority order
type Sequencer[T any] struct {
	domain   string
	attempts []Attempt[T]
	logger   *logrus.Entry
}

// NewSequencer builds a sequencer for one data domain ("price", "companies", ...).
// Provider order is configuration, not computed; attempts run sequentially to
// keep outbound rate low and avoid duplicate billing against paid APIs.
func NewSequencer[T any](domain string, logger *logrus.Logger, attempts ...Attempt[T]) *Sequencer[T] {
	return &Sequencer[T]{
		domain:   domain,
		attempts: attempts,
		logger:   logger.WithField("component", "fallback").WithField("domain", domain),
	}
}

// Fetch invokes the attempts in order, short-circuiting on the first success.
// If every attempt fails it returns an AllFailedError carrying the last error.
func (s *Sequencer[T]) Fetch(ctx context.Context) (*Result[T], error) {
	var lastErr error

	for _, attempt := range s.attempts {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		start := time.Now()
		value, err := attempt.Fetch(ctx)
		observ.RecordDuration("provider_fetch", time.Since(start), map[string]string{
			"domain":   s.domain,
			"provider": attempt.Name,
		})

		if err != nil {
			lastErr = err
			observ.IncCounter("provider_failure_total", map[string]string{
				"domain":   s.domain,
				"provider": attempt.Name,
			})
			s.logger.WithError(err).WithField("provider", attempt.Name).Warn("provider failed, trying next")
			continue
		}

		observ.IncCounter("provider_success_total", map[string]string{
			"domain":   s.domain,
			"provider": attempt.Name,
		})
		return &Result[T]{Value: value, Source: attempt.Name}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured")
	}
	return nil, &AllFailedError{Domain: s.domain, Attempts: len(s.attempts), LastErr: lastErr}
}
