// Package ratelimit caps the outbound request rate with a fixed pause
// between requests. It does not react to server signals.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bgmPacerPausesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bgm_pacer_pauses_total",
		Help: "Total number of fixed pauses between Bangumi API requests",
	})

	bgmPacerPauseSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bgm_pacer_pause_seconds_total",
		Help: "Total time spent pausing between Bangumi API requests",
	})
)

// Pacer blocks for a fixed delay after each request.
type Pacer struct {
	delay time.Duration

	// after is swapped in tests to avoid real sleeps.
	after func(time.Duration) <-chan time.Time
}

// NewPacer creates a pacer. A non-positive delay disables pausing.
func NewPacer(delay time.Duration) *Pacer {
	if delay < 0 {
		delay = 0
	}
	return &Pacer{
		delay: delay,
		after: time.After,
	}
}

// Delay returns the configured pause.
func (p *Pacer) Delay() time.Duration {
	return p.delay
}

// Pause blocks for the configured delay or until ctx is done.
func (p *Pacer) Pause(ctx context.Context) error {
	if p.delay == 0 {
		return ctx.Err()
	}

	bgmPacerPausesTotal.Inc()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.after(p.delay):
		bgmPacerPauseSeconds.Add(p.delay.Seconds())
		return nil
	}
}
