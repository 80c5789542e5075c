// Package guardrails bounds the time each pipeline step may take
package guardrails

import (
	"context"
	"time"
)

// Timeouts are optional per step budgets; zero means no extra limit
type Timeouts struct {
	// Fetch caps the download of one bucket
	Fetch time.Duration

	// Expand caps the decompression of one bucket
	Expand time.Duration

	// Load caps the bulk load of one day
	Load time.Duration
}

// ForFetch returns a child context bounded by Fetch and whatever the parent has left
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return within(parent, t.Fetch)
}

// ForExpand returns a child context bounded by Expand
func ForExpand(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return within(parent, t.Expand)
}

// ForLoad returns a child context bounded by Load
func ForLoad(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return within(parent, t.Load)
}

// Remaining is the time left before ctx's deadline, zero when there is none or it passed
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// within never extends a parent deadline
func within(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
