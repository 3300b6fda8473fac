package biogas

import (
	"context"
	"time"
)

// Consumer is a read-only cursor over a Buffer. Each consumer tracks the
// sequence number of the last Reading it observed, so WaitForUpdate only
// returns data that is new to this consumer. Consumers are independent:
// abandoning a wait never affects the producer or other consumers.
//
// A Consumer is not safe for concurrent use; create one per goroutine.
type Consumer struct {
	buf  *Buffer
	seen uint64
}

// NewConsumer creates a consumer that has observed nothing yet.
func NewConsumer(buf *Buffer) *Consumer {
	return &Consumer{buf: buf}
}

// Poll returns the current snapshot of up to count Readings without
// blocking. The result may be shorter than count or empty. Everything
// currently buffered counts as observed afterwards.
func (c *Consumer) Poll(count int) []Reading {
	c.buf.mu.Lock()
	defer c.buf.mu.Unlock()
	out := c.buf.tailLocked(count)
	c.seen = c.buf.seq
	return out
}

// WaitForUpdate blocks until at least one Reading newer than this
// consumer's cursor is available, then returns all such Readings still in
// the buffer in chronological order. On timeout it returns (nil, nil); on
// context cancellation it returns the context's error. It never
// busy-waits: the producer signals each push.
func (c *Consumer) WaitForUpdate(ctx context.Context, timeout time.Duration) ([]Reading, error) {
	var timer *time.Timer
	var expired <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		c.buf.mu.Lock()
		if out := c.buf.sinceLocked(c.seen); out != nil {
			c.seen = c.buf.seq
			c.buf.mu.Unlock()
			return out, nil
		}
		ch := c.buf.updated
		c.buf.mu.Unlock()

		select {
		case <-ch:
		case <-expired:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
