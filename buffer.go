package biogas

import (
	"sync"
)

// DefaultBufferCapacity is used when NewBuffer is given a non-positive
// capacity.
const DefaultBufferCapacity = 1000

// Buffer is a fixed-capacity ring of Readings ordered oldest to newest.
// When full, a push evicts exactly the oldest Reading. Timestamps must
// strictly increase; a push that does not advance time is rejected with
// *OutOfOrderError.
//
// Buffer is safe for one producer goroutine writing while any number of
// goroutines read. Reads hold the lock only long enough to copy out the
// requested slice; no I/O or sleeping ever happens under the lock.
type Buffer struct {
	mu      sync.Mutex
	data    []Reading
	head    int    // index of oldest
	n       int    // current length
	seq     uint64 // total successful pushes
	updated chan struct{}
}

// NewBuffer creates a buffer holding at most capacity Readings.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &Buffer{
		data:    make([]Reading, capacity),
		updated: make(chan struct{}),
	}
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the current number of stored Readings.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// Seq returns the total number of Readings ever pushed. It only grows.
func (b *Buffer) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// Push appends r, evicting the oldest Reading if the buffer is full. It
// never blocks beyond lock acquisition. A timestamp that is not strictly
// after the current latest Reading is rejected with *OutOfOrderError and
// the buffer is left untouched.
func (b *Buffer) Push(r Reading) error {
	b.mu.Lock()
	if b.n > 0 {
		last := b.data[(b.head+b.n-1)%len(b.data)]
		if !r.Timestamp.After(last.Timestamp) {
			b.mu.Unlock()
			return &OutOfOrderError{Last: last.Timestamp, New: r.Timestamp}
		}
	}
	if b.n == len(b.data) {
		b.data[b.head] = r
		b.head = (b.head + 1) % len(b.data)
	} else {
		b.data[(b.head+b.n)%len(b.data)] = r
		b.n++
	}
	b.seq++
	// Wake all pending waiters; each waiter re-arms on the next channel.
	close(b.updated)
	b.updated = make(chan struct{})
	b.mu.Unlock()
	return nil
}

// Snapshot returns an independent copy of the most recent min(count, Len)
// Readings in chronological order. It never observes a partial push.
func (b *Buffer) Snapshot(count int) []Reading {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tailLocked(count)
}

// Latest returns the most recent Reading, or ErrEmpty if nothing has been
// pushed yet.
func (b *Buffer) Latest() (Reading, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.n == 0 {
		return Reading{}, ErrEmpty
	}
	return b.data[(b.head+b.n-1)%len(b.data)].clone(), nil
}

// tailLocked copies the newest count Readings. The copies share nothing
// with buffer state, thermistor maps included. Caller holds b.mu.
func (b *Buffer) tailLocked(count int) []Reading {
	if count <= 0 || b.n == 0 {
		return nil
	}
	if count > b.n {
		count = b.n
	}
	out := make([]Reading, count)
	start := b.head + b.n - count
	for i := 0; i < count; i++ {
		out[i] = b.data[(start+i)%len(b.data)].clone()
	}
	return out
}

// sinceLocked copies every still-buffered Reading pushed after sequence
// number after. Caller holds b.mu.
func (b *Buffer) sinceLocked(after uint64) []Reading {
	if b.seq <= after {
		return nil
	}
	newer := b.seq - after
	if newer > uint64(b.n) {
		newer = uint64(b.n)
	}
	return b.tailLocked(int(newer))
}
