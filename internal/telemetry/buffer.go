package telemetry

import "time"

// WriteTimeout bounds how long a sampling task may wait for the buffer
// lock. On timeout the update is dropped, the channel just keeps its
// previous value until the next cycle.
const WriteTimeout = 100 * time.Millisecond

// Update mutates a subset of channels. It runs under the buffer lock
// and must not block.
type Update func(*Snapshot)

// Buffer is the single shared record of latest sensor values.
// One exclusive lock serializes all writers and the snapshot reader,
// so a reader never observes a half-applied update.
type Buffer struct {
	lk   chan struct{} // semaphore, allows bounded acquire
	data Snapshot
}

func NewBuffer() *Buffer {
	return &Buffer{lk: make(chan struct{}, 1)}
}

// Update applies u under the lock, waiting at most WriteTimeout.
// Returns false if the lock was not acquired; the buffer is unchanged.
func (b *Buffer) Update(u Update) bool {
	t := time.NewTimer(WriteTimeout)
	select {
	case b.lk <- struct{}{}:
		t.Stop()
	case <-t.C:
		return false
	}
	u(&b.data)
	<-b.lk
	return true
}

// Snapshot copies the whole record under the lock, waiting as long as
// needed. The uploader is not time-critical at sub-second granularity.
func (b *Buffer) Snapshot() Snapshot {
	b.lk <- struct{}{}
	s := b.data
	<-b.lk
	return s
}
