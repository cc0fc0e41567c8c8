package log

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// Buffer decouples log call sites from transporter writes. Entries
// queue through a bounded channel; when it fills, the oldest entry is
// dropped rather than blocking the caller.
type Buffer struct {
	entries      chan Entry
	transporters []Transporter
	dropped      int64
	closed       int32
	done         chan struct{}
	wg           sync.WaitGroup
}

// NewBuffer starts the delivery worker for the given transporters.
func NewBuffer(capacity int, transporters ...Transporter) *Buffer {
	b := &Buffer{
		entries:      make(chan Entry, capacity),
		transporters: transporters,
		done:         make(chan struct{}),
	}
	b.wg.Add(1)
	go b.drain()
	return b
}

// Send queues an entry. Never blocks; a full buffer sheds its oldest
// entry first. Safe for concurrent use.
func (b *Buffer) Send(entry Entry) {
	if atomic.LoadInt32(&b.closed) == 1 {
		return
	}

	select {
	case b.entries <- entry:
		return
	default:
	}

	// Full: shed one and retry once.
	select {
	case <-b.entries:
		atomic.AddInt64(&b.dropped, 1)
	default:
	}
	select {
	case b.entries <- entry:
	default:
		atomic.AddInt64(&b.dropped, 1)
	}
}

// DroppedCount reports how many entries were shed under pressure.
func (b *Buffer) DroppedCount() int64 {
	return atomic.LoadInt64(&b.dropped)
}

// Close stops the worker and flushes whatever is still queued. Safe to
// call more than once.
func (b *Buffer) Close() {
	if !atomic.CompareAndSwapInt32(&b.closed, 0, 1) {
		return
	}

	close(b.done)
	b.wg.Wait()

	for {
		select {
		case entry := <-b.entries:
			b.deliver(entry)
		default:
			return
		}
	}
}

func (b *Buffer) drain() {
	defer b.wg.Done()
	for {
		select {
		case entry := <-b.entries:
			b.deliver(entry)
		case <-b.done:
			return
		}
	}
}

// deliver fans the entry out to every transporter; a failing
// transporter reports to stderr and must not block the others.
func (b *Buffer) deliver(entry Entry) {
	for _, t := range b.transporters {
		if err := t.Write(entry); err != nil {
			fmt.Fprintf(os.Stderr, "log transporter %q failed: %v\n", t.Name(), err)
		}
	}
}
