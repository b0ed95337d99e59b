// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-size buffer slot pool over one shared segment.
// A single mutex guards slot state and the free counter; descriptors are
// immutable after construction and read without locking.

package pool

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/momentics/hioload-overlay/api"
)

type slotState uint8

const (
	slotFree slotState = iota
	slotHeld
	slotSubmitting // handed to the submit hook, not yet released
)

// BufferPool is a fixed set of equally sized slots carved from one segment.
type BufferPool struct {
	seg         api.Segment
	descriptors []api.BufferDescriptor
	bufSize     int
	log         *slog.Logger

	mu    sync.Mutex
	state []slotState
	free  int

	acquires    int64
	releases    int64
	exhaustions int64
	closed      bool
}

var _ api.SlotPool = (*BufferPool)(nil)

// Option configures a BufferPool.
type Option func(*BufferPool)

// WithLogger sets the pool logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *BufferPool) {
		if l != nil {
			p.log = l
		}
	}
}

// New allocates one segment of count*bufSize bytes and carves count slots
// from it. Either every slot is mapped or New fails and the segment is closed.
func New(alloc api.SegmentAllocator, count, bufSize int, opts ...Option) (*BufferPool, error) {
	if alloc == nil || count <= 0 || bufSize <= 0 {
		return nil, fmt.Errorf("pool: count=%d size=%d: %w", count, bufSize, api.ErrInvalidArgument)
	}
	p := &BufferPool{
		bufSize: bufSize,
		log:     slog.Default(),
		state:   make([]slotState, count),
		free:    count,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("component", "pool")

	total := count * bufSize
	seg, err := alloc.Allocate(total)
	if err != nil {
		return nil, fmt.Errorf("pool: allocate %d bytes: %w", total, err)
	}
	if seg == nil || len(seg.Bytes()) < total {
		if seg != nil {
			p.closeSegment(seg)
		}
		return nil, fmt.Errorf("pool: segment shorter than %d bytes: %w", total, api.ErrSegmentCreate)
	}

	mem := seg.Bytes()
	p.descriptors = make([]api.BufferDescriptor, count)
	for i := range p.descriptors {
		off := i * bufSize
		d := api.NewBufferDescriptor(i, seg.FD(), off, mem[off:off+bufSize:off+bufSize])
		if !d.Mapped() {
			p.closeSegment(seg)
			return nil, fmt.Errorf("pool: slot %d not mapped: %w", i, api.ErrSegmentCreate)
		}
		p.descriptors[i] = d
	}
	p.seg = seg
	p.log.Debug("pool ready", "slots", count, "slot_size", bufSize, "fd", seg.FD())
	return p, nil
}

// Acquire claims the lowest-index free slot. It fails fast with
// api.ErrNoFreeBuffer when every slot is held and never blocks.
func (p *BufferPool) Acquire() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return -1, api.ErrPoolClosed
	}
	if p.free == 0 {
		p.exhaustions++
		return -1, api.ErrNoFreeBuffer
	}
	for i, s := range p.state {
		if s == slotFree {
			p.state[i] = slotHeld
			p.free--
			p.acquires++
			return i, nil
		}
	}
	p.log.Error("free count disagrees with slot state", "free", p.free, "slots", len(p.state))
	return -1, api.ErrInconsistentState
}

// Release returns slot index to the free set and reports the free count.
// Releasing a slot that is already free changes nothing.
func (p *BufferPool) Release(index int) (int, error) {
	if index < 0 || index >= len(p.descriptors) {
		return p.FreeCount(), fmt.Errorf("pool: release %d of %d: %w", index, len(p.descriptors), api.ErrInvalidIndex)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state[index] == slotFree {
		return p.free, nil
	}
	p.state[index] = slotFree
	p.free++
	p.releases++
	return p.free, nil
}

// BeginSubmit moves a held slot to the submitting state so that only one
// submission of it reaches the hardware. Slots that are not held fail with
// api.ErrInvalidIndex.
func (p *BufferPool) BeginSubmit(index int) error {
	if index < 0 || index >= len(p.descriptors) {
		return fmt.Errorf("pool: submit %d of %d: %w", index, len(p.descriptors), api.ErrInvalidIndex)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return api.ErrPoolClosed
	}
	if p.state[index] != slotHeld {
		return fmt.Errorf("pool: submit of slot %d not acquired: %w", index, api.ErrInvalidIndex)
	}
	p.state[index] = slotSubmitting
	return nil
}

// Held reports whether slot index is currently claimed by a producer.
func (p *BufferPool) Held(index int) bool {
	if index < 0 || index >= len(p.descriptors) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state[index] != slotFree
}

// Descriptor returns the metadata of slot index, or nil when out of range.
func (p *BufferPool) Descriptor(index int) *api.BufferDescriptor {
	if index < 0 || index >= len(p.descriptors) {
		return nil
	}
	return &p.descriptors[index]
}

// Count returns the number of slots.
func (p *BufferPool) Count() int { return len(p.descriptors) }

// BufferSize returns the byte length of every slot.
func (p *BufferPool) BufferSize() int { return p.bufSize }

// FreeCount returns the number of free slots.
func (p *BufferPool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free
}

// Segment returns the backing segment.
func (p *BufferPool) Segment() api.Segment { return p.seg }

// Stats returns a snapshot of allocation counters.
func (p *BufferPool) Stats() api.BufferPoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return api.BufferPoolStats{
		Count:       len(p.state),
		Free:        p.free,
		InUse:       len(p.state) - p.free,
		Acquires:    p.acquires,
		Releases:    p.releases,
		Exhaustions: p.exhaustions,
	}
}

// Close releases the segment. Acquire fails afterwards; later calls are no-ops.
// Unmap failures are logged and returned, never panicked on.
func (p *BufferPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	return p.closeSegment(p.seg)
}

func (p *BufferPool) closeSegment(seg api.Segment) error {
	if seg == nil {
		return nil
	}
	if err := seg.Close(); err != nil {
		p.log.Warn("segment unmap failed", "fd", seg.FD(), "err", err)
		return err
	}
	return nil
}
