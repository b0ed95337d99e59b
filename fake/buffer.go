// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake segments and allocators for testing.
// Provides predictable, controllable behavior for the pool's memory capability.

package fake

import (
	"errors"
	"sync"

	"github.com/momentics/hioload-overlay/api"
)

// Segment is a heap-backed api.Segment.
type Segment struct {
	mu       sync.Mutex
	data     []byte
	fd       int
	closed   bool
	closes   int
	closeErr error
}

// NewSegment creates a heap segment of size bytes reporting fd as its handle.
func NewSegment(size, fd int) *Segment {
	return &Segment{data: make([]byte, size), fd: fd}
}

// FD returns the configured handle.
func (s *Segment) FD() int { return s.fd }

// Size returns the length of the backing slice.
func (s *Segment) Size() int { return len(s.data) }

// Bytes returns the backing slice.
func (s *Segment) Bytes() []byte { return s.data }

// Close marks the segment closed and returns the configured error.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.closes++
	return s.closeErr
}

// FailClose makes Close return err.
func (s *Segment) FailClose(err error) {
	s.mu.Lock()
	s.closeErr = err
	s.mu.Unlock()
}

// Closed reports whether Close has been called.
func (s *Segment) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Closes returns how many times Close has been called.
func (s *Segment) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// ErrAllocFailed is returned by a failing Allocator.
var ErrAllocFailed = errors.New("fake: allocation failed")

// Allocator is a controllable api.SegmentAllocator.
type Allocator struct {
	mu sync.Mutex

	// Fail makes Allocate return ErrAllocFailed wrapped in api.ErrSegmentCreate.
	Fail bool
	// Short truncates the returned segment by this many bytes.
	Short int
	// FD is reported by every segment.
	FD int

	segments []*Segment
}

// NewAllocator creates an allocator handing out heap segments.
func NewAllocator() *Allocator {
	return &Allocator{FD: 7}
}

// Allocate implements api.SegmentAllocator.
func (a *Allocator) Allocate(size int) (api.Segment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail {
		return nil, errors.Join(api.ErrSegmentCreate, ErrAllocFailed)
	}
	n := size - a.Short
	if n < 0 {
		n = 0
	}
	seg := NewSegment(n, a.FD)
	a.segments = append(a.segments, seg)
	return seg, nil
}

// Last returns the most recently allocated segment, or nil.
func (a *Allocator) Last() *Segment {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.segments) == 0 {
		return nil
	}
	return a.segments[len(a.segments)-1]
}

var _ api.SegmentAllocator = (*Allocator)(nil)
