// Package api
// Author: momentics
//
// Shared-memory segment and buffer slot descriptors.
//
// A segment is one contiguous mapping; every slot is a fixed-size view into it.
// Slot contents are shared with the hardware consumer and are never locked.

package api

import "unsafe"

// Segment is one mapped, shareable memory region.
type Segment interface {
	// FD returns the OS handle other parties map to see the same pages, or -1.
	FD() int

	// Size returns the mapped length in bytes.
	Size() int

	// Bytes returns the whole mapping.
	Bytes() []byte

	// Close unmaps the region and releases the handle.
	Close() error
}

// SegmentAllocator creates segments. The pool receives it as a capability.
type SegmentAllocator interface {
	Allocate(size int) (Segment, error)
}

// SegmentAllocatorFunc adapts a function to SegmentAllocator.
type SegmentAllocatorFunc func(size int) (Segment, error)

// Allocate calls f(size).
func (f SegmentAllocatorFunc) Allocate(size int) (Segment, error) { return f(size) }

// BufferDescriptor is the immutable metadata of one buffer slot.
type BufferDescriptor struct {
	Index  int // stable slot identity, 0..N-1
	Handle int // segment FD
	Offset int // Index * Length
	Length int

	data []byte
}

// NewBufferDescriptor binds a descriptor to its mapped view.
func NewBufferDescriptor(index, handle, offset int, data []byte) BufferDescriptor {
	return BufferDescriptor{
		Index:  index,
		Handle: handle,
		Offset: offset,
		Length: len(data),
		data:   data,
	}
}

// Bytes returns the slot's mapped view. Valid only while the segment is mapped.
func (d BufferDescriptor) Bytes() []byte { return d.data }

// Addr returns the process-local mapped address, or 0 if unmapped.
func (d BufferDescriptor) Addr() uintptr {
	if len(d.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&d.data[0]))
}

// Mapped reports whether the descriptor has a full-length view.
func (d BufferDescriptor) Mapped() bool {
	return d.Length > 0 && len(d.data) == d.Length
}
