// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Fixed slot pool contract shared by the overlay facade and its tests.

package api

// SlotPool hands out indices of a fixed set of equally sized buffers.
type SlotPool interface {
	// Acquire claims the lowest free slot. Never blocks.
	Acquire() (int, error)

	// Release returns a slot to the free set and reports the free count.
	// Releasing a free slot is a no-op.
	Release(index int) (int, error)

	// Descriptor returns slot metadata, or nil for an out-of-range index.
	Descriptor(index int) *BufferDescriptor

	// Count returns the number of slots.
	Count() int

	// FreeCount returns the number of unclaimed slots.
	FreeCount() int
}

// BufferPoolStats aggregates slot allocation stats.
type BufferPoolStats struct {
	Count       int
	Free        int
	InUse       int
	Acquires    int64
	Releases    int64
	Exhaustions int64
}
