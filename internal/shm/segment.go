// File: internal/shm/segment.go
// Author: momentics <momentics@gmail.com>

package shm

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/momentics/hioload-overlay/api"
)

// DefaultName labels segments in /proc/<pid>/fd and /proc/<pid>/maps.
const DefaultName = "overlay_buffer_region"

// Segment is a mapped shareable region. It implements api.Segment.
type Segment struct {
	name string
	fd   int
	data []byte

	closeOnce sync.Once
	closeErr  error
}

var _ api.Segment = (*Segment)(nil)

// Create allocates and maps a shareable region of size bytes.
func Create(name string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: size %d: %w", size, api.ErrInvalidArgument)
	}
	if name == "" {
		name = DefaultName
	}
	fd, data, err := createPlatform(name, size)
	if err != nil {
		return nil, fmt.Errorf("shm: create %q (%d bytes): %w: %w", name, size, api.ErrSegmentCreate, err)
	}
	return &Segment{name: name, fd: fd, data: data}, nil
}

// Name returns the label the segment was created with.
func (s *Segment) Name() string { return s.name }

// FD returns the shareable handle, or -1 when the platform has none.
func (s *Segment) FD() int { return s.fd }

// Size returns the mapped length.
func (s *Segment) Size() int { return len(s.data) }

// Bytes returns the mapping. Nil after Close.
func (s *Segment) Bytes() []byte { return s.data }

// Close unmaps the region and closes the handle. Only the first call acts.
func (s *Segment) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = releasePlatform(s.fd, s.data)
		s.data = nil
		s.fd = -1
	})
	return s.closeErr
}

// Allocator creates named segments. It implements api.SegmentAllocator.
type Allocator struct {
	Name   string
	Logger *slog.Logger
}

// Allocate creates a segment of size bytes.
func (a Allocator) Allocate(size int) (api.Segment, error) {
	seg, err := Create(a.Name, size)
	if err != nil {
		return nil, err
	}
	if a.Logger != nil {
		a.Logger.Debug("segment mapped", "component", "shm", "name", seg.Name(), "fd", seg.FD(), "size", seg.Size())
	}
	return seg, nil
}
