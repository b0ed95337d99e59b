// Package fake
// Author: momentics <momentics@gmail.com>
//
// Recording hardware hooks for testing.

package fake

import (
	"sync"

	"github.com/momentics/hioload-overlay/api"
)

// Crop is one recorded SetCrop call.
type Crop struct {
	X, Y, W, H uint32
}

// Submission is one recorded SubmitBuffer call.
type Submission struct {
	Index int
	Size  int
	First byte // first byte of the buffer at submit time
}

// Hooks records every call of all three hook capabilities.
type Hooks struct {
	mu          sync.Mutex
	descriptors []int
	crops       []Crop
	submissions []Submission

	// OnSubmit runs inside SubmitBuffer when set.
	OnSubmit func(d api.BufferDescriptor, size int)
}

var (
	_ api.DescriptorHook = (*Hooks)(nil)
	_ api.CropHook       = (*Hooks)(nil)
	_ api.SubmitHook     = (*Hooks)(nil)
)

// NewHooks creates an empty recorder.
func NewHooks() *Hooks { return &Hooks{} }

// SetDescriptor implements api.DescriptorHook.
func (h *Hooks) SetDescriptor(fd int) {
	h.mu.Lock()
	h.descriptors = append(h.descriptors, fd)
	h.mu.Unlock()
}

// SetCrop implements api.CropHook.
func (h *Hooks) SetCrop(x, y, w, hh uint32) {
	h.mu.Lock()
	h.crops = append(h.crops, Crop{X: x, Y: y, W: w, H: hh})
	h.mu.Unlock()
}

// SubmitBuffer implements api.SubmitHook.
func (h *Hooks) SubmitBuffer(d api.BufferDescriptor, size int) {
	s := Submission{Index: d.Index, Size: size}
	if b := d.Bytes(); len(b) > 0 {
		s.First = b[0]
	}
	h.mu.Lock()
	h.submissions = append(h.submissions, s)
	fn := h.OnSubmit
	h.mu.Unlock()
	if fn != nil {
		fn(d, size)
	}
}

// Descriptors returns the recorded SetDescriptor arguments.
func (h *Hooks) Descriptors() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.descriptors...)
}

// Crops returns the recorded SetCrop arguments.
func (h *Hooks) Crops() []Crop {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Crop(nil), h.crops...)
}

// Submissions returns the recorded SubmitBuffer calls.
func (h *Hooks) Submissions() []Submission {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Submission(nil), h.submissions...)
}

// SubmitOnly implements only api.SubmitHook.
type SubmitOnly struct {
	mu    sync.Mutex
	calls int
}

// SubmitBuffer implements api.SubmitHook.
func (s *SubmitOnly) SubmitBuffer(api.BufferDescriptor, int) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

// Calls returns the number of submissions.
func (s *SubmitOnly) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
