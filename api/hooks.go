// File: api/hooks.go
// Author: momentics <momentics@gmail.com>
//
// Optional hardware capabilities. A hook target implements any subset.

package api

import "strings"

// DescriptorHook receives the segment handle the consumer should map.
type DescriptorHook interface {
	SetDescriptor(fd int)
}

// CropHook receives the visible source rectangle.
type CropHook interface {
	SetCrop(x, y, w, h uint32)
}

// SubmitHook consumes a filled buffer. The slot is freed when it returns,
// so implementations must copy or finish with the contents synchronously.
type SubmitHook interface {
	SubmitBuffer(d BufferDescriptor, size int)
}

// HookCaps is a bitmask of the capabilities a hook target provides.
type HookCaps uint8

const (
	CapDescriptor HookCaps = 1 << iota
	CapCrop
	CapSubmit
)

// Has reports whether all bits of c are set.
func (h HookCaps) Has(c HookCaps) bool { return h&c == c }

func (h HookCaps) String() string {
	var parts []string
	if h.Has(CapDescriptor) {
		parts = append(parts, "descriptor")
	}
	if h.Has(CapCrop) {
		parts = append(parts, "crop")
	}
	if h.Has(CapSubmit) {
		parts = append(parts, "submit")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
