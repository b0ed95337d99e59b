// File: adapters/hook_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
//
// HookAdapter forwards pool events to whichever hardware capabilities the
// integration layer provides. Missing capabilities are silently skipped.

package adapters

import (
	"log/slog"

	"github.com/momentics/hioload-overlay/api"
)

// HookAdapter probes a hook target once and forwards events to it.
type HookAdapter struct {
	descriptor api.DescriptorHook
	crop       api.CropHook
	submit     api.SubmitHook
	caps       api.HookCaps
	log        *slog.Logger
}

// NewHookAdapter inspects target for each capability independently.
// A nil target yields an adapter where every event is a no-op.
func NewHookAdapter(target any, logger *slog.Logger) *HookAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HookAdapter{log: logger.With("component", "hooks")}
	if f, ok := target.(*HookFuncs); ok {
		h.bindFuncs(f)
		return h
	}
	if d, ok := target.(api.DescriptorHook); ok {
		h.descriptor = d
		h.caps |= api.CapDescriptor
	}
	if c, ok := target.(api.CropHook); ok {
		h.crop = c
		h.caps |= api.CapCrop
	}
	if s, ok := target.(api.SubmitHook); ok {
		h.submit = s
		h.caps |= api.CapSubmit
	}
	return h
}

func (h *HookAdapter) bindFuncs(f *HookFuncs) {
	if f.SetFDHook != nil {
		h.descriptor = f
		h.caps |= api.CapDescriptor
	}
	if f.SetCropHook != nil {
		h.crop = f
		h.caps |= api.CapCrop
	}
	if f.QueueBufferHook != nil {
		h.submit = f
		h.caps |= api.CapSubmit
	}
}

// Capabilities reports which hooks are wired.
func (h *HookAdapter) Capabilities() api.HookCaps { return h.caps }

// OnSubmit hands a filled buffer to the hardware. It returns once the hook
// has finished with the contents.
func (h *HookAdapter) OnSubmit(d api.BufferDescriptor, size int) {
	if h.submit == nil {
		return
	}
	h.log.Debug("submit", "index", d.Index, "size", size)
	h.submit.SubmitBuffer(d, size)
}

// OnCropChange forwards a new source rectangle.
func (h *HookAdapter) OnCropChange(x, y, w, hh uint32) {
	if h.crop == nil {
		return
	}
	h.log.Debug("crop", "x", x, "y", y, "w", w, "h", hh)
	h.crop.SetCrop(x, y, w, hh)
}

// OnDescriptorChange forwards the segment handle.
func (h *HookAdapter) OnDescriptorChange(fd int) {
	if h.descriptor == nil {
		return
	}
	h.log.Debug("descriptor", "fd", fd)
	h.descriptor.SetDescriptor(fd)
}

// HookFuncs adapts a raw callback triple with an opaque context, as supplied
// by C-style integration layers. Nil fields are absent capabilities.
type HookFuncs struct {
	SetFDHook       func(ctx any, fd int)
	SetCropHook     func(ctx any, x, y, w, h uint32)
	QueueBufferHook func(ctx any, d api.BufferDescriptor, size int)
	Context         any
}

// SetDescriptor implements api.DescriptorHook.
func (f *HookFuncs) SetDescriptor(fd int) {
	if f.SetFDHook != nil {
		f.SetFDHook(f.Context, fd)
	}
}

// SetCrop implements api.CropHook.
func (f *HookFuncs) SetCrop(x, y, w, h uint32) {
	if f.SetCropHook != nil {
		f.SetCropHook(f.Context, x, y, w, h)
	}
}

// SubmitBuffer implements api.SubmitHook.
func (f *HookFuncs) SubmitBuffer(d api.BufferDescriptor, size int) {
	if f.QueueBufferHook != nil {
		f.QueueBufferHook(f.Context, d, size)
	}
}
