// File: facade/overlay.go
// Unified overlay facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Overlay composes the shared buffer pool with the hardware hook adapter. A
// producer dequeues a slot, writes pixels into its mapped view and queues it;
// queueing hands the slot to the submit hook and returns it to the free set.
// Construction either maps every slot or leaves the overlay Failed for good.

package facade

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/momentics/hioload-overlay/adapters"
	"github.com/momentics/hioload-overlay/api"
	"github.com/momentics/hioload-overlay/control"
	"github.com/momentics/hioload-overlay/internal/shm"
	"github.com/momentics/hioload-overlay/pool"
)

// State is the overlay lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateFailed
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Rect is a crop rectangle in source pixels.
type Rect struct {
	X, Y, W, H uint32
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithLogger sets the logger for the overlay and its components.
func WithLogger(l *slog.Logger) Option {
	return func(o *Overlay) {
		if l != nil {
			o.base = l
		}
	}
}

// WithAllocator replaces the shared memory allocator.
func WithAllocator(a api.SegmentAllocator) Option {
	return func(o *Overlay) { o.alloc = a }
}

// WithControl shares a control adapter between overlays.
func WithControl(c *adapters.ControlAdapter) Option {
	return func(o *Overlay) { o.ctrl = c }
}

// Overlay is the facade over the buffer pool and hardware hooks.
// It implements api.GracefulShutdown.
type Overlay struct {
	cfg     Config
	bufSize int
	hooks   *adapters.HookAdapter
	ctrl    *adapters.ControlAdapter
	alloc   api.SegmentAllocator
	base    *slog.Logger
	log     *slog.Logger

	// mu guards state, err, crop and the pool lifetime. Buffer operations hold
	// it shared so Destroy cannot unmap under a running submit hook.
	mu    sync.RWMutex
	state State
	err   error
	crop  Rect
	pool  *pool.BufferPool
}

var _ api.GracefulShutdown = (*Overlay)(nil)

// New builds an overlay. It never returns nil: when the segment or any slot
// mapping cannot be established the overlay is Failed, reported by Status and
// Err, and must be destroyed and recreated.
//
// hooks may implement any subset of api.DescriptorHook, api.CropHook and
// api.SubmitHook, or be an *adapters.HookFuncs; nil disables all hooks.
func New(cfg Config, hooks any, opts ...Option) *Overlay {
	if cfg.Format == 0 {
		cfg.Format = FormatRGBA8888
	}
	if cfg.SegmentName == "" {
		cfg.SegmentName = shm.DefaultName
	}
	o := &Overlay{
		cfg:   cfg,
		state: StateUninitialized,
		base:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.base.With("component", "overlay")
	if o.ctrl == nil {
		o.ctrl = adapters.NewControlAdapter()
	}
	o.hooks = adapters.NewHookAdapter(hooks, o.base)
	o.registerProbes()
	o.log.Debug("init overlay", "width", cfg.Width, "height", cfg.Height, "buffers", cfg.BufferCount)

	if err := cfg.Validate(); err != nil {
		o.fail(err)
		return o
	}
	o.bufSize = cfg.BufferSize()
	if o.alloc == nil {
		o.alloc = shm.Allocator{Name: cfg.SegmentName, Logger: o.base}
	}
	p, err := pool.New(o.alloc, cfg.BufferCount, o.bufSize, pool.WithLogger(o.base))
	if err != nil {
		o.fail(err)
		return o
	}
	o.pool = p
	o.state = StateReady
	o.ctrl.SetMetric("pool.free", p.FreeCount())
	o.log.Info("overlay ready", "buffers", p.Count(), "buffer_size", o.bufSize, "fd", p.Segment().FD())
	return o
}

func (o *Overlay) fail(err error) {
	o.state = StateFailed
	o.err = err
	o.log.Error("overlay init failed", "err", err)
}

func (o *Overlay) registerProbes() {
	o.ctrl.RegisterDebugProbe("overlay.state", func() any { return o.State().String() })
	o.ctrl.RegisterDebugProbe("hooks.capabilities", func() any { return o.hooks.Capabilities().String() })
	o.ctrl.RegisterDebugProbe("pool.stats", func() any { return o.Stats() })
	o.ctrl.RegisterDebugProbe("overlay.events", func() any {
		events := o.ctrl.Events()
		out := make([]string, len(events))
		for i, e := range events {
			out[i] = e.String()
		}
		return out
	})
}

// readyLocked returns nil when buffer operations may proceed. Caller holds mu.
func (o *Overlay) readyLocked() error {
	switch o.state {
	case StateReady:
		return nil
	case StateFailed:
		return api.NewError(api.StatusFailure, "overlay failed", o.err)
	default:
		return api.NewError(api.StatusNotInitialized, "overlay "+o.state.String(), api.ErrNotInitialized)
	}
}

func (o *Overlay) record(op string, index int, err error) {
	o.ctrl.RecordEvent(control.Event{Op: op, Index: index, Status: api.StatusOf(err).String()})
}

// Dequeue claims the lowest free slot for writing. It never blocks: with
// every slot held it fails with StatusNoFreeBuffer and the caller skips or
// retries the frame.
func (o *Overlay) Dequeue() (int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if err := o.readyLocked(); err != nil {
		return -1, err
	}
	idx, err := o.pool.Acquire()
	if err != nil {
		o.record("dequeue", -1, err)
		switch {
		case errors.Is(err, api.ErrNoFreeBuffer):
			o.ctrl.IncMetric("overlay.exhausted")
		case errors.Is(err, api.ErrInconsistentState):
			o.log.Error("pool state corrupted", "err", err)
		}
		return -1, api.NewError(api.StatusOf(err), "dequeue", err)
	}
	o.ctrl.IncMetric("overlay.dequeue")
	o.ctrl.SetMetric("pool.free", o.pool.FreeCount())
	o.record("dequeue", idx, nil)
	o.log.Debug("dequeue", "index", idx)
	return idx, nil
}

// Queue submits slot index to the hardware and returns it to the free set.
// The submit hook runs outside the pool lock and must be done with the slot
// contents when it returns. The result is the number of free slots left.
//
// Submitting a slot that was never dequeued, or submitting it twice, fails
// with StatusInvalidIndex and does not reach the hook.
func (o *Overlay) Queue(index int) (int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if err := o.readyLocked(); err != nil {
		return -1, err
	}
	if err := o.pool.BeginSubmit(index); err != nil {
		o.record("queue", index, err)
		return o.pool.FreeCount(), api.NewError(api.StatusOf(err), "queue", err).WithContext("index", index)
	}
	d := o.pool.Descriptor(index)
	o.hooks.OnSubmit(*d, o.bufSize)

	free, err := o.pool.Release(index)
	if err != nil {
		o.record("queue", index, err)
		return free, api.NewError(api.StatusOf(err), "queue", err)
	}
	o.ctrl.IncMetric("overlay.queue")
	o.ctrl.SetMetric("pool.free", free)
	o.record("queue", index, nil)
	o.log.Debug("queue", "index", index, "free", free)
	return free, nil
}

// statusErr reports the overlay status as an error for forwarding calls.
func (o *Overlay) statusErr() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.readyLocked()
}

// SetCrop forwards the visible source rectangle to the crop hook and
// remembers it for GetCrop. The pool is not involved.
func (o *Overlay) SetCrop(x, y, w, h uint32) error {
	o.log.Debug("set crop", "x", x, "y", y, "w", w, "h", h)
	o.mu.Lock()
	o.crop = Rect{X: x, Y: y, W: w, H: h}
	o.mu.Unlock()
	o.hooks.OnCropChange(x, y, w, h)
	return o.statusErr()
}

// GetCrop returns the last rectangle passed to SetCrop.
func (o *Overlay) GetCrop() (Rect, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.crop, o.readyLocked()
}

// SetDescriptor forwards a descriptor to the descriptor hook.
func (o *Overlay) SetDescriptor(fd int) error {
	o.log.Debug("set descriptor", "fd", fd)
	o.hooks.OnDescriptorChange(fd)
	return o.statusErr()
}

// PublishDescriptor announces the segment handle to the descriptor hook so
// the consumer can map the same pages.
func (o *Overlay) PublishDescriptor() error {
	fd := o.SegmentFD()
	if fd < 0 {
		if err := o.statusErr(); err != nil {
			return err
		}
		return api.NewError(api.StatusFailure, "segment has no shareable handle", api.ErrNotSupported)
	}
	return o.SetDescriptor(fd)
}

// ResizeInput accepts only the construction dimensions; buffer size is fixed
// for the overlay lifetime.
func (o *Overlay) ResizeInput(width, height int) error {
	o.log.Debug("resize input", "width", width, "height", height)
	if err := o.statusErr(); err != nil {
		return err
	}
	if width != o.cfg.Width || height != o.cfg.Height {
		return api.NewError(api.StatusInvalidIndex, "buffer dimensions are immutable", api.ErrInvalidArgument).
			WithContext("width", width).WithContext("height", height)
	}
	return nil
}

// SetParameter records a hardware tuning parameter in the control store.
// Reload listeners registered on the control adapter observe the change.
func (o *Overlay) SetParameter(name string, value int) error {
	o.log.Debug("set parameter", "name", name, "value", value)
	if name == "" {
		return api.NewError(api.StatusInvalidIndex, "empty parameter name", api.ErrInvalidArgument)
	}
	if err := o.ctrl.SetConfig(map[string]any{"param." + name: value}); err != nil {
		return err
	}
	return o.statusErr()
}

// BufferAddress returns the mapped view of slot index for direct pixel
// writes, or nil for an invalid index or an overlay that is not ready.
func (o *Overlay) BufferAddress(index int) []byte {
	if d := o.Descriptor(index); d != nil {
		return d.Bytes()
	}
	return nil
}

// Descriptor returns slot metadata, or nil for an invalid index or an
// overlay that is not ready.
func (o *Overlay) Descriptor(index int) *api.BufferDescriptor {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.state != StateReady {
		return nil
	}
	return o.pool.Descriptor(index)
}

// SegmentFD returns the shared segment handle, or -1.
func (o *Overlay) SegmentFD() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.state != StateReady {
		return -1
	}
	return o.pool.Segment().FD()
}

// FreeCount returns the number of free slots, 0 when not ready.
func (o *Overlay) FreeCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.state != StateReady {
		return 0
	}
	return o.pool.FreeCount()
}

// Stats returns pool counters; zero when not ready.
func (o *Overlay) Stats() api.BufferPoolStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.state != StateReady {
		return api.BufferPoolStats{}
	}
	return o.pool.Stats()
}

// Destroy unmaps the segment. Unmap failures are logged, not returned as
// fatal; later buffer operations report StatusNotInitialized. Calling it
// again is a no-op. Do not call it from a hook.
func (o *Overlay) Destroy() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateDestroyed {
		return nil
	}
	o.log.Debug("destroy")
	var err error
	if o.pool != nil {
		if err = o.pool.Close(); err != nil {
			o.log.Warn("unmap failed", "err", err)
		}
		o.pool = nil
	}
	o.state = StateDestroyed
	return err
}

// Shutdown implements api.GracefulShutdown by delegating to Destroy.
func (o *Overlay) Shutdown() error {
	return o.Destroy()
}

// State returns the lifecycle state.
func (o *Overlay) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Status maps the lifecycle state to a status code.
func (o *Overlay) Status() api.Status {
	return api.StatusOf(o.statusErr())
}

// Err returns the construction failure, if any.
func (o *Overlay) Err() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.err
}

// Control returns the metrics, parameter and debug surface.
func (o *Overlay) Control() *adapters.ControlAdapter { return o.ctrl }

// Capabilities reports which hardware hooks are wired.
func (o *Overlay) Capabilities() api.HookCaps { return o.hooks.Capabilities() }

func (o *Overlay) Width() int        { return o.cfg.Width }
func (o *Overlay) Height() int       { return o.cfg.Height }
func (o *Overlay) Format() Format    { return o.cfg.Format }
func (o *Overlay) WidthStride() int  { return o.cfg.Width }
func (o *Overlay) HeightStride() int { return o.cfg.Height }
func (o *Overlay) BufferSize() int   { return o.bufSize }
func (o *Overlay) BufferCount() int  { return o.cfg.BufferCount }
