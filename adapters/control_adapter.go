// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control using control package primitives.

package adapters

import (
	"github.com/momentics/hioload-overlay/api"
	"github.com/momentics/hioload-overlay/control"
)

// DefaultEventHistory is the number of overlay events kept for debug dumps.
const DefaultEventHistory = 64

type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
	events  *control.EventLog
}

var (
	_ api.Control = (*ControlAdapter)(nil)
	_ api.Debug   = (*ControlAdapter)(nil)
)

func NewControlAdapter() *ControlAdapter {
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
		events:  control.NewEventLog(DefaultEventHistory),
	}
	control.RegisterPlatformProbes(adapter.debug)
	adapter.debug.RegisterProbe("events.total", func() any { return adapter.events.Total() })
	return adapter
}

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	if cfg == nil {
		return api.ErrInvalidArgument
	}
	c.config.SetConfig(cfg)
	return nil
}

// Stats merges metrics with probe output; probe keys carry a "debug." prefix.
func (c *ControlAdapter) Stats() map[string]any {
	stats := c.metrics.GetSnapshot()
	debugStats := c.debug.DumpState()
	combined := make(map[string]any, len(stats)+len(debugStats))
	for k, v := range stats {
		combined[k] = v
	}
	for k, v := range debugStats {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

func (c *ControlAdapter) IncMetric(key string) {
	c.metrics.Inc(key)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// RegisterProbe implements api.Debug.
func (c *ControlAdapter) RegisterProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// DumpState implements api.Debug.
func (c *ControlAdapter) DumpState() map[string]any {
	return c.debug.DumpState()
}

// RecordEvent appends to the bounded event history.
func (c *ControlAdapter) RecordEvent(e control.Event) {
	c.events.Record(e)
}

// Events returns the retained event history, oldest first.
func (c *ControlAdapter) Events() []control.Event {
	return c.events.Recent()
}
