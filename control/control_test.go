package control_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-overlay/control"
)

func TestConfigStoreReload(t *testing.T) {
	cs := control.NewConfigStore()
	var calls atomic.Int32
	cs.OnReload(func() { calls.Add(1) })

	cs.SetConfig(map[string]any{"a": 1})
	cs.SetConfig(map[string]any{"b": 2, "a": 3})

	assert.EqualValues(t, 2, calls.Load())
	snap := cs.GetSnapshot()
	assert.Equal(t, map[string]any{"a": 3, "b": 2}, snap)

	snap["a"] = 99
	v, ok := cs.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v, "snapshot must be a copy")
}

func TestMetricsInc(t *testing.T) {
	mr := control.NewMetricsRegistry()
	mr.Inc("x")
	mr.Inc("x")
	mr.Set("y", 5)
	snap := mr.GetSnapshot()
	assert.EqualValues(t, 2, snap["x"])
	assert.Equal(t, 5, snap["y"])
	assert.False(t, mr.Updated().IsZero())
}

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	control.RegisterPlatformProbes(dp)
	dp.RegisterProbe("answer", func() any { return 42 })
	state := dp.DumpState()
	assert.Equal(t, 42, state["answer"])
	assert.Contains(t, state, "platform.cpus")
	assert.Contains(t, state, "platform.pagesize")
}

func TestEventLogKeepsMostRecent(t *testing.T) {
	log := control.NewEventLog(3)
	for i := 0; i < 5; i++ {
		log.Record(control.Event{Op: "queue", Index: i, Status: "ok"})
	}
	recent := log.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, 2, recent[0].Index)
	assert.Equal(t, 4, recent[2].Index)
	assert.EqualValues(t, 5, log.Total())
	assert.False(t, recent[0].At.IsZero())
	assert.Contains(t, recent[2].String(), "queue[4] ok")
}

func TestHotReloadSync(t *testing.T) {
	var hit atomic.Bool
	control.RegisterReloadHook(func() { hit.Store(true) })
	control.TriggerHotReloadSync()
	assert.True(t, hit.Load())
}
