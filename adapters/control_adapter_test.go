package adapters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-overlay/adapters"
	"github.com/momentics/hioload-overlay/control"
)

func TestControlAdapterBasic(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	assert.Empty(t, ctrl.GetConfig(), "expected empty config on init")

	called := 0
	ctrl.OnReload(func() { called++ })
	require.NoError(t, ctrl.SetConfig(map[string]any{"k": 1}))
	assert.Equal(t, 1, ctrl.GetConfig()["k"])
	assert.Equal(t, 1, called)
	assert.Error(t, ctrl.SetConfig(nil))

	ctrl.IncMetric("overlay.queue")
	ctrl.SetMetric("pool.free", 3)
	ctrl.RegisterDebugProbe("probe", func() any { return "x" })
	stats := ctrl.Stats()
	assert.EqualValues(t, 1, stats["overlay.queue"])
	assert.Equal(t, 3, stats["pool.free"])
	assert.Equal(t, "x", stats["debug.probe"])
	assert.Contains(t, stats, "debug.platform.cpus")
}

func TestControlAdapterEvents(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	for i := 0; i < adapters.DefaultEventHistory+10; i++ {
		ctrl.RecordEvent(control.Event{Op: "dequeue", Index: i})
	}
	events := ctrl.Events()
	require.Len(t, events, adapters.DefaultEventHistory)
	assert.Equal(t, 10, events[0].Index)
	assert.EqualValues(t, adapters.DefaultEventHistory+10, ctrl.DumpState()["events.total"])
}
