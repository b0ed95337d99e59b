//go:build linux

package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-overlay/internal/shm"
	"github.com/momentics/hioload-overlay/pool"
)

func TestPoolOverSharedSegment(t *testing.T) {
	const n, size = 3, 64 * 48 * 4
	p, err := pool.New(shm.Allocator{Name: "pool_test"}, n, size)
	require.NoError(t, err)
	defer p.Close()

	fd := p.Segment().FD()
	require.GreaterOrEqual(t, fd, 0)

	view, err := shm.MapFD(fd, n*size)
	require.NoError(t, err)
	defer shm.Unmap(view)

	for i := 0; i < n; i++ {
		d := p.Descriptor(i)
		require.NotNil(t, d)
		assert.Equal(t, fd, d.Handle)
		d.Bytes()[0] = byte(i + 1)
		assert.Equal(t, byte(i+1), view[d.Offset], "slot %d not visible through shared handle", i)
	}
}
