package pool_test

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-overlay/api"
	"github.com/momentics/hioload-overlay/fake"
	"github.com/momentics/hioload-overlay/pool"
)

func newPool(t *testing.T, count, size int) *pool.BufferPool {
	t.Helper()
	p, err := pool.New(fake.NewAllocator(), count, size)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestNewPoolDescriptors(t *testing.T) {
	const n, size = 4, 640
	p := newPool(t, n, size)

	assert.Equal(t, n, p.Count())
	assert.Equal(t, n, p.FreeCount())
	assert.Equal(t, size, p.BufferSize())

	seen := make(map[uintptr]bool)
	for i := 0; i < n; i++ {
		d := p.Descriptor(i)
		require.NotNil(t, d)
		assert.Equal(t, i, d.Index)
		assert.Equal(t, i*size, d.Offset)
		assert.Equal(t, size, d.Length)
		assert.Equal(t, 7, d.Handle)
		assert.True(t, d.Mapped())
		assert.NotZero(t, d.Addr())
		assert.LessOrEqual(t, d.Offset+d.Length, p.Segment().Size())
		assert.False(t, seen[d.Addr()], "duplicate address for slot %d", i)
		seen[d.Addr()] = true
	}
	// Adjacent slots never overlap.
	for i := 1; i < n; i++ {
		assert.Equal(t, p.Descriptor(i-1).Addr()+uintptr(size), p.Descriptor(i).Addr())
	}
}

func TestNewPoolRejectsBadArguments(t *testing.T) {
	_, err := pool.New(fake.NewAllocator(), 0, 16)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = pool.New(fake.NewAllocator(), 2, 0)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = pool.New(nil, 2, 16)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestNewPoolAllocationFailure(t *testing.T) {
	alloc := fake.NewAllocator()
	alloc.Fail = true
	_, err := pool.New(alloc, 2, 16)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrSegmentCreate)
	assert.Equal(t, api.StatusFailure, api.StatusOf(err))
}

func TestNewPoolShortSegmentIsClosed(t *testing.T) {
	alloc := fake.NewAllocator()
	alloc.Short = 1
	_, err := pool.New(alloc, 2, 16)
	require.ErrorIs(t, err, api.ErrSegmentCreate)
	require.NotNil(t, alloc.Last())
	assert.True(t, alloc.Last().Closed())
}

func TestAcquireLowestIndexFirst(t *testing.T) {
	p := newPool(t, 3, 8)
	for want := 0; want < 3; want++ {
		got, err := p.Acquire()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := p.Release(1)
	require.NoError(t, err)
	_, err = p.Release(0)
	require.NoError(t, err)

	got, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 0, got, "release order must not affect allocation order")
}

func TestAcquireExhaustedLeavesStateUnchanged(t *testing.T) {
	p := newPool(t, 2, 8)
	_, _ = p.Acquire()
	_, _ = p.Acquire()

	for i := 0; i < 3; i++ {
		idx, err := p.Acquire()
		assert.ErrorIs(t, err, api.ErrNoFreeBuffer)
		assert.Equal(t, api.StatusNoFreeBuffer, api.StatusOf(err))
		assert.Equal(t, -1, idx)
		assert.Equal(t, 0, p.FreeCount())
	}
	assert.True(t, p.Held(0))
	assert.True(t, p.Held(1))
	assert.EqualValues(t, 3, p.Stats().Exhaustions)
}

func TestReleaseIsIdempotent(t *testing.T) {
	p := newPool(t, 2, 8)
	idx, err := p.Acquire()
	require.NoError(t, err)

	first, err := p.Release(idx)
	require.NoError(t, err)
	second, err := p.Release(idx)
	require.NoError(t, err)
	assert.Equal(t, 2, first)
	assert.Equal(t, first, second)

	// A never-acquired slot is already free.
	free, err := p.Release(1)
	require.NoError(t, err)
	assert.Equal(t, 2, free)
}

func TestReleaseOutOfRange(t *testing.T) {
	p := newPool(t, 2, 8)
	_, _ = p.Acquire()

	for _, idx := range []int{-1, 2, 100} {
		free, err := p.Release(idx)
		assert.ErrorIs(t, err, api.ErrInvalidIndex)
		assert.Equal(t, api.StatusInvalidIndex, api.StatusOf(err))
		assert.Equal(t, 1, free)
		assert.Equal(t, 1, p.FreeCount())
	}
}

func TestDescriptorOutOfRange(t *testing.T) {
	p := newPool(t, 2, 8)
	assert.Nil(t, p.Descriptor(-1))
	assert.Nil(t, p.Descriptor(2))
	assert.False(t, p.Held(5))
}

func TestBeginSubmit(t *testing.T) {
	p := newPool(t, 2, 8)

	err := p.BeginSubmit(0)
	assert.ErrorIs(t, err, api.ErrInvalidIndex, "free slot cannot be submitted")

	idx, err := p.Acquire()
	require.NoError(t, err)
	require.NoError(t, p.BeginSubmit(idx))
	assert.ErrorIs(t, p.BeginSubmit(idx), api.ErrInvalidIndex, "second submit must fail")
	assert.True(t, p.Held(idx))

	// A submitting slot is not handed out again.
	next, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	free, err := p.Release(idx)
	require.NoError(t, err)
	assert.Equal(t, 1, free)
	assert.ErrorIs(t, p.BeginSubmit(7), api.ErrInvalidIndex)
}

func TestFreeCountStaysInRange(t *testing.T) {
	const n = 5
	p := newPool(t, n, 4)
	rng := rand.New(rand.NewSource(1))
	held := map[int]bool{}

	for step := 0; step < 2000; step++ {
		if rng.Intn(2) == 0 {
			idx, err := p.Acquire()
			if err == nil {
				require.False(t, held[idx], "slot %d handed out twice", idx)
				held[idx] = true
			} else {
				require.ErrorIs(t, err, api.ErrNoFreeBuffer)
				require.Len(t, held, n)
			}
		} else {
			idx := rng.Intn(n+2) - 1
			free, err := p.Release(idx)
			if idx < 0 || idx >= n {
				require.ErrorIs(t, err, api.ErrInvalidIndex)
			} else {
				require.NoError(t, err)
				delete(held, idx)
			}
			require.GreaterOrEqual(t, free, 0)
			require.LessOrEqual(t, free, n)
		}
		require.Equal(t, n-len(held), p.FreeCount())
	}
}

func TestConcurrentAcquireRelease(t *testing.T) {
	const n, workers, rounds = 4, 16, 200
	p := newPool(t, n, 16)

	var owners [n]sync.Mutex
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for r := 0; r < rounds; r++ {
				idx, err := p.Acquire()
				if errors.Is(err, api.ErrNoFreeBuffer) {
					continue
				}
				if err != nil {
					return err
				}
				if !owners[idx].TryLock() {
					return errors.New("slot observed by two holders")
				}
				owners[idx].Unlock()
				if _, err := p.Release(idx); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, n, p.FreeCount())
	st := p.Stats()
	assert.Equal(t, st.Acquires, st.Releases)
	assert.Equal(t, 0, st.InUse)
}

func TestClose(t *testing.T) {
	alloc := fake.NewAllocator()
	p, err := pool.New(alloc, 2, 8)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, alloc.Last().Closes())

	_, err = p.Acquire()
	assert.ErrorIs(t, err, api.ErrPoolClosed)
	assert.Equal(t, api.StatusNotInitialized, api.StatusOf(err))
}

func TestCloseReportsUnmapFailure(t *testing.T) {
	alloc := fake.NewAllocator()
	p, err := pool.New(alloc, 1, 8)
	require.NoError(t, err)
	boom := errors.New("munmap: invalid argument")
	alloc.Last().FailClose(boom)
	assert.ErrorIs(t, p.Close(), boom)
}
