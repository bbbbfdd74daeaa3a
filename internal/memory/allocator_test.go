package memory

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestManager(capacity uint64) *Manager {
	return NewManager(Config{
		Capacity:   capacity,
		Registerer: prometheus.NewRegistry(),
	})
}

func TestAllocContract(t *testing.T) {
	m := newTestManager(1 << 20)

	// Nil out-slot with zero size: no-op success.
	require.NoError(t, m.Alloc(nil, 0, DefaultStream))

	// Zero size with a real out-slot: writes nil, succeeds.
	buf := []byte{1, 2, 3}
	require.NoError(t, m.Alloc(&buf, 0, DefaultStream))
	require.Nil(t, buf)

	// Nil out-slot with nonzero size: invalid argument.
	require.ErrorIs(t, m.Alloc(nil, 64, DefaultStream), ErrInvalidArgument)

	// Ordinary allocation.
	require.NoError(t, m.Alloc(&buf, 128, DefaultStream))
	require.Len(t, buf, 128)
}

func TestAllocOutOfMemory(t *testing.T) {
	m := newTestManager(256)

	var a, b []byte
	require.NoError(t, m.Alloc(&a, 200, DefaultStream))
	require.ErrorIs(t, m.Alloc(&b, 100, DefaultStream), ErrOutOfMemory)
	require.Nil(t, b)

	// Freeing makes room again.
	require.NoError(t, m.Free(a, DefaultStream))
	require.NoError(t, m.Alloc(&b, 100, DefaultStream))
}

func TestFreeContract(t *testing.T) {
	m := newTestManager(1 << 20)

	require.NoError(t, m.Free(nil, DefaultStream))

	foreign := make([]byte, 16)
	require.ErrorIs(t, m.Free(foreign, DefaultStream), ErrDevice)

	var buf []byte
	require.NoError(t, m.Alloc(&buf, 16, DefaultStream))
	require.NoError(t, m.Free(buf, DefaultStream))
	// Double free: the manager no longer owns the buffer.
	require.ErrorIs(t, m.Free(buf, DefaultStream), ErrDevice)
}

func TestReallocContract(t *testing.T) {
	m := newTestManager(1 << 20)

	require.NoError(t, m.Realloc(nil, 0, DefaultStream))
	require.ErrorIs(t, m.Realloc(nil, 32, DefaultStream), ErrInvalidArgument)

	var buf []byte
	require.NoError(t, m.Alloc(&buf, 64, DefaultStream))
	require.NoError(t, m.Realloc(&buf, 256, DefaultStream))
	require.Len(t, buf, 256)

	free, total, err := m.GetInfo(DefaultStream)
	require.NoError(t, err)
	require.Equal(t, total-256, free, "old block must be recycled")

	// Shrinking to zero releases the block entirely.
	require.NoError(t, m.Realloc(&buf, 0, DefaultStream))
	require.Nil(t, buf)
	free, total, err = m.GetInfo(DefaultStream)
	require.NoError(t, err)
	require.Equal(t, total, free)
}

func TestGetInfoAccounting(t *testing.T) {
	m := newTestManager(1000)

	free, total, err := m.GetInfo(DefaultStream)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), total)
	require.Equal(t, uint64(1000), free)

	var a, b []byte
	require.NoError(t, m.Alloc(&a, 300, DefaultStream))
	require.NoError(t, m.Alloc(&b, 200, DefaultStream))
	free, _, _ = m.GetInfo(DefaultStream)
	require.Equal(t, uint64(500), free)

	require.NoError(t, m.Free(a, DefaultStream))
	free, _, _ = m.GetInfo(DefaultStream)
	require.Equal(t, uint64(800), free)
}

func TestEveryOperationIsLogged(t *testing.T) {
	m := newTestManager(128)

	var buf []byte
	require.NoError(t, m.Alloc(&buf, 64, DefaultStream))
	require.NoError(t, m.Free(buf, DefaultStream))
	// A failing operation must be logged too.
	require.Error(t, m.Alloc(nil, 32, DefaultStream))

	events := m.Events().Events()
	require.Len(t, events, 3)
	require.Equal(t, EventAlloc, events[0].Kind)
	require.Equal(t, 64, events[0].Size)
	require.NotNil(t, events[0].Ptr)
	require.Empty(t, events[0].Err)
	require.Equal(t, EventFree, events[1].Kind)
	require.Equal(t, EventAlloc, events[2].Kind)
	require.NotEmpty(t, events[2].Err)

	for _, ev := range events {
		require.False(t, ev.Start.IsZero())
		require.False(t, ev.End.Before(ev.Start))
		require.Equal(t, uint64(128), ev.Total)
	}
}
