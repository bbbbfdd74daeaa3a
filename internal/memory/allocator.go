// Package memory implements the device allocator collaborator: a passthrough
// allocator with explicit capacity accounting, stream handles, per-operation
// event logging with a CSV report, and Prometheus instrumentation.
package memory

import (
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
)

// Stream is an opaque execution-stream handle. The passthrough allocator is
// synchronous, so streams only tag log events, but the handle keeps the
// call surface stable for asynchronous backends.
type Stream int

// DefaultStream is the implicit stream.
const DefaultStream Stream = 0

// DefaultCapacity is the device capacity used when Config.Capacity is zero.
const DefaultCapacity = 4 << 30 // 4 GiB

// Config configures a Manager. Zero values are usable: default capacity,
// nop logger, no metrics registration.
type Config struct {
	Capacity   uint64
	Logger     log.Logger
	Registerer prometheus.Registerer
}

// Manager is the allocator. It hands out byte buffers from the Go heap while
// accounting against a fixed capacity, so exhaustion and GetInfo behave like
// a real device. Every operation is recorded in the event log on every exit
// path, including failures.
type Manager struct {
	mu    sync.Mutex
	total uint64
	used  uint64
	live  map[*byte]uint64 // base pointer -> allocation size

	events  *EventLog
	logger  log.Logger
	metrics *managerMetrics
}

// NewManager creates a Manager with a fresh event log.
func NewManager(cfg Config) *Manager {
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	m := &Manager{
		total:  cfg.Capacity,
		live:   make(map[*byte]uint64),
		events: NewEventLog(),
		logger: cfg.Logger,
	}
	if cfg.Registerer != nil {
		m.metrics = newManagerMetrics(cfg.Registerer)
		m.metrics.bytesTotal.Set(float64(m.total))
	}
	return m
}

// Events returns the manager's event log.
func (m *Manager) Events() *EventLog { return m.events }

// Alloc allocates size bytes and stores the buffer through out.
// Contract: a nil out with size zero is a no-op success; size zero stores a
// nil buffer and succeeds; a nil out with nonzero size is ErrInvalidArgument;
// exceeding capacity is ErrOutOfMemory.
func (m *Manager) Alloc(out *[]byte, size int, stream Stream) (err error) {
	ev := m.events.begin(EventAlloc, size, stream)
	defer func() { m.complete(ev, EventAlloc, err) }()

	if out == nil && size == 0 {
		return nil
	}
	if size == 0 {
		*out = nil
		return nil
	}
	if out == nil {
		return ErrInvalidArgument
	}
	if size < 0 {
		return ErrInvalidArgument
	}

	buf, err := m.grab(uint64(size))
	if err != nil {
		return err
	}
	ev.setPointer(&buf[0])
	*out = buf

	level.Debug(m.logger).Log("msg", "alloc", "size", size, "stream", stream)
	return nil
}

// Realloc releases the buffer currently stored through out and allocates a
// fresh one of newSize in its place. Like the device passthrough it mirrors,
// it recycles rather than preserves: the old contents are not copied.
func (m *Manager) Realloc(out *[]byte, newSize int, stream Stream) (err error) {
	ev := m.events.begin(EventRealloc, newSize, stream)
	defer func() { m.complete(ev, EventRealloc, err) }()

	if out == nil && newSize == 0 {
		return nil
	}
	if out == nil {
		return ErrInvalidArgument
	}
	if newSize < 0 {
		return ErrInvalidArgument
	}

	if len(*out) > 0 {
		if err := m.put(*out); err != nil {
			return err
		}
		*out = nil
	}
	if newSize == 0 {
		return nil
	}

	buf, err := m.grab(uint64(newSize))
	if err != nil {
		return err
	}
	ev.setPointer(&buf[0])
	*out = buf

	level.Debug(m.logger).Log("msg", "realloc", "size", newSize, "stream", stream)
	return nil
}

// Free releases a buffer. A nil buffer is a no-op success; a buffer the
// manager does not own is ErrDevice.
func (m *Manager) Free(buf []byte, stream Stream) (err error) {
	ev := m.events.begin(EventFree, len(buf), stream)
	if len(buf) > 0 {
		ev.setPointer(&buf[0])
	}
	defer func() { m.complete(ev, EventFree, err) }()

	if len(buf) == 0 {
		return nil
	}
	if err := m.put(buf); err != nil {
		return err
	}

	level.Debug(m.logger).Log("msg", "free", "size", len(buf), "stream", stream)
	return nil
}

// GetInfo returns the free and total byte counts of the managed capacity.
func (m *Manager) GetInfo(stream Stream) (free, total uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total - m.used, m.total, nil
}

// grab reserves size bytes against capacity and allocates the buffer.
func (m *Manager) grab(size uint64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.used+size > m.total {
		return nil, ErrOutOfMemory
	}
	buf := make([]byte, size)
	m.used += size
	m.live[&buf[0]] = size
	return buf, nil
}

// put returns a buffer's bytes to capacity.
func (m *Manager) put(buf []byte) error {
	if len(buf) == 0 {
		return ErrDevice
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := &buf[0]
	size, ok := m.live[key]
	if !ok {
		return ErrDevice
	}
	delete(m.live, key)
	m.used -= size
	return nil
}

// complete finishes the pending event with the post-operation accounting and
// updates metrics. Runs on every exit path.
func (m *Manager) complete(ev *pendingEvent, kind EventKind, err error) {
	m.mu.Lock()
	free, total, liveAllocs := m.total-m.used, m.total, len(m.live)
	used := m.used
	m.mu.Unlock()

	ev.finish(free, total, liveAllocs, err)

	if m.metrics == nil {
		return
	}
	if err != nil {
		m.metrics.failuresTotal.WithLabelValues(kind.String()).Inc()
	} else {
		switch kind {
		case EventAlloc:
			m.metrics.allocsTotal.Inc()
		case EventRealloc:
			m.metrics.reallocsTotal.Inc()
		case EventFree:
			m.metrics.freesTotal.Inc()
		}
	}
	m.metrics.bytesInUse.Set(float64(used))
}
