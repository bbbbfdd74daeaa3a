package memory

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// EventKind identifies one allocator operation in the event log.
type EventKind uint8

const (
	EventAlloc EventKind = iota
	EventRealloc
	EventFree
)

func (k EventKind) String() string {
	switch k {
	case EventAlloc:
		return "Alloc"
	case EventRealloc:
		return "Realloc"
	case EventFree:
		return "Free"
	default:
		return "Unknown"
	}
}

// Event is one completed allocator operation: what ran, on which stream,
// how long it took, and the manager's free/total accounting when it
// finished. Failed operations are recorded too, with Err set.
type Event struct {
	Kind       EventKind
	Ptr        *byte
	Size       int
	Stream     Stream
	Start, End time.Time
	Free       uint64
	Total      uint64
	LiveAllocs int
	Err        string
}

// EventLog is an explicitly constructed, append-only record of every
// allocator operation. A Manager holds exactly one; there is no process
// singleton, which keeps the log testable and its lifecycle explicit.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// begin starts timing an operation. The returned pending record must be
// finished on every exit path of the operation (the callers defer it), so
// the event lands in the log even when the operation fails.
func (l *EventLog) begin(kind EventKind, size int, stream Stream) *pendingEvent {
	return &pendingEvent{
		log: l,
		ev: Event{
			Kind:   kind,
			Size:   size,
			Stream: stream,
			Start:  time.Now(),
		},
	}
}

type pendingEvent struct {
	log *EventLog
	ev  Event
}

// setPointer fills the address once it is known; an allocation has no
// address until the underlying allocation call returns.
func (p *pendingEvent) setPointer(ptr *byte) {
	p.ev.Ptr = ptr
}

func (p *pendingEvent) finish(free, total uint64, liveAllocs int, err error) {
	p.ev.End = time.Now()
	p.ev.Free = free
	p.ev.Total = total
	p.ev.LiveAllocs = liveAllocs
	if err != nil {
		p.ev.Err = err.Error()
	}
	p.log.mu.Lock()
	p.log.events = append(p.log.events, p.ev)
	p.log.mu.Unlock()
}

// Len returns the number of recorded events.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Reset clears the log.
func (l *EventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

var csvHeader = []string{
	"Event Type", "Address", "Stream", "Size (bytes)",
	"Free Memory", "Total Memory", "Live Allocs",
	"Start", "End", "Elapsed", "Error",
}

// WriteCSV renders the log as a CSV report.
func (l *EventLog) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	for _, ev := range l.Events() {
		rec := []string{
			ev.Kind.String(),
			fmt.Sprintf("%p", ev.Ptr),
			strconv.Itoa(int(ev.Stream)),
			strconv.Itoa(ev.Size),
			strconv.FormatUint(ev.Free, 10),
			strconv.FormatUint(ev.Total, 10),
			strconv.Itoa(ev.LiveAllocs),
			ev.Start.Format(time.RFC3339Nano),
			ev.End.Format(time.RFC3339Nano),
			ev.End.Sub(ev.Start).String(),
			ev.Err,
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(ErrIO, err.Error())
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// WriteFile writes the CSV report to the given path.
func (l *EventLog) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	defer f.Close()
	if err := l.WriteCSV(f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}
