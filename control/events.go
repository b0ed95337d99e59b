// control/events.go
// Author: momentics <momentics@gmail.com>
//
// Bounded history of overlay events for debug dumps.

package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Event is one recorded overlay operation.
type Event struct {
	At     time.Time
	Op     string
	Index  int
	Status string
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s[%d] %s", e.At.Format(time.RFC3339Nano), e.Op, e.Index, e.Status)
}

// EventLog keeps the most recent events, dropping the oldest when full.
type EventLog struct {
	mu    sync.Mutex
	q     *queue.Queue
	limit int
	total uint64
}

// NewEventLog creates a log holding at most limit events.
func NewEventLog(limit int) *EventLog {
	if limit <= 0 {
		limit = 1
	}
	return &EventLog{q: queue.New(), limit: limit}
}

// Record appends an event.
func (l *EventLog) Record(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.q.Add(e)
	for l.q.Length() > l.limit {
		l.q.Remove()
	}
	l.total++
}

// Recent returns the retained events, oldest first.
func (l *EventLog) Recent() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, l.q.Length())
	for i := range out {
		out[i] = l.q.Get(i).(Event)
	}
	return out
}

// Total returns the number of events ever recorded.
func (l *EventLog) Total() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
