package node

import (
	"sync"
	"time"
)

type EventType string

const (
	EventSent     EventType = "sent"
	EventReceived EventType = "received"
	EventError    EventType = "error"
)

// Event is a message sent or received by the node, or an error.
type Event struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`

	// Peer is the destination of a sent message.
	Peer PeerID `json:"peer,omitempty"`

	Kind       string `json:"msg_type,omitempty"`
	ID         uint64 `json:"msg_id"`
	Forwarder  PeerID `json:"msg_forwarder,omitempty"`
	Originator PeerID `json:"msg_originator,omitempty"`
	TTL        int    `json:"ttl"`
	Data       *Value `json:"data,omitempty"`

	Error string `json:"error,omitempty"`
}

func messageEvent(t EventType, peer PeerID, m Message) Event {
	e := Event{
		Type:       t,
		Peer:       peer,
		Kind:       m.Kind().String(),
		ID:         m.ID,
		Forwarder:  m.Forwarder,
		Originator: m.Originator,
		TTL:        m.TTL,
	}
	if u, ok := m.Body.(ValueUpdate); ok {
		v := u.Value
		e.Data = &v
	}
	return e
}

func errorEvent(err error) Event {
	return Event{
		Type:  EventError,
		Error: err.Error(),
	}
}

const subscriberBuffer = 64

// EventLog keeps the most recent events in a fixed size ring buffer, and
// notifies subscribers of new events.
type EventLog struct {
	events []Event
	// next is the index of the next write in events.
	next   int
	isFull bool
	seq    uint64

	subscribers map[chan Event]struct{}

	// mu protects the above fields.
	mu sync.Mutex
}

func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = 1
	}
	return &EventLog{
		events:      make([]Event, size),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Append adds the event, assigning its sequence number and timestamp if
// unset.
func (l *EventLog) Append(e Event) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	e.Seq = l.seq
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	l.events[l.next] = e
	l.next++
	if l.next == len(l.events) {
		l.next = 0
		l.isFull = true
	}

	for ch := range l.subscribers {
		select {
		case ch <- e:
		default:
			// Drop rather than block on slow subscribers.
		}
	}

	return e
}

// Recent returns up to n of the most recent events, oldest first.
func (l *EventLog) Recent(n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := l.lenLocked()
	if n > size {
		n = size
	}
	if n <= 0 {
		return []Event{}
	}

	events := make([]Event, 0, n)
	start := l.next - n
	if start < 0 {
		start += len(l.events)
	}
	for i := 0; i != n; i++ {
		events = append(events, l.events[(start+i)%len(l.events)])
	}
	return events
}

// Len returns the number of retained events.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.lenLocked()
}

// Clear discards all retained events. Subscribers remain subscribed.
func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	clear(l.events)
	l.next = 0
	l.isFull = false
}

// Subscribe returns a channel that receives events appended after the call.
// The returned function unsubscribes and closes the channel.
//
// Events are dropped if the subscriber falls behind.
func (l *EventLog) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	l.mu.Lock()
	l.subscribers[ch] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subscribers, ch)
			l.mu.Unlock()

			close(ch)
		})
	}
}

func (l *EventLog) lenLocked() int {
	if l.isFull {
		return len(l.events)
	}
	return l.next
}
