package bus

import "sync"

// Delivery is one message taken off the bus.
type Delivery struct {
	// Topic is the full topic the message arrived on.
	Topic string

	// DeviceID identifies the publishing station.
	DeviceID string

	// Suffix is the role segment of the topic (e.g. "access/response").
	Suffix string

	// Payload is the raw message body.
	Payload []byte

	// Retained marks a value replayed by the broker on subscribe.
	Retained bool
}

// Inbox is a bounded delivery queue between the bus session and the
// station loop. When full, the oldest delivery is evicted so the
// station always sees the most recent traffic.
type Inbox struct {
	mu       sync.Mutex
	queue    []Delivery
	capacity int
	dropped  uint64

	wake chan struct{}
}

// NewInbox creates an inbox holding at most capacity deliveries.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	return &Inbox{
		queue:    make([]Delivery, 0, capacity),
		capacity: capacity,
		wake:     make(chan struct{}, 1),
	}
}

// Put appends a delivery, evicting the oldest when the queue is full.
func (in *Inbox) Put(d Delivery) {
	in.mu.Lock()
	if len(in.queue) == in.capacity {
		copy(in.queue, in.queue[1:])
		in.queue[len(in.queue)-1] = d
		in.dropped++
	} else {
		in.queue = append(in.queue, d)
	}
	in.mu.Unlock()

	select {
	case in.wake <- struct{}{}:
	default:
	}
}

// Drain removes and returns all queued deliveries in arrival order.
// It returns nil when the inbox is empty.
func (in *Inbox) Drain() []Delivery {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.queue) == 0 {
		return nil
	}
	out := make([]Delivery, len(in.queue))
	copy(out, in.queue)
	in.queue = in.queue[:0]
	return out
}

// Len returns the number of queued deliveries.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}

// Dropped returns the number of deliveries evicted since creation.
func (in *Inbox) Dropped() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.dropped
}

// Wake signals after every Put. Station loops select on it to sleep
// until traffic arrives instead of polling.
func (in *Inbox) Wake() <-chan struct{} {
	return in.wake
}
