package relay

import (
	"fmt"
	"sync"
)

// outbox queues encoded envelopes for one connection's writer goroutine.
type outbox struct {
	id     string
	frames chan []byte
	mu     sync.Mutex
	closed bool
}

// newOutbox creates an outbox for participant id.
//
// Postcondition: Returns an outbox with an open frames channel.
func newOutbox(id string, bufferSize int) *outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &outbox{
		id:     id,
		frames: make(chan []byte, bufferSize),
	}
}

// push enqueues data without blocking.
//
// Postcondition: Returns an error if the outbox is closed or full.
func (o *outbox) push(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.id)
	}
	select {
	case o.frames <- data:
		return nil
	default:
		return fmt.Errorf("outbox %s buffer full", o.id)
	}
}

// close closes the frames channel. It is idempotent.
func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.frames)
	}
}

func (o *outbox) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
