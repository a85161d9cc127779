// Package ringbuffer contains a bounded, blocking FIFO used to bridge the
// RTSP reader goroutine (producer) to the consumer calling read_frame
// (consumer). It is the only object shared between the two.
package ringbuffer

import (
	"fmt"
	"sync"
)

// RingBuffer is a fixed-size FIFO queue. Push blocks while full, Pull
// blocks while empty; ordering is strict insertion order.
type RingBuffer struct {
	size       uint64
	mutex      sync.Mutex
	cond       *sync.Cond
	buffer     []interface{}
	count      uint64
	readIndex  uint64
	writeIndex uint64
	closed     bool
}

// New allocates a RingBuffer. size must be a power of two.
func New(size uint64) (*RingBuffer, error) {
	if size == 0 || (size&(size-1)) != 0 {
		return nil, fmt.Errorf("size must be a power of two")
	}

	r := &RingBuffer{
		size:   size,
		buffer: make([]interface{}, size),
	}
	r.cond = sync.NewCond(&r.mutex)

	return r, nil
}

// Close makes every blocked and future Push/Pull return immediately.
// Data already queued stays available to Pull until the queue is drained.
func (r *RingBuffer) Close() {
	r.mutex.Lock()
	r.closed = true
	r.mutex.Unlock()

	r.cond.Broadcast()
}

// Push appends data at the end of the queue, blocking while the queue is
// full. It returns false if the queue was closed before the push could
// complete.
func (r *RingBuffer) Push(data interface{}) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for r.count == r.size && !r.closed {
		r.cond.Wait()
	}

	if r.closed {
		return false
	}

	r.buffer[r.writeIndex] = data
	r.writeIndex = (r.writeIndex + 1) % r.size
	r.count++

	r.cond.Broadcast()
	return true
}

// Pull removes and returns the oldest element, blocking while the queue is
// empty. It returns false once the queue is closed and drained.
func (r *RingBuffer) Pull() (interface{}, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for r.count == 0 && !r.closed {
		r.cond.Wait()
	}

	if r.count == 0 {
		return nil, false
	}

	data := r.buffer[r.readIndex]
	r.buffer[r.readIndex] = nil
	r.readIndex = (r.readIndex + 1) % r.size
	r.count--

	r.cond.Broadcast()
	return data, true
}
