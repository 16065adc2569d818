package gpu

// Ring is a fixed-size pool of reusable page-sized staging buffers that
// pipeline CPU-to-GPU copies: the uploader acquires a buffer, assembles the
// bordered payload in it, hands it to the queue, and releases it once the
// transfer is enqueued. Recycling a bounded set of buffers keeps page
// uploads from allocating every frame and caps how many transfers can be
// staged at once: when every buffer is in flight, Acquire waits for one
// to come back.
type Ring struct {
	free chan []byte
	size int
}

// NewRing creates a ring of count buffers of size bytes each. Counts below
// 1 are raised to 1.
func NewRing(count, size int) *Ring {
	if count < 1 {
		count = 1
	}
	r := &Ring{
		free: make(chan []byte, count),
		size: size,
	}
	for range count {
		r.free <- make([]byte, size)
	}
	return r
}

// Acquire takes the next free buffer, waiting if all are in flight.
func (r *Ring) Acquire() []byte {
	return <-r.free
}

// Release returns a buffer to the ring. Buffers must come from Acquire on
// the same ring; releasing more buffers than were acquired is a
// programming error and panics on the full channel.
func (r *Ring) Release(buf []byte) {
	r.free <- buf
}

// Count returns the number of currently free buffers.
func (r *Ring) Count() int { return len(r.free) }

// BufferSize returns the byte size of each buffer.
func (r *Ring) BufferSize() int { return r.size }
