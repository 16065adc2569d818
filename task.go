package scm

// Task is a page-load request and, once fulfilled, its result. A Task is
// owned by exactly one party at a time: the requester, one of the two
// queues, a loader goroutine, or Update. Nothing shares it.
type Task struct {
	// Key identifies the requested page.
	Key PageKey

	// RequestedAt is the time value GetPage was called with.
	RequestedAt int64

	// Data is the bordered page payload, (PageSize+2)^2 pixels. It is nil
	// until a loader fills it, and stays nil when the read failed: an
	// empty payload is the only failure signal that crosses the worker
	// boundary.
	Data []byte
}

// Valid reports whether the task carries a usable payload.
func (t Task) Valid() bool {
	return len(t.Data) > 0
}
