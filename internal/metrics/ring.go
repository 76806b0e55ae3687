package metrics

// ring is a fixed-capacity buffer with O(1) insert-with-eviction. Entries are
// read back newest first. Not safe for concurrent use; the Aggregator's lock
// covers it.
type ring[T any] struct {
	buf  []T
	next int
	size int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends v as the newest entry, evicting the oldest when full.
func (r *ring[T]) push(v T) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

func (r *ring[T]) len() int { return r.size }

// latest returns up to n entries, newest first, copied out of the buffer.
func (r *ring[T]) latest(n int) []T {
	if n > r.size {
		n = r.size
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		idx := (r.next - 1 - i + len(r.buf)) % len(r.buf)
		out[i] = r.buf[idx]
	}
	return out
}
