package transcript

// DefaultCapacity is the number of entries kept in the live window.
const DefaultCapacity = 100

// Window is a bounded sliding window keeping the most recent entries in
// insertion order. It is not safe for concurrent use; the owner serialises access.
type Window[T any] struct {
	buf   []T
	start int
	size  int
}

// NewWindow creates a window holding at most capacity entries.
func NewWindow[T any](capacity int) *Window[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Append adds v, evicting the oldest entry when the window is full. It
// returns true when an entry was evicted.
func (w *Window[T]) Append(v T) bool {
	c := len(w.buf)
	if w.size < c {
		w.buf[(w.start+w.size)%c] = v
		w.size++
		return false
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % c
	return true
}

// Entries returns a copy of the window, oldest first.
func (w *Window[T]) Entries() []T {
	out := make([]T, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

func (w *Window[T]) Len() int { return w.size }

func (w *Window[T]) Cap() int { return len(w.buf) }
