package logging

import "sync"

// DefaultBufferSize is the number of entries kept in quiet mode.
const DefaultBufferSize = 50

// Buffer is a fixed-size ring of log entries.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry
	start   int
	count   int
}

// NewBuffer creates a buffer holding up to size entries.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{entries: make([]Entry, size)}
}

// Add appends an entry, overwriting the oldest when full.
func (b *Buffer) Add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.entries)
	b.entries[(b.start+b.count)%size] = e
	if b.count < size {
		b.count++
	} else {
		b.start = (b.start + 1) % size
	}
}

// Last returns the newest n entries, oldest first.
func (b *Buffer) Last(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.count || n < 0 {
		n = b.count
	}
	out := make([]Entry, n)
	offset := b.count - n
	for i := range n {
		out[i] = b.entries[(b.start+offset+i)%len(b.entries)]
	}
	return out
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}
