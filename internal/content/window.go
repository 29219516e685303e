package content

import "bytes"

// Window holds the most recent bytes of a stream together with their prefix
// hashes in two parallel circular buffers. The hash of the last L bytes is
// recovered by subtracting two buffered prefix values.
type Window struct {
	hasher *Hasher
	hashes []int64
	raw    []byte
	start  int
	size   int
	// prefix hash of the most recently evicted byte, 0 until the first eviction
	evicted int64
}

// NewWindow returns a window able to verify literals up to capacity-1 bytes
// long. capacity must be at least 1.
func NewWindow(capacity int, hasher *Hasher) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		hasher: hasher,
		hashes: make([]int64, capacity),
		raw:    make([]byte, capacity),
	}
}

// Cap returns the buffer capacity.
func (w *Window) Cap() int { return len(w.raw) }

// Len returns the number of buffered bytes.
func (w *Window) Len() int { return w.size }

func (w *Window) at(i int) int { return (w.start + i) % len(w.raw) }

// Push appends b at the hasher's current index, evicting the oldest byte
// when the window is full.
func (w *Window) Push(b byte) {
	var prev int64
	if w.size > 0 {
		prev = w.hashes[w.at(w.size-1)]
	}
	h := w.hasher.UpdateHash(prev, b)
	if w.size == len(w.raw) {
		w.evicted = w.hashes[w.start]
		w.start = (w.start + 1) % len(w.raw)
		w.size--
	}
	pos := w.at(w.size)
	w.hashes[pos] = h
	w.raw[pos] = b
	w.size++
}

// Matches reports whether key occurs in the window ending key.Offset() bytes
// before the newest byte. A hash hit is always confirmed byte by byte; hits
// that fail confirmation are added to collisions when it is non-nil.
func (w *Window) Matches(key *SearchKey, collisions *int64) bool {
	length := int(key.Len())
	offset := int(key.offset)
	if length+offset > w.size {
		return false
	}
	end := w.size - 1 - offset
	begin := end - length + 1

	if key.short() {
		return w.equalAt(begin, key.value)
	}

	prev := w.evicted
	if begin > 0 {
		prev = w.hashes[w.at(begin-1)]
	}
	mod := w.hasher.modulus
	got := (w.hashes[w.at(end)] - prev + mod) % mod
	if got != key.hash {
		return false
	}
	if collisions != nil {
		*collisions++
	}
	if !w.equalAt(begin, key.value) {
		return false
	}
	if collisions != nil {
		*collisions--
	}
	return true
}

func (w *Window) equalAt(begin int, value []byte) bool {
	first := w.at(begin)
	if first+len(value) <= len(w.raw) {
		return bytes.Equal(w.raw[first:first+len(value)], value)
	}
	for i, b := range value {
		if w.raw[w.at(begin+i)] != b {
			return false
		}
	}
	return true
}
