package audio

import (
	"errors"
	"sync"
)

var ErrRingSize = errors.New("target buffer must match ring size")

// Ring is a fixed-size circular buffer. Writes overwrite the oldest values.
type Ring[T any] struct {
	mutex   sync.RWMutex
	values  []T
	pointer int // next slot to overwrite, oldest value once full
	count   int
}

// NewRing creates a ring holding size values
func NewRing[T any](size int) *Ring[T] {
	return &Ring[T]{values: make([]T, size)}
}

// Enqueue appends values, overwriting the oldest ones when full
func (r *Ring[T]) Enqueue(elems ...T) {
	n := len(r.values)
	if n == 0 {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Only the tail fits when more values arrive than the ring holds
	if len(elems) >= n {
		copy(r.values, elems[len(elems)-n:])
		r.pointer = 0
		r.count = n
		return
	}

	end := r.pointer + len(elems)
	if end < n {
		copy(r.values[r.pointer:end], elems)
		r.pointer = end
	} else {
		tail := n - r.pointer
		copy(r.values[r.pointer:], elems[:tail])
		copy(r.values, elems[tail:])
		r.pointer = end - n
	}

	r.count += len(elems)
	if r.count > n {
		r.count = n
	}
}

// Retrieve copies the whole ring into buf, oldest first. Unwritten slots hold
// the zero value.
func (r *Ring[T]) Retrieve(buf []T) error {
	n := len(r.values)
	if len(buf) != n {
		return ErrRingSize
	}

	r.mutex.RLock()
	tail := n - r.pointer
	copy(buf[:tail], r.values[r.pointer:])
	copy(buf[tail:], r.values[:r.pointer])
	r.mutex.RUnlock()

	return nil
}

// Last returns up to k of the most recent values, oldest first
func (r *Ring[T]) Last(k int) []T {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if k > r.count {
		k = r.count
	}
	if k <= 0 {
		return nil
	}

	n := len(r.values)
	out := make([]T, k)
	start := (r.pointer - k + n) % n
	for i := 0; i < k; i++ {
		out[i] = r.values[(start+i)%n]
	}
	return out
}

// Len returns the number of values written, capped at the ring size
func (r *Ring[T]) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.count
}

// Cap returns the ring size
func (r *Ring[T]) Cap() int {
	return len(r.values)
}

// Reset forgets every value
func (r *Ring[T]) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var zero T
	for i := range r.values {
		r.values[i] = zero
	}
	r.pointer = 0
	r.count = 0
}
