package audio

import (
	"errors"
	"slices"
	"testing"
)

func TestRingRetrieveOrdersOldestFirst(t *testing.T) {
	r := NewRing[int](4)
	r.Enqueue(1, 2, 3)
	r.Enqueue(4, 5)

	buf := make([]int, 4)
	if err := r.Retrieve(buf); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(buf, []int{2, 3, 4, 5}) {
		t.Fatalf("expected [2 3 4 5], got %v", buf)
	}
}

func TestRingEnqueueMoreThanCapacity(t *testing.T) {
	r := NewRing[int](3)
	r.Enqueue(1, 2, 3, 4, 5, 6, 7)

	buf := make([]int, 3)
	if err := r.Retrieve(buf); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(buf, []int{5, 6, 7}) {
		t.Fatalf("expected [5 6 7], got %v", buf)
	}
	if r.Len() != 3 {
		t.Fatalf("expected length 3, got %d", r.Len())
	}
}

func TestRingWrapsExactlyAtEnd(t *testing.T) {
	r := NewRing[int](4)
	r.Enqueue(1, 2)
	r.Enqueue(3, 4)
	r.Enqueue(5)

	if got := r.Last(4); !slices.Equal(got, []int{2, 3, 4, 5}) {
		t.Fatalf("expected [2 3 4 5], got %v", got)
	}
}

func TestRingRetrieveRejectsWrongSize(t *testing.T) {
	r := NewRing[float32](8)
	if err := r.Retrieve(make([]float32, 4)); !errors.Is(err, ErrRingSize) {
		t.Fatalf("expected ErrRingSize, got %v", err)
	}
}

func TestRingLast(t *testing.T) {
	r := NewRing[float64](10)
	if got := r.Last(5); got != nil {
		t.Fatalf("expected nil from empty ring, got %v", got)
	}

	r.Enqueue(1, 2, 3)
	if got := r.Last(5); !slices.Equal(got, []float64{1, 2, 3}) {
		t.Fatalf("expected all three values, got %v", got)
	}
	if got := r.Last(2); !slices.Equal(got, []float64{2, 3}) {
		t.Fatalf("expected [2 3], got %v", got)
	}
}

func TestRingReset(t *testing.T) {
	r := NewRing[int](3)
	r.Enqueue(1, 2, 3)
	r.Reset()

	if r.Len() != 0 {
		t.Fatalf("expected empty ring, got %d", r.Len())
	}
	buf := make([]int, 3)
	r.Retrieve(buf)
	if !slices.Equal(buf, []int{0, 0, 0}) {
		t.Fatalf("expected zeroed ring, got %v", buf)
	}
}
