package sorter

import "testing"

func TestPopsHighestScoreFirst(t *testing.T) {
	var s MoveSorter
	s.Add(1, 3)
	s.Add(2, 1)
	s.Add(3, 5)
	s.Add(4, 2)

	want := []uint64{3, 1, 4, 2}
	for _, w := range want {
		if got := s.GetNext(); got != w {
			t.Fatalf("GetNext() = %d, want %d", got, w)
		}
	}
	if got := s.GetNext(); got != 0 {
		t.Fatalf("GetNext() on empty sorter = %d, want 0", got)
	}
}

func TestTiesPreserveInsertionOrder(t *testing.T) {
	var s MoveSorter
	s.Add(10, 4)
	s.Add(20, 4)
	s.Add(30, 4)

	// ascending-by-score with stable ties means insertion order survives,
	// so GetNext (which pops the tail) returns them in reverse insertion
	// order among the tied group.
	if got := s.GetNext(); got != 30 {
		t.Fatalf("GetNext() = %d, want 30", got)
	}
	if got := s.GetNext(); got != 20 {
		t.Fatalf("GetNext() = %d, want 20", got)
	}
	if got := s.GetNext(); got != 10 {
		t.Fatalf("GetNext() = %d, want 10", got)
	}
}

func TestResetClearsSize(t *testing.T) {
	var s MoveSorter
	s.Add(1, 1)
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after Reset", s.Len())
	}
	if got := s.GetNext(); got != 0 {
		t.Fatalf("GetNext() after Reset = %d, want 0", got)
	}
}

func TestCapacity(t *testing.T) {
	var s MoveSorter
	for i := 0; i < capacity; i++ {
		s.Add(uint64(i+1), i)
	}
	if s.Len() != capacity {
		t.Fatalf("Len() = %d, want %d", s.Len(), capacity)
	}
}
