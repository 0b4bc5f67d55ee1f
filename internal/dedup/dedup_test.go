package dedup

import "testing"

func TestSeenOrAddDetectsDuplicates(t *testing.T) {
	s := NewSet(10)
	if s.SeenOrAdd("a") {
		t.Fatal("first sighting of a should not be seen")
	}
	if !s.SeenOrAdd("a") {
		t.Fatal("second sighting of a should be seen")
	}
}

func TestSeenOrAddEvictsOldestAtCapacity(t *testing.T) {
	s := NewSet(2)
	s.SeenOrAdd("a")
	s.SeenOrAdd("b")
	s.SeenOrAdd("c") // evicts "a"

	if s.SeenOrAdd("a") {
		t.Fatal("a should have been evicted and treated as new again")
	}
}
