package platform

import (
	"testing"
	"time"
)

func TestUUIDGeneratorUnique(t *testing.T) {
	gen := UUIDGenerator{}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.NewID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestSequenceGenerator(t *testing.T) {
	gen := &SequenceGenerator{Prefix: "task"}
	if got := gen.NewID(); got != "task-1" {
		t.Fatalf("first id = %s", got)
	}
	if got := gen.NewID(); got != "task-2" {
		t.Fatalf("second id = %s", got)
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	if !FixedClock(at)().Equal(at) {
		t.Fatal("fixed clock drifted")
	}
}
