package eventcache

import (
	"fmt"
	"sync"
	"testing"
)

func TestAddIsIdempotent(t *testing.T) {
	c := New(10)

	c.Add("ev-1")
	c.Add("ev-1")

	if !c.Exists("ev-1") {
		t.Fatalf("expected ev-1 to exist")
	}
	if got := c.Len(); got != 1 {
		t.Fatalf("expected size 1 after duplicate add, got %d", got)
	}
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	const capacity = 5
	c := New(capacity)

	ids := make([]string, capacity+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("ev-%d", i)
		c.Add(ids[i])
	}

	if c.Exists(ids[0]) {
		t.Fatalf("oldest id %q should have been evicted", ids[0])
	}
	for _, id := range ids[1:] {
		if !c.Exists(id) {
			t.Fatalf("recent id %q missing", id)
		}
	}
	if got := c.Len(); got != capacity {
		t.Fatalf("size %d exceeds capacity %d", got, capacity)
	}
}

func TestDuplicateAddDoesNotEvict(t *testing.T) {
	c := New(3)
	c.Add("a")
	c.Add("b")
	c.Add("c")

	// Re-adding a full cache's member must not push anything out.
	c.Add("a")

	for _, id := range []string{"a", "b", "c"} {
		if !c.Exists(id) {
			t.Fatalf("id %q unexpectedly evicted", id)
		}
	}
}

func TestSeenReportsFirstObservationOnce(t *testing.T) {
	c := New(10)

	if c.Seen("ev-1") {
		t.Fatalf("first observation reported as duplicate")
	}
	if !c.Seen("ev-1") {
		t.Fatalf("second observation not reported as duplicate")
	}
}

func TestSeenUnderConcurrentRedelivery(t *testing.T) {
	c := New(100)
	const goroutines = 32

	var wg sync.WaitGroup
	firsts := make(chan struct{}, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !c.Seen("same-event") {
				firsts <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(firsts)

	if got := len(firsts); got != 1 {
		t.Fatalf("expected exactly one first observation, got %d", got)
	}
}

func TestZeroCapacityFallsBackToDefault(t *testing.T) {
	c := New(0)
	for i := 0; i < DefaultCapacity+1; i++ {
		c.Add(fmt.Sprintf("ev-%d", i))
	}
	if got := c.Len(); got != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, got)
	}
}
