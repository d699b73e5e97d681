package cell

import (
	"sync"
	"testing"
)

func TestEmptyCellHasNoValue(t *testing.T) {
	c := Empty[int]()
	if _, ok := c.Value(); ok {
		t.Error("Value() ok = true on empty cell, want false")
	}

	calls := 0
	cancel := c.Subscribe(func(int) { calls++ })
	defer cancel()
	if calls != 0 {
		t.Errorf("subscriber called %d times on empty cell, want 0", calls)
	}
}

func TestSubscribeReplaysLatest(t *testing.T) {
	c := New("first")
	c.Publish("second")

	var got []string
	cancel := c.Subscribe(func(v string) { got = append(got, v) })
	defer cancel()

	if len(got) != 1 || got[0] != "second" {
		t.Errorf("replayed = %v, want [second]", got)
	}
}

func TestPublishReachesAllSubscribersBeforeReturning(t *testing.T) {
	c := Empty[int]()

	var a, b []int
	cancelA := c.Subscribe(func(v int) { a = append(a, v) })
	cancelB := c.Subscribe(func(v int) { b = append(b, v) })
	defer cancelA()
	defer cancelB()

	c.Publish(1)
	c.Publish(2)

	if len(a) != 2 || a[1] != 2 {
		t.Errorf("subscriber A got %v, want [1 2]", a)
	}
	if len(b) != 2 || b[1] != 2 {
		t.Errorf("subscriber B got %v, want [1 2]", b)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	c := New(0)

	var got []int
	cancel := c.Subscribe(func(v int) { got = append(got, v) })
	cancel()
	cancel()
	c.Publish(1)

	if len(got) != 1 {
		t.Errorf("got %v after cancel, want only the replayed value", got)
	}
	if n := c.Subscribers(); n != 0 {
		t.Errorf("Subscribers() = %d, want 0", n)
	}
}

func TestUpdateSeesLatestValue(t *testing.T) {
	c := New(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update(func(cur int, _ bool) int { return cur + 1 })
		}()
	}
	wg.Wait()

	if v, _ := c.Value(); v != 50 {
		t.Errorf("Value() = %d, want 50", v)
	}
}

func TestSubscriberMayReadCell(t *testing.T) {
	c := New(1)

	var seen int
	cancel := c.Subscribe(func(int) {
		seen, _ = c.Value()
	})
	defer cancel()

	c.Publish(7)
	if seen != 7 {
		t.Errorf("Value() inside subscriber = %d, want 7", seen)
	}
}
