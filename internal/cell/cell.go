// Package cell provides a single-slot broadcast cell.
//
// A Cell holds the latest value of some state and pushes every new value to
// its subscribers. A subscriber registered after a value was published
// receives that value immediately.
//
// Subscribers run synchronously on the publishing goroutine and must not
// publish to, or subscribe to, the cell that is calling them.
package cell

import "sync"

// Cell is a replay-latest publish/subscribe holder for one value.
type Cell[T any] struct {
	mu      sync.Mutex
	pub     sync.Mutex
	value   T
	set     bool
	nextID  int
	subs    map[int]func(T)
	ordered []int
}

// New creates a cell holding v.
func New[T any](v T) *Cell[T] {
	c := Empty[T]()
	c.value = v
	c.set = true
	return c
}

// Empty creates a cell with no value.
func Empty[T any]() *Cell[T] {
	return &Cell[T]{subs: make(map[int]func(T))}
}

// Value returns the latest value and whether one was ever published.
func (c *Cell[T]) Value() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.set
}

// Publish replaces the value and delivers it to every subscriber before
// returning.
func (c *Cell[T]) Publish(v T) {
	c.pub.Lock()
	defer c.pub.Unlock()

	c.mu.Lock()
	c.value = v
	c.set = true
	fns := c.snapshotSubs()
	c.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Update publishes fn applied to the current value. Concurrent Update and
// Publish calls are serialized, so fn always sees the latest value.
func (c *Cell[T]) Update(fn func(cur T, ok bool) T) T {
	c.pub.Lock()
	defer c.pub.Unlock()

	c.mu.Lock()
	next := fn(c.value, c.set)
	c.value = next
	c.set = true
	fns := c.snapshotSubs()
	c.mu.Unlock()

	for _, f := range fns {
		f(next)
	}
	return next
}

// Subscribe registers fn and replays the current value to it, if any.
// The returned function removes the subscription.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.pub.Lock()
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.ordered = append(c.ordered, id)
	v, ok := c.value, c.set
	c.mu.Unlock()

	if ok {
		fn(v)
	}
	c.pub.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			for i, sid := range c.ordered {
				if sid == id {
					c.ordered = append(c.ordered[:i:i], c.ordered[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (c *Cell[T]) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

func (c *Cell[T]) snapshotSubs() []func(T) {
	fns := make([]func(T), 0, len(c.ordered))
	for _, id := range c.ordered {
		fns = append(fns, c.subs[id])
	}
	return fns
}
