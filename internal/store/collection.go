package store

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/morrisclay/cds-console/internal/cell"
)

// Collection is an ordered cache of one entity type, loaded as a whole and
// patched item by item after mutations.
type Collection[T any] struct {
	load  func(ctx context.Context) ([]T, error)
	key   func(T) string
	clone func(T) T

	items  *cell.Cell[[]T]
	flight singleflight.Group
}

// NewCollection creates an empty collection. load fetches every item, key
// identifies an item and clone, if not nil, deep-copies one.
func NewCollection[T any](load func(ctx context.Context) ([]T, error), key func(T) string, clone func(T) T) *Collection[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Collection[T]{
		load:  load,
		key:   key,
		clone: clone,
		items: cell.Empty[[]T](),
	}
}

// Loaded reports whether the collection was fetched at least once.
func (c *Collection[T]) Loaded() bool {
	_, ok := c.items.Value()
	return ok
}

// List returns the items, fetching them on first use.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	if items, ok := c.items.Value(); ok {
		return c.cloneAll(items), nil
	}
	return c.Refresh(ctx)
}

// Refresh refetches and replaces every item.
func (c *Collection[T]) Refresh(ctx context.Context) ([]T, error) {
	v, _, err := share(ctx, &c.flight, "list", func(ctx context.Context) (any, error) {
		items, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		c.items.Publish(c.cloneAll(items))
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return c.cloneAll(v.([]T)), nil
}

// Lookup returns a cached item by key.
func (c *Collection[T]) Lookup(key string) (T, bool) {
	items, _ := c.items.Value()
	for _, it := range items {
		if c.key(it) == key {
			return c.clone(it), true
		}
	}
	var zero T
	return zero, false
}

// Put inserts item, or replaces the item with the same key.
func (c *Collection[T]) Put(item T) {
	c.Replace(c.key(item), item)
}

// Replace replaces the item keyed oldKey by item, appending it when absent.
// An unloaded collection is left unloaded.
func (c *Collection[T]) Replace(oldKey string, item T) {
	if !c.Loaded() {
		return
	}
	item = c.clone(item)
	c.items.Update(func(cur []T, _ bool) []T {
		return upsert(append([]T(nil), cur...), item, func(x T) bool { return c.key(x) == oldKey })
	})
}

// Remove drops the item keyed key.
func (c *Collection[T]) Remove(key string) {
	if !c.Loaded() {
		return
	}
	c.items.Update(func(cur []T, _ bool) []T {
		return remove(append([]T(nil), cur...), func(x T) bool { return c.key(x) == key })
	})
}

// Subscribe calls fn with the items once loaded and on every change. fn
// must not modify the slice.
func (c *Collection[T]) Subscribe(fn func([]T)) (cancel func()) {
	return c.items.Subscribe(fn)
}

func (c *Collection[T]) cloneAll(items []T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = c.clone(it)
	}
	return out
}

// catalog pairs a collection with a cache of entities fetched one by one,
// which may carry more detail than the list.
type catalog[T any] struct {
	*Collection[T]
	details *keyed[T]
}

func newCatalog[T any](load func(ctx context.Context) ([]T, error), key func(T) string, clone func(T) T) *catalog[T] {
	c := NewCollection(load, key, clone)
	return &catalog[T]{Collection: c, details: newKeyed(c.clone)}
}

// get returns the cached detail of key or fetches it.
func (c *catalog[T]) get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.details.get(key); ok {
		return v, nil
	}
	return c.details.fetch(ctx, key, load)
}

// stored records item after a create or update of the entity keyed oldKey.
func (c *catalog[T]) stored(oldKey string, item T) {
	c.Replace(oldKey, item)
	c.details.move(oldKey, c.key(item), item)
}

// deleted forgets the entity keyed key.
func (c *catalog[T]) deleted(key string) {
	c.Remove(key)
	c.details.remove(key)
}

// keyed is a map cache of entities fetched one by one.
type keyed[T any] struct {
	clone  func(T) T
	items  *cell.Cell[map[string]T]
	flight singleflight.Group
}

func newKeyed[T any](clone func(T) T) *keyed[T] {
	return &keyed[T]{clone: clone, items: cell.New(map[string]T{})}
}

func (k *keyed[T]) get(key string) (T, bool) {
	items, _ := k.items.Value()
	v, ok := items[key]
	if !ok {
		return v, false
	}
	return k.clone(v), true
}

// fetch calls load once for concurrent callers of the same key and caches
// the result.
func (k *keyed[T]) fetch(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	v, _, err := share(ctx, &k.flight, key, func(ctx context.Context) (any, error) {
		item, err := load(ctx)
		if err != nil {
			return nil, err
		}
		k.put(key, item)
		return item, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return k.clone(v.(T)), nil
}

// move stores item under newKey and drops oldKey.
func (k *keyed[T]) move(oldKey, newKey string, item T) {
	item = k.clone(item)
	k.items.Update(func(cur map[string]T, _ bool) map[string]T {
		next := make(map[string]T, len(cur)+1)
		for key, v := range cur {
			if key != oldKey {
				next[key] = v
			}
		}
		next[newKey] = item
		return next
	})
}

func (k *keyed[T]) put(key string, item T) {
	k.move(key, key, item)
}

func (k *keyed[T]) remove(key string) {
	k.items.Update(func(cur map[string]T, _ bool) map[string]T {
		next := make(map[string]T, len(cur))
		for kk, v := range cur {
			if kk != key {
				next[kk] = v
			}
		}
		return next
	})
}

// upsert replaces the first item matching match with item, or appends it.
func upsert[T any](items []T, item T, match func(T) bool) []T {
	for i := range items {
		if match(items[i]) {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

// remove drops every item matching match.
func remove[T any](items []T, match func(T) bool) []T {
	out := items[:0]
	for _, it := range items {
		if !match(it) {
			out = append(out, it)
		}
	}
	return out
}

// share runs fn once for concurrent callers of key. fn is detached from the
// cancellation of the caller that started it, so one caller giving up does
// not fail the others; each caller stops waiting when its own ctx ends.
func share(ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) (any, error)) (v any, shared bool, err error) {
	detached := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case r := <-ch:
		return r.Val, r.Shared, r.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
