package cache

import "container/list"

type lruEntry[V any] struct {
	key   []byte
	value V
}

// lruCache keeps resident entries in a recency list, most recent at the
// front. Membership probes count as accesses.
type lruCache[V any] struct {
	counters
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

func newLRU[V any](capacity int) *lruCache[V] {
	return &lruCache[V]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

func (c *lruCache[V]) Contains(key []byte) bool {
	el, ok := c.index[string(key)]
	if ok {
		c.order.MoveToFront(el)
	}
	return c.probe(ok)
}

func (c *lruCache[V]) Get(key []byte) (V, bool) {
	el, ok := c.index[string(key)]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry[V]).value, true
}

func (c *lruCache[V]) Put(key []byte, value V) (Evicted[V], bool) {
	var (
		evicted Evicted[V]
		ok      bool
	)
	// The probe only happens once the cache is full.
	if c.order.Len() >= c.capacity && !c.Contains(key) {
		if c.capacity == 0 {
			return evicted, false
		}
		evicted, ok = c.evict()
	}

	if el, found := c.index[string(key)]; found {
		el.Value.(*lruEntry[V]).value = value
		c.order.MoveToFront(el)
		return evicted, ok
	}

	e := &lruEntry[V]{key: cloneKey(key), value: value}
	c.index[string(e.key)] = c.order.PushFront(e)
	return evicted, ok
}

func (c *lruCache[V]) evict() (Evicted[V], bool) {
	el := c.order.Back()
	if el == nil {
		return Evicted[V]{}, false
	}
	e := c.order.Remove(el).(*lruEntry[V])
	delete(c.index, string(e.key))
	return Evicted[V]{Key: e.key, Value: e.value}, true
}

func (c *lruCache[V]) Remove(key []byte) {
	el, ok := c.index[string(key)]
	if !ok {
		return
	}
	c.order.Remove(el)
	delete(c.index, string(key))
}

func (c *lruCache[V]) Clear() {
	c.order.Init()
	clear(c.index)
}

// Range walks from most to least recently used.
func (c *lruCache[V]) Range(fn func(key []byte, value V) bool) {
	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*lruEntry[V])
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (c *lruCache[V]) Len() int       { return c.order.Len() }
func (c *lruCache[V]) Capacity() int  { return c.capacity }
func (c *lruCache[V]) Policy() Policy { return LRU }
