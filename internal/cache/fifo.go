package cache

import "container/list"

type queuedEntry[V any] struct {
	key   []byte
	value V
}

// fifoCache evicts keys in arrival order. Overwrites keep their place in
// the queue; reads never reorder it.
type fifoCache[V any] struct {
	counters
	capacity int
	queue    *list.List
	index    map[string]*list.Element
}

func newFIFO[V any](capacity int) *fifoCache[V] {
	return &fifoCache[V]{
		capacity: capacity,
		queue:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

func (c *fifoCache[V]) Contains(key []byte) bool {
	_, ok := c.index[string(key)]
	return c.probe(ok)
}

func (c *fifoCache[V]) Get(key []byte) (V, bool) {
	el, ok := c.index[string(key)]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*queuedEntry[V]).value, true
}

func (c *fifoCache[V]) Put(key []byte, value V) (Evicted[V], bool) {
	var (
		evicted Evicted[V]
		ok      bool
	)
	if c.queue.Len() >= c.capacity && !c.Contains(key) {
		if c.capacity == 0 {
			return evicted, false
		}
		evicted, ok = c.evict()
	}

	// Second probe decides between enqueue and in-place overwrite.
	if !c.Contains(key) {
		e := &queuedEntry[V]{key: cloneKey(key), value: value}
		c.index[string(e.key)] = c.queue.PushBack(e)
		return evicted, ok
	}
	c.index[string(key)].Value.(*queuedEntry[V]).value = value
	return evicted, ok
}

func (c *fifoCache[V]) evict() (Evicted[V], bool) {
	el := c.queue.Front()
	if el == nil {
		return Evicted[V]{}, false
	}
	e := c.queue.Remove(el).(*queuedEntry[V])
	delete(c.index, string(e.key))
	return Evicted[V]{Key: e.key, Value: e.value}, true
}

func (c *fifoCache[V]) Remove(key []byte) {
	el, ok := c.index[string(key)]
	if !ok {
		return
	}
	c.queue.Remove(el)
	delete(c.index, string(key))
}

func (c *fifoCache[V]) Clear() {
	c.queue.Init()
	clear(c.index)
}

// Range walks from the oldest to the newest key.
func (c *fifoCache[V]) Range(fn func(key []byte, value V) bool) {
	for el := c.queue.Front(); el != nil; el = el.Next() {
		e := el.Value.(*queuedEntry[V])
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (c *fifoCache[V]) Len() int       { return c.queue.Len() }
func (c *fifoCache[V]) Capacity() int  { return c.capacity }
func (c *fifoCache[V]) Policy() Policy { return FIFO }
