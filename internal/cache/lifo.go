package cache

type lifoEntry[V any] struct {
	key   []byte
	value V
	seq   uint64
}

type stackItem struct {
	key string
	seq uint64
}

// lifoCache evicts the most recently inserted key. Each push is stamped
// with a sequence number; Remove leaves its stack item behind and pop skips
// items whose stamp no longer matches a resident entry.
type lifoCache[V any] struct {
	counters
	capacity int
	entries  map[string]*lifoEntry[V]
	stack    []stackItem
	seq      uint64
}

func newLIFO[V any](capacity int) *lifoCache[V] {
	return &lifoCache[V]{
		capacity: capacity,
		entries:  make(map[string]*lifoEntry[V], capacity),
		stack:    make([]stackItem, 0, capacity),
	}
}

func (c *lifoCache[V]) Contains(key []byte) bool {
	_, ok := c.entries[string(key)]
	return c.probe(ok)
}

func (c *lifoCache[V]) Get(key []byte) (V, bool) {
	e, ok := c.entries[string(key)]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *lifoCache[V]) Put(key []byte, value V) (Evicted[V], bool) {
	var (
		evicted Evicted[V]
		ok      bool
	)
	if len(c.entries) >= c.capacity && !c.Contains(key) {
		if c.capacity == 0 {
			return evicted, false
		}
		evicted, ok = c.pop()
	}

	if e, found := c.entries[string(key)]; found {
		e.value = value
		return evicted, ok
	}

	c.seq++
	e := &lifoEntry[V]{key: cloneKey(key), value: value, seq: c.seq}
	c.entries[string(e.key)] = e
	c.stack = append(c.stack, stackItem{key: string(e.key), seq: e.seq})
	return evicted, ok
}

func (c *lifoCache[V]) pop() (Evicted[V], bool) {
	for n := len(c.stack); n > 0; n = len(c.stack) {
		top := c.stack[n-1]
		c.stack = c.stack[:n-1]
		e, ok := c.entries[top.key]
		if !ok || e.seq != top.seq {
			continue
		}
		delete(c.entries, top.key)
		return Evicted[V]{Key: e.key, Value: e.value}, true
	}
	return Evicted[V]{}, false
}

func (c *lifoCache[V]) Remove(key []byte) {
	if _, ok := c.entries[string(key)]; !ok {
		return
	}
	delete(c.entries, string(key))
	if len(c.stack) > 2*len(c.entries)+16 {
		c.compact()
	}
}

// compact drops stale stack items left behind by Remove.
func (c *lifoCache[V]) compact() {
	live := c.stack[:0]
	for _, it := range c.stack {
		if e, ok := c.entries[it.key]; ok && e.seq == it.seq {
			live = append(live, it)
		}
	}
	clear(c.stack[len(live):])
	c.stack = live
}

func (c *lifoCache[V]) Clear() {
	clear(c.entries)
	clear(c.stack)
	c.stack = c.stack[:0]
}

// Range walks from the newest to the oldest key.
func (c *lifoCache[V]) Range(fn func(key []byte, value V) bool) {
	for i := len(c.stack) - 1; i >= 0; i-- {
		it := c.stack[i]
		e, ok := c.entries[it.key]
		if !ok || e.seq != it.seq {
			continue
		}
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (c *lifoCache[V]) Len() int       { return len(c.entries) }
func (c *lifoCache[V]) Capacity() int  { return c.capacity }
func (c *lifoCache[V]) Policy() Policy { return LIFO }
