package cache

// nilID marks the absence of a neighbour in a frequency bucket.
const nilID = -1

// lfuEntry lives in the arena and is addressed by its index. prev/next link
// it into the bucket of its current frequency.
type lfuEntry[V any] struct {
	key   []byte
	value V
	freq  uint64
	prev  int
	next  int
}

// lfuBucket is a doubly linked list of arena ids sharing one frequency.
// head is the most recently touched entry, tail the least.
type lfuBucket struct {
	head int
	tail int
	size int
}

// lfuCache evicts the least frequently used entry, breaking ties by
// recency within a frequency. Both indexes refer to entries by arena id.
type lfuCache[V any] struct {
	counters
	capacity int
	arena    []lfuEntry[V]
	free     []int
	index    map[string]int
	buckets  map[uint64]*lfuBucket
	minFreq  uint64
}

func newLFU[V any](capacity int) *lfuCache[V] {
	return &lfuCache[V]{
		capacity: capacity,
		arena:    make([]lfuEntry[V], 0, capacity),
		index:    make(map[string]int, capacity),
		buckets:  make(map[uint64]*lfuBucket),
	}
}

func (c *lfuCache[V]) Contains(key []byte) bool {
	_, ok := c.index[string(key)]
	return c.probe(ok)
}

func (c *lfuCache[V]) Get(key []byte) (V, bool) {
	var zero V
	if c.capacity == 0 {
		return zero, false
	}
	id, ok := c.index[string(key)]
	if !ok {
		return zero, false
	}
	c.touch(id)
	return c.arena[id].value, true
}

func (c *lfuCache[V]) Put(key []byte, value V) (Evicted[V], bool) {
	var (
		evicted Evicted[V]
		ok      bool
	)
	if c.capacity == 0 {
		return evicted, false
	}
	if id, found := c.index[string(key)]; found {
		c.arena[id].value = value
		c.touch(id)
		return evicted, false
	}

	if len(c.index) == c.capacity {
		evicted, ok = c.evict()
	}

	id := c.alloc(lfuEntry[V]{key: cloneKey(key), value: value, freq: 1})
	c.index[string(c.arena[id].key)] = id
	c.pushFront(1, id)
	c.minFreq = 1
	return evicted, ok
}

// touch moves id from its bucket to the head of the next frequency.
func (c *lfuCache[V]) touch(id int) {
	freq := c.arena[id].freq
	if c.unlink(freq, id) && c.minFreq == freq {
		c.minFreq++
	}
	c.arena[id].freq = freq + 1
	c.pushFront(freq+1, id)
}

func (c *lfuCache[V]) evict() (Evicted[V], bool) {
	b := c.buckets[c.minFreq]
	if b == nil {
		return Evicted[V]{}, false
	}
	id := b.tail
	c.unlink(c.minFreq, id)

	e := c.arena[id]
	delete(c.index, string(e.key))
	c.release(id)
	return Evicted[V]{Key: e.key, Value: e.value}, true
}

func (c *lfuCache[V]) Remove(key []byte) {
	if c.capacity == 0 {
		return
	}
	id, ok := c.index[string(key)]
	if !ok {
		return
	}
	freq := c.arena[id].freq
	delete(c.index, string(key))
	if c.unlink(freq, id) && c.minFreq == freq {
		c.minFreq = c.lowestFreq()
	}
	c.release(id)
}

func (c *lfuCache[V]) Clear() {
	c.arena = c.arena[:0]
	c.free = c.free[:0]
	clear(c.index)
	clear(c.buckets)
	c.minFreq = 0
}

// Range visits entries in no particular order.
func (c *lfuCache[V]) Range(fn func(key []byte, value V) bool) {
	for _, id := range c.index {
		if !fn(c.arena[id].key, c.arena[id].value) {
			return
		}
	}
}

func (c *lfuCache[V]) Len() int       { return len(c.index) }
func (c *lfuCache[V]) Capacity() int  { return c.capacity }
func (c *lfuCache[V]) Policy() Policy { return LFU }

func (c *lfuCache[V]) alloc(e lfuEntry[V]) int {
	e.prev, e.next = nilID, nilID
	if n := len(c.free); n > 0 {
		id := c.free[n-1]
		c.free = c.free[:n-1]
		c.arena[id] = e
		return id
	}
	c.arena = append(c.arena, e)
	return len(c.arena) - 1
}

func (c *lfuCache[V]) release(id int) {
	c.arena[id] = lfuEntry[V]{prev: nilID, next: nilID}
	c.free = append(c.free, id)
}

func (c *lfuCache[V]) pushFront(freq uint64, id int) {
	b := c.buckets[freq]
	if b == nil {
		b = &lfuBucket{head: nilID, tail: nilID}
		c.buckets[freq] = b
	}
	e := &c.arena[id]
	e.prev = nilID
	e.next = b.head
	if b.head != nilID {
		c.arena[b.head].prev = id
	} else {
		b.tail = id
	}
	b.head = id
	b.size++
}

// unlink detaches id from the bucket of freq and reports whether that
// bucket became empty (and was dropped).
func (c *lfuCache[V]) unlink(freq uint64, id int) bool {
	b := c.buckets[freq]
	e := &c.arena[id]
	if e.prev != nilID {
		c.arena[e.prev].next = e.next
	} else {
		b.head = e.next
	}
	if e.next != nilID {
		c.arena[e.next].prev = e.prev
	} else {
		b.tail = e.prev
	}
	e.prev, e.next = nilID, nilID
	b.size--
	if b.size == 0 {
		delete(c.buckets, freq)
		return true
	}
	return false
}

func (c *lfuCache[V]) lowestFreq() uint64 {
	var lowest uint64
	for f := range c.buckets {
		if lowest == 0 || f < lowest {
			lowest = f
		}
	}
	return lowest
}
