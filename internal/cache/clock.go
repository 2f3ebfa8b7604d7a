package cache

// clockSlot is one position on the clock face.
type clockSlot[V any] struct {
	occupied bool
	used     bool
	key      []byte
	value    V
}

// clockCache keeps capacity slots in a fixed ring addressed by index. The
// hand points at the next eviction candidate.
type clockCache[V any] struct {
	counters
	slots []clockSlot[V]
	index map[string]int
	hand  int
}

func newClock[V any](capacity int) *clockCache[V] {
	return &clockCache[V]{
		slots: make([]clockSlot[V], capacity),
		index: make(map[string]int, capacity),
	}
}

func (c *clockCache[V]) Contains(key []byte) bool {
	_, ok := c.index[string(key)]
	return c.probe(ok)
}

func (c *clockCache[V]) Get(key []byte) (V, bool) {
	i, ok := c.index[string(key)]
	if !ok {
		var zero V
		return zero, false
	}
	c.slots[i].used = true
	return c.slots[i].value, true
}

func (c *clockCache[V]) Put(key []byte, value V) (Evicted[V], bool) {
	// Every put probes first, the same way a caller would.
	if c.Contains(key) {
		i := c.index[string(key)]
		c.slots[i].value = value
		c.slots[i].used = true
		return Evicted[V]{}, false
	}
	if len(c.slots) == 0 {
		return Evicted[V]{}, false
	}

	i := c.advance()
	slot := &c.slots[i]

	var (
		evicted Evicted[V]
		ok      bool
	)
	if slot.occupied {
		delete(c.index, string(slot.key))
		evicted, ok = Evicted[V]{Key: slot.key, Value: slot.value}, true
	}

	slot.occupied = true
	slot.used = true
	slot.key = cloneKey(key)
	slot.value = value
	c.index[string(slot.key)] = i
	return evicted, ok
}

// advance sweeps the hand past slots whose use bit is set, clearing them on
// the way, and returns the first slot with a clear bit. A full lap clears
// every bit, so the sweep ends within two laps. While the ring has free
// slots (after Remove) the hand only stops on a free one, so nothing is
// evicted below capacity.
func (c *clockCache[V]) advance() int {
	full := len(c.index) == len(c.slots)
	for {
		s := &c.slots[c.hand]
		if !s.occupied || (full && !s.used) {
			return c.hand
		}
		s.used = false
		c.hand = (c.hand + 1) % len(c.slots)
	}
}

func (c *clockCache[V]) Remove(key []byte) {
	i, ok := c.index[string(key)]
	if !ok {
		return
	}
	delete(c.index, string(key))
	c.slots[i] = clockSlot[V]{}
}

func (c *clockCache[V]) Clear() {
	clear(c.index)
	for i := range c.slots {
		c.slots[i] = clockSlot[V]{}
	}
	c.hand = 0
}

func (c *clockCache[V]) Range(fn func(key []byte, value V) bool) {
	for i := range c.slots {
		s := &c.slots[i]
		if !s.occupied {
			continue
		}
		if !fn(s.key, s.value) {
			return
		}
	}
}

func (c *clockCache[V]) Len() int       { return len(c.index) }
func (c *clockCache[V]) Capacity() int  { return len(c.slots) }
func (c *clockCache[V]) Policy() Policy { return Clock }
