package cache

// Stats is a snapshot of a Manager's probe counters.
type Stats struct {
	Hits  uint64
	Total uint64
}

// HitRate returns Hits/Total, or 0 when Total is 0.
func (s Stats) HitRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Total)
}

// Misses returns Total-Hits.
func (s Stats) Misses() uint64 { return s.Total - s.Hits }

// counters is embedded by every policy. probe is the single place the
// counters move.
type counters struct {
	hits  uint64
	total uint64
}

func (c *counters) probe(hit bool) bool {
	c.total++
	if hit {
		c.hits++
	}
	return hit
}

func (c *counters) Stats() Stats { return Stats{Hits: c.hits, Total: c.total} }

func (c *counters) HitRate() float64 { return c.Stats().HitRate() }
