package cache

import (
	"fmt"
	"strings"
)

// Policy names an eviction policy.
type Policy string

const (
	// Clock approximates LRU with a use bit per slot and a sweeping hand.
	Clock Policy = "clock"
	// LRU evicts the least recently used key.
	LRU Policy = "lru"
	// LFU evicts the least frequently used key, least recent first among ties.
	LFU Policy = "lfu"
	// FIFO evicts the oldest inserted key.
	FIFO Policy = "fifo"
	// LIFO evicts the newest inserted key.
	LIFO Policy = "lifo"
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = Clock

// Policies lists every supported policy in a stable order.
func Policies() []Policy {
	return []Policy{Clock, LRU, LFU, FIFO, LIFO}
}

// IsValid reports whether p names a supported policy.
func (p Policy) IsValid() bool {
	switch p {
	case Clock, LRU, LFU, FIFO, LIFO:
		return true
	}
	return false
}

func (p Policy) String() string { return string(p) }

// ParsePolicy converts a case-insensitive name into a Policy. An empty
// name selects DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultPolicy, nil
	}
	p := Policy(s)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q (valid: clock, lru, lfu, fifo, lifo)", ErrUnknownPolicy, s)
	}
	return p, nil
}

// UnmarshalText lets Policy be decoded from YAML and environment variables.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
