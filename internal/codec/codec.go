// Package codec converts state values between their in-memory
// representation and the bytes written to the persistent store. The cache
// keeps decoded values; encoding only happens when an evicted or flushed
// value goes to the store, and decoding when a miss is served from it.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrTooLarge is returned when an encoded value exceeds MaxValueBytes.
var ErrTooLarge = errors.New("codec: encoded value too large")

// MaxValueBytes bounds a single encoded state value.
const MaxValueBytes = 8 * 1024 * 1024

// Codec (de)serializes values of type V.
type Codec[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSON encodes values with encoding/json.
type JSON[V any] struct{}

func (JSON[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	if len(data) > MaxValueBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	return data, nil
}

func (JSON[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("json unmarshal: %w", err)
	}
	return v, nil
}

// Bytes passes raw byte values through unchanged, copying on both sides so
// the store and the cache never share backing arrays.
type Bytes struct{}

func (Bytes) Marshal(v []byte) ([]byte, error) {
	if len(v) > MaxValueBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(v))
	}
	return append([]byte(nil), v...), nil
}

func (Bytes) Unmarshal(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}
