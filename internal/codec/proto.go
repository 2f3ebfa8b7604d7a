package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Proto encodes protobuf messages of type M. New must return a fresh,
// empty message for Unmarshal to decode into.
type Proto[M proto.Message] struct {
	New func() M
}

// NewProto creates a protobuf codec using newFn to allocate messages.
func NewProto[M proto.Message](newFn func() M) Proto[M] {
	return Proto[M]{New: newFn}
}

func (c Proto[M]) Marshal(msg M) ([]byte, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protobuf marshal: %w", err)
	}
	if len(data) > MaxValueBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	return data, nil
}

func (c Proto[M]) Unmarshal(data []byte) (M, error) {
	msg := c.New()
	if err := proto.Unmarshal(data, msg); err != nil {
		var zero M
		return zero, fmt.Errorf("protobuf unmarshal: %w", err)
	}
	return msg, nil
}
