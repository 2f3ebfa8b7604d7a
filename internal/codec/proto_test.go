package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestProto_StringValue(t *testing.T) {
	c := NewProto(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })

	data, err := c.Marshal(wrapperspb.String("window-42"))
	require.NoError(t, err)

	got, err := c.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "window-42", got.GetValue())
}

func TestProto_StructPayload(t *testing.T) {
	c := NewProto(func() *structpb.Struct { return &structpb.Struct{} })

	sent, err := structpb.NewStruct(map[string]any{
		"count": 3.0,
		"last":  "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	data, err := c.Marshal(sent)
	require.NoError(t, err)

	got, err := c.Unmarshal(data)
	require.NoError(t, err)
	assert.True(t, proto.Equal(sent, got))
}

func TestProto_UnmarshalGarbage(t *testing.T) {
	c := NewProto(func() *wrapperspb.Int64Value { return &wrapperspb.Int64Value{} })

	_, err := c.Unmarshal([]byte{0xff, 0xff, 0xff})
	assert.ErrorContains(t, err, "protobuf unmarshal")
}

func TestProto_FreshMessagePerDecode(t *testing.T) {
	c := NewProto(func() *wrapperspb.Int64Value { return &wrapperspb.Int64Value{} })

	a, err := c.Marshal(wrapperspb.Int64(1))
	require.NoError(t, err)
	b, err := c.Marshal(wrapperspb.Int64(2))
	require.NoError(t, err)

	first, err := c.Unmarshal(a)
	require.NoError(t, err)
	second, err := c.Unmarshal(b)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.GetValue())
	assert.Equal(t, int64(2), second.GetValue())
}
