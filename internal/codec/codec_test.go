package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	Count int    `json:"count"`
	Last  string `json:"last"`
}

func TestJSON_Struct(t *testing.T) {
	var c Codec[counterState] = JSON[counterState]{}

	data, err := c.Marshal(counterState{Count: 3, Last: "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3,"last":"b"}`, string(data))

	got, err := c.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, counterState{Count: 3, Last: "b"}, got)
}

func TestJSON_UnmarshalError(t *testing.T) {
	_, err := JSON[int]{}.Unmarshal([]byte("not-json"))
	assert.ErrorContains(t, err, "json unmarshal")
}

func TestJSON_MarshalError(t *testing.T) {
	_, err := JSON[chan int]{}.Marshal(make(chan int))
	assert.ErrorContains(t, err, "json marshal")
}

func TestJSON_TooLarge(t *testing.T) {
	_, err := JSON[string]{}.Marshal(strings.Repeat("x", MaxValueBytes))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestBytes_Copies(t *testing.T) {
	var c Codec[[]byte] = Bytes{}

	in := []byte("abc")
	out, err := c.Marshal(in)
	require.NoError(t, err)
	in[0] = 'X'
	assert.Equal(t, "abc", string(out))

	back, err := c.Unmarshal(out)
	require.NoError(t, err)
	out[0] = 'Y'
	assert.Equal(t, "abc", string(back))
}
