package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriys/statecache/internal/cache"
	"github.com/oriys/statecache/internal/kv"
	"github.com/oriys/statecache/internal/metrics"
	"github.com/oriys/statecache/internal/workload"
)

type readOnlyStore struct{ *kv.MemoryStore }

func (readOnlyStore) Put(context.Context, []byte, []byte) error {
	return errors.New("read-only")
}

func TestRunTrace(t *testing.T) {
	ops, err := workload.Parse(strings.NewReader("put a 1\nput b 2\nput c 3\nget a\nget c\n"))
	require.NoError(t, err)

	mem := kv.NewMemoryStore()
	r := runTrace(context.Background(), mem, metrics.New(), runSpec{
		RunID: "r1", State: "t", Store: "memory", Policy: cache.FIFO, Capacity: 2, Flush: true,
	}, ops)

	require.True(t, r.Success, r.Error)
	assert.Equal(t, 5, r.Ops)
	assert.Equal(t, "fifo", r.Policy)
	// put c evicts a; get a reloads it and evicts b; get c hits
	assert.EqualValues(t, 2, r.Evictions)
	assert.EqualValues(t, 1, r.StoreReads)
	assert.Equal(t, 2, r.Flushed)
	assert.Equal(t, 4, mem.Puts())
}

func TestRunTrace_FlushFailure(t *testing.T) {
	ops := []workload.Op{
		{Kind: workload.Put, Key: "a", Value: "1"},
		{Kind: workload.Put, Key: "b", Value: "2"},
	}
	r := runTrace(context.Background(), readOnlyStore{kv.NewMemoryStore()}, metrics.New(), runSpec{
		RunID: "r2", State: "t", Policy: cache.LRU, Capacity: 1,
	}, ops)

	assert.False(t, r.Success)
	assert.Contains(t, r.Error, "read-only")
	assert.Equal(t, 1, r.Ops)
}

func TestReadTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	require.NoError(t, os.WriteFile(path, []byte("# x\nget a\n"), 0o644))

	ops, err := readTrace(path)
	require.NoError(t, err)
	assert.Equal(t, []workload.Op{{Kind: workload.Get, Key: "a"}}, ops)

	_, err = readTrace(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
