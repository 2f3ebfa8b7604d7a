package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriys/statecache/internal/circuitbreaker"
)

func TestOpen_DefaultsToMemory(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &MemoryStore{}, s)
}

func TestOpen_File(t *testing.T) {
	s, err := Open(context.Background(), Config{
		Backend: "FILE",
		File:    FileConfig{Dir: t.TempDir()},
	})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &FileStore{}, s)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "rocksdb"})
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestOpen_GuardsWithBreaker(t *testing.T) {
	s, err := Open(context.Background(), Config{
		Backend: BackendFile,
		File:    FileConfig{Dir: t.TempDir()},
		Breaker: circuitbreaker.Config{FailurePct: 50},
	})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &guarded{}, s)
}
