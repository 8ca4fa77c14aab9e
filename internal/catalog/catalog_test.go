package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndLookup_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	entry := Entry{
		ScriptHash: "abc123",
		Provider:   "cloud",
		Voice:      "aria",
		AudioDir:   "/renders/v1/audio",
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, c.Put(entry))

	found, ok, err := c.Lookup("abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Provider, found.Provider)
	assert.Equal(t, entry.AudioDir, found.AudioDir)
}

func TestLookup_MissingHashReturnsNotOK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Lookup("does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPut_UpsertsExistingHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put(Entry{ScriptHash: "h1", Provider: "cloud", Voice: "a", AudioDir: "/v1", CreatedAt: time.Now()}))
	require.NoError(t, c.Put(Entry{ScriptHash: "h1", Provider: "local", Voice: "b", AudioDir: "/v2", CreatedAt: time.Now()}))

	found, ok, err := c.Lookup("h1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "local", found.Provider)
	assert.Equal(t, "/v2", found.AudioDir)
}
