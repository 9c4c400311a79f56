package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSet(t *testing.T) {
	c, err := NewCache(filepath.Join(t.TempDir(), "catalogs.json"), time.Hour)
	require.NoError(t, err)

	_, ok := c.Get("us-east-1")
	assert.False(t, ok)

	c.Set(sampleCatalog())
	cat, ok := c.Get("us-east-1")
	require.True(t, ok)
	assert.Equal(t, sampleCatalog().Len(), cat.Len())
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		ttl   time.Duration
		age   time.Duration
		found bool
	}{
		{name: "fresh", ttl: time.Hour, age: 30 * time.Minute, found: true},
		{name: "expired", ttl: time.Hour, age: 2 * time.Hour, found: false},
		{name: "no expiry", ttl: 0, age: 1000 * time.Hour, found: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCache(filepath.Join(t.TempDir(), "catalogs.json"), tt.ttl)
			require.NoError(t, err)

			c.now = func() time.Time { return now }
			c.Set(sampleCatalog())

			c.now = func() time.Time { return now.Add(tt.age) }
			_, ok := c.Get("us-east-1")
			assert.Equal(t, tt.found, ok)
		})
	}
}

func TestCacheSaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "catalogs.json")

	c, err := NewCache(file, 0)
	require.NoError(t, err)
	c.Set(sampleCatalog())
	require.NoError(t, c.Save())

	_, err = os.Stat(file + ".tmp")
	assert.True(t, os.IsNotExist(err))

	reloaded, err := NewCache(file, 0)
	require.NoError(t, err)
	cat, ok := reloaded.Get("us-east-1")
	require.True(t, ok)
	require.Equal(t, sampleCatalog().Len(), cat.Len())

	price, err := cat.Lookup(":Multi-AZ-GP3-Throughput")
	require.NoError(t, err)
	assert.True(t, dec("0.16").Equal(price))
}

func TestCacheLoadCorrupt(t *testing.T) {
	file := filepath.Join(t.TempDir(), "catalogs.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0644))

	c, err := NewCache(file, 0)
	require.NoError(t, err)
	_, ok := c.Get("us-east-1")
	assert.False(t, ok)

	assert.Error(t, c.Load())
}

func TestCacheLoadNull(t *testing.T) {
	file := filepath.Join(t.TempDir(), "catalogs.json")
	require.NoError(t, os.WriteFile(file, []byte("null"), 0644))

	c, err := NewCache(file, 0)
	require.NoError(t, err)
	require.NoError(t, c.Load())

	assert.NotPanics(t, func() { c.Set(sampleCatalog()) })
	_, ok := c.Get("us-east-1")
	assert.True(t, ok)
}
