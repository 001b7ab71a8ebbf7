package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetDel(t *testing.T) {
	c, err := New[string](100, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Set("a", "alpha"))
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "alpha", got)

	c.Del("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c, err := New[int](100, 50*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Set("k", 42))
	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, 3*time.Second, 20*time.Millisecond)
}
