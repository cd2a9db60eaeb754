package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	c := New[string, int](time.Minute)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestGetEvictsExpiredEntries(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("a", 1)
	c.data["a"] = entry[int]{val: 1, exp: time.Now().Add(-time.Second)}

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Empty(t, c.data)
}
