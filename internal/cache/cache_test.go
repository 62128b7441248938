package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientIsAnEmptyCache(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.Nil(t, c.Redis())
	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Close())

	var dst map[string]string
	assert.False(t, c.GetJSON(ctx, "k", &dst))
}

func TestUnreachableRedisFailsSafe(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Set(ctx, "ticket:1", []byte("{}"), time.Minute))
	data, err := c.Get(ctx, "ticket:1")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, c.Delete(ctx, "ticket:1"))
	c.SetJSON(ctx, "user:1", map[string]string{"id": "1"}, time.Minute)
}

func TestSetIfAbsent(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c := New(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	assert.True(t, c.SetIfAbsent(ctx, "k", []byte("first"), time.Minute))
	assert.False(t, c.SetIfAbsent(ctx, "k", []byte("second"), time.Minute))
	data, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	assert.False(t, c.SetJSONIfAbsent(ctx, "k", map[string]string{"a": "b"}, time.Minute))

	var nilClient *Client
	assert.False(t, nilClient.SetIfAbsent(ctx, "k", []byte("v"), time.Minute))
}
