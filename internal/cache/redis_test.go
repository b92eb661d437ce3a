package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSON_SetGet(t *testing.T) {
	_, client := setupRedis(t)
	c := NewJSON(client, "catalog", time.Minute)
	ctx := context.Background()

	var got entry
	hit, err := c.Get(ctx, "categories", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "categories", entry{Name: "Finanse", Count: 3}))

	hit, err = c.Get(ctx, "categories", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, entry{Name: "Finanse", Count: 3}, got)
}

func TestJSON_Expires(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewJSON(client, "catalog", time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Name: "x"}))
	mr.FastForward(2 * time.Minute)

	var got entry
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestJSON_Flush(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewJSON(client, "catalog", time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", entry{}))
	require.NoError(t, c.Set(ctx, "b", entry{}))
	require.NoError(t, mr.Set("other:key", "kept"))

	n, err := c.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("other:key"))
	assert.False(t, mr.Exists("catalog:a"))
}

func TestJSON_GetCorrupt(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewJSON(client, "catalog", time.Minute)
	require.NoError(t, mr.Set("catalog:bad", "{not json"))

	var got entry
	_, err := c.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
}

func TestNewRedis(t *testing.T) {
	mr, _ := setupRedis(t)

	client, err := NewRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = NewRedis(context.Background(), "not a url")
	assert.Error(t, err)
}
