package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_CheckAndMark(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewRedisStore(rdb, time.Hour)
	ctx := context.Background()

	isNew, err := s.CheckAndMark(ctx, "mid.1")
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = s.CheckAndMark(ctx, "mid.1")
	require.NoError(t, err)
	assert.False(t, isNew)

	assert.True(t, mr.Exists(REDIS_KEY_PREFIX+"mid.1"))
	assert.Equal(t, time.Hour, mr.TTL(REDIS_KEY_PREFIX+"mid.1"))

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mr.FastForward(time.Hour + time.Second)

	isNew, err = s.CheckAndMark(ctx, "mid.1")
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	rdb, err := ConnectRedis(context.Background(), addr, "", 0)
	require.NoError(t, err)
	_ = rdb.Close()

	mr.Close()
	_, err = ConnectRedis(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
