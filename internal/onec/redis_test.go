package onec

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisTransport_Exchange(t *testing.T) {
	_, rdb := newTestRedis(t)
	tr := NewRedisTransport(rdb, "onec:requests", "onec:responses:")

	go func() {
		res, err := rdb.BRPop(context.Background(), 3*time.Second, "onec:requests").Result()
		if err != nil {
			return
		}
		var q queuedRequest
		if json.Unmarshal([]byte(res[1]), &q) != nil {
			return
		}
		var req Request
		_ = json.Unmarshal(q.Body, &req)
		resp, _ := json.Marshal(Response{Text: "queued: " + req.Text})
		rdb.LPush(context.Background(), "onec:responses:"+q.ID, resp)
	}()

	resp := New(tr, 3*time.Second).Relay(context.Background(), 9, "очередь", nil)
	assert.Equal(t, "queued: очередь", resp.Text)
	assert.Empty(t, resp.Error)
}

func TestRedisTransport_Timeout(t *testing.T) {
	mr, rdb := newTestRedis(t)
	tr := NewRedisTransport(rdb, "onec:requests", "onec:responses:")

	resp := New(tr, time.Second).Relay(context.Background(), 9, "тишина", nil)
	assert.Equal(t, ErrTimeout.Error(), resp.Error)

	// неотвеченный запрос не остается в очереди
	if mr.Exists("onec:requests") {
		list, err := mr.List("onec:requests")
		require.NoError(t, err)
		assert.Empty(t, list)
	}
}

func TestRedisTransport_Unavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Close()

	_, err := NewRedisTransport(rdb, "q", "r:").Exchange(context.Background(), "x", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnavailable)
}
