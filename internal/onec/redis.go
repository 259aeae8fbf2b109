package onec

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"max-webhook-bot/internal/logger"

	"github.com/redis/go-redis/v9"
)

type (
	queuedRequest struct {
		ID   string          `json:"id"`
		Body json.RawMessage `json:"body"`
	}

	// RedisTransport запрос кладется в общую очередь, ответ ждем в списке <replyPrefix><id>
	RedisTransport struct {
		rdb *redis.Client

		queue       string
		replyPrefix string
	}
)

func NewRedisTransport(rdb *redis.Client, queue, replyPrefix string) *RedisTransport {
	return &RedisTransport{
		rdb:         rdb,
		queue:       queue,
		replyPrefix: replyPrefix,
	}
}

func (t *RedisTransport) Exchange(ctx context.Context, id string, body []byte) ([]byte, error) {
	msg, err := json.Marshal(queuedRequest{ID: id, Body: body})
	if err != nil {
		return nil, unavailable(err)
	}

	if err := t.rdb.LPush(ctx, t.queue, msg).Err(); err != nil {
		return nil, unavailable(err)
	}

	wait := time.Second
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) > wait {
		wait = time.Until(dl)
	}

	res, err := t.rdb.BRPop(ctx, wait, t.replyPrefix+id).Result()
	switch {
	case err == nil:
		return []byte(res[1]), nil
	case errors.Is(err, redis.Nil), ctx.Err() != nil:
		t.dropRequest(msg)
		return nil, timeout(err)
	default:
		return nil, unavailable(err)
	}
}

// dropRequest убираем из очереди запрос, ответ на который уже никто не ждет
func (t *RedisTransport) dropRequest(msg []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := t.rdb.LRem(ctx, t.queue, 1, msg).Err(); err != nil {
		logger.Warning("Error while removing orphaned 1C request", err)
	}
}
