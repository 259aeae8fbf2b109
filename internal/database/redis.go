package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const REDIS_KEY_PREFIX = "max-webhook:processed:"

type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisStore общий для нескольких процессов кэш. SET NX атомарен на стороне Redis.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = IDEMPOTENCY_TTL
	}
	return &RedisStore{
		rdb:    rdb,
		ttl:    ttl,
		prefix: REDIS_KEY_PREFIX,
	}
}

func (s *RedisStore) CheckAndMark(ctx context.Context, id string) (bool, error) {
	return s.rdb.SetNX(ctx, s.prefix+id, strconv.FormatInt(time.Now().Unix(), 10), s.ttl).Result()
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n, iter.Err()
}

// Close клиент Redis закрывает тот, кто его создал
func (s *RedisStore) Close() error {
	return nil
}
