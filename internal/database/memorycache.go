package database

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"max-webhook-bot/internal/logger"

	"github.com/allegro/bigcache/v3"
)

type MemoryStore struct {
	mu    sync.Mutex
	cache *bigcache.BigCache
	ttl   time.Duration

	now func() time.Time
}

// NewMemoryStore кэш в памяти процесса, после перезапуска пустой.
// Просроченные записи удаляет фоновая очистка bigcache.
func NewMemoryStore(ttl time.Duration) (*MemoryStore, error) {
	if ttl <= 0 {
		ttl = IDEMPOTENCY_TTL
	}

	cnf := bigcache.DefaultConfig(ttl)
	cnf.CleanWindow = cleanWindow(ttl)
	cnf.MaxEntrySize = 64
	cnf.Verbose = false

	cache, err := bigcache.NewBigCache(cnf)
	if err != nil {
		return nil, err
	}

	return &MemoryStore{
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

func cleanWindow(ttl time.Duration) time.Duration {
	w := ttl / 10
	if w < time.Second {
		return time.Second
	}
	if w > time.Minute {
		return time.Minute
	}
	return w
}

func (s *MemoryStore) CheckAndMark(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	b, err := s.cache.Get(id)
	switch {
	case err == nil:
		// очистка идет по расписанию, поэтому срок проверяем сами
		if len(b) == 8 && now.Sub(decodeTime(b)) <= s.ttl {
			return false, nil
		}
	case !errors.Is(err, bigcache.ErrEntryNotFound):
		logger.Warning("Error while read idempotency cache", err)
		return false, err
	}

	return true, s.cache.Set(id, encodeTime(now))
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	return s.cache.Len(), nil
}

func (s *MemoryStore) Close() error {
	return s.cache.Close()
}

func encodeTime(t time.Time) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(t.UnixNano()))
	return b
}

func decodeTime(b []byte) time.Time {
	return time.Unix(0, int64(binary.BigEndian.Uint64(b)))
}
