package database

import (
	"context"
	"time"
)

// IDEMPOTENCY_TTL время, в течение которого повторное событие считается дублем
const IDEMPOTENCY_TTL = time.Hour

type (
	// Store кэш идемпотентности: id события -> время получения
	Store interface {
		// CheckAndMark возвращает true, если id встречается впервые за TTL, и запоминает его.
		// Для дубля возвращает false и не обновляет время.
		CheckAndMark(ctx context.Context, id string) (bool, error)
		Len(ctx context.Context) (int, error)
		Close() error
	}
)
