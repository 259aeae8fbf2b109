package onec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"max-webhook-bot/internal/logger"

	"github.com/google/uuid"
)

var (
	ErrUnavailable = errors.New("could not reach backend")
	ErrTimeout     = errors.New("timeout waiting for backend")
)

type (
	// Transport доставляет запрос в 1С и ждет ответ с тем же id.
	// Срок ожидания задает ctx.
	Transport interface {
		Exchange(ctx context.Context, id string, req []byte) ([]byte, error)
	}

	// транспорты, которым нужен фоновый процесс
	watcher interface {
		Watch(ctx context.Context) error
	}

	Bridge struct {
		transport Transport
		timeout   time.Duration

		now func() time.Time
	}
)

func New(transport Transport, timeout time.Duration) *Bridge {
	return &Bridge{
		transport: transport,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Start запускает фоновую часть транспорта, если она есть
func (b *Bridge) Start(ctx context.Context) error {
	if w, ok := b.transport.(watcher); ok {
		return w.Watch(ctx)
	}
	return nil
}

// Relay одна попытка обмена без повторов. Ошибки обмена возвращаются в поле Error.
func (b *Bridge) Relay(ctx context.Context, userID int64, text string, payload any) Response {
	now := b.now()
	req := Request{
		UserID:    userID,
		Text:      text,
		Payload:   payload,
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
	}

	body, err := json.Marshal(req)
	if err != nil {
		logger.Warning("Error while encode 1C request", err)
		return Response{Error: ErrUnavailable.Error()}
	}

	id := uuid.NewString()
	logger.Debug("---> 1C", id, body)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	raw, err := b.transport.Exchange(ctx, id, body)
	if err != nil {
		logger.Warning("1C exchange", id, "failed:", err)
		if errors.Is(err, ErrTimeout) {
			return Response{Error: ErrTimeout.Error()}
		}
		return Response{Error: ErrUnavailable.Error()}
	}
	logger.Debug("<--- 1C", id, raw)

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		logger.Warning("Error while decode 1C response", id, err)
		return Response{Error: ErrUnavailable.Error()}
	}

	return resp
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func timeout(err error) error {
	return fmt.Errorf("%w: %v", ErrTimeout, err)
}
