package onec

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transportFunc func(ctx context.Context, id string, req []byte) ([]byte, error)

func (f transportFunc) Exchange(ctx context.Context, id string, req []byte) ([]byte, error) {
	return f(ctx, id, req)
}

func TestRelay(t *testing.T) {
	var got Request
	var gotID string
	var hasDeadline bool

	b := New(transportFunc(func(ctx context.Context, id string, req []byte) ([]byte, error) {
		gotID = id
		_, hasDeadline = ctx.Deadline()
		require.NoError(t, json.Unmarshal(req, &got))
		return []byte(`{"text":"Ваш заказ готов","buttons":[[{"text":"Ок","payload":"ok"}]]}`), nil
	}), time.Second)
	b.now = func() time.Time { return time.Unix(1700000000, 0) }

	resp := b.Relay(context.Background(), 42, "статус заказа", "order:1")

	assert.Equal(t, Request{UserID: 42, Text: "статус заказа", Payload: "order:1", Timestamp: 1700000000}, got)
	assert.Len(t, gotID, 36)
	assert.True(t, hasDeadline)

	assert.Equal(t, "Ваш заказ готов", resp.Text)
	assert.Empty(t, resp.Error)
	require.Len(t, resp.Buttons, 1)
	assert.Equal(t, Button{Text: "Ок", Payload: "ok"}, resp.Buttons[0][0])
}

func TestRelay_NullPayload(t *testing.T) {
	var raw map[string]any
	b := New(transportFunc(func(_ context.Context, _ string, req []byte) ([]byte, error) {
		require.NoError(t, json.Unmarshal(req, &raw))
		return []byte(`{"text":"ok"}`), nil
	}), time.Second)

	b.Relay(context.Background(), 1, "hi", nil)

	v, ok := raw["payload"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestRelay_Errors(t *testing.T) {
	tests := []struct {
		name string
		resp []byte
		err  error
		want string
	}{
		{"timeout", nil, timeout(context.DeadlineExceeded), ErrTimeout.Error()},
		{"unavailable", nil, unavailable(errors.New("connection refused")), ErrUnavailable.Error()},
		{"unknown error", nil, errors.New("boom"), ErrUnavailable.Error()},
		{"bad json", []byte(`<html>`), nil, ErrUnavailable.Error()},
		{"backend error", []byte(`{"error":"нет такого пользователя"}`), nil, "нет такого пользователя"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(transportFunc(func(context.Context, string, []byte) ([]byte, error) {
				return tt.resp, tt.err
			}), time.Second)

			resp := b.Relay(context.Background(), 1, "x", nil)
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestStart(t *testing.T) {
	b := New(transportFunc(func(context.Context, string, []byte) ([]byte, error) { return nil, nil }), time.Second)
	assert.NoError(t, b.Start(context.Background()))
}
