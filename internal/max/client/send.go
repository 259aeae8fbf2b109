package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"max-webhook-bot/internal/max/response"
)

const (
	SEND_TIMEOUT   = 15 * time.Second
	DELETE_TIMEOUT = 10 * time.Second
)

// Отправить сообщение пользователю. payload - готовое тело сообщения (шаблон или NewMessageBody).
func (c *Client) Send(ctx context.Context, userID int64, payload any) (content response.SendResult, err error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, SEND_TIMEOUT)
	defer cancel()

	v := url.Values{}
	v.Add("user_id", strconv.FormatInt(userID, 10))

	r, err := c.Invoke(ctx, http.MethodPost, "/messages", v, jsonData)
	if err != nil {
		return
	}

	err = json.Unmarshal(r, &content)
	return
}

// Удалить сообщение. nil только если платформа подтвердила удаление.
func (c *Client) Delete(ctx context.Context, messageID string) error {
	ctx, cancel := context.WithTimeout(ctx, DELETE_TIMEOUT)
	defer cancel()

	v := url.Values{}
	v.Add("message_id", messageID)

	r, err := c.Invoke(ctx, http.MethodDelete, "/messages", v, nil)
	if err != nil {
		return err
	}

	return checkResult(r)
}

func checkResult(r []byte) error {
	var result response.SimpleResult
	if err := json.Unmarshal(r, &result); err != nil {
		return err
	}
	if !result.Success {
		if result.Message == "" {
			return errors.New("platform reported failure")
		}
		return errors.New(result.Message)
	}
	return nil
}
