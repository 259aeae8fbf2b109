package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"max-webhook-bot/internal/max/requests"
	"max-webhook-bot/internal/max/response"
	"max-webhook-bot/internal/max/update"
)

// Подписать бота на события вебхука
func (c *Client) Subscribe(ctx context.Context, hookUrl, secret string, updateTypes []update.UpdateType) error {
	data := requests.SubscriptionRequest{
		Url:    hookUrl,
		Secret: secret,
	}
	for _, t := range updateTypes {
		data.UpdateTypes = append(data.UpdateTypes, string(t))
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	r, err := c.Invoke(ctx, http.MethodPost, "/subscriptions", nil, jsonData)
	if err != nil {
		return err
	}

	return checkResult(r)
}

// Список текущих подписок
func (c *Client) Subscriptions(ctx context.Context) (content response.Subscriptions, err error) {
	r, err := c.Invoke(ctx, http.MethodGet, "/subscriptions", nil, nil)
	if err != nil {
		return
	}

	err = json.Unmarshal(r, &content)
	return
}

func (c *Client) Unsubscribe(ctx context.Context, hookUrl string) error {
	v := url.Values{}
	v.Add("url", hookUrl)

	r, err := c.Invoke(ctx, http.MethodDelete, "/subscriptions", v, nil)
	if err != nil {
		return err
	}

	return checkResult(r)
}
