package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"max-webhook-bot/internal/logger"
)

type (
	// Client API платформы MAX от имени бота
	Client struct {
		serverAddr string
		token      string

		cl *http.Client
	}

	HttpError struct {
		Url     string
		Code    int
		Message string
	}
)

func New(serverAddr, token string) *Client {
	return &Client{
		serverAddr: strings.TrimRight(serverAddr, "/"),
		token:      token,

		cl: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				IdleConnTimeout:     30 * time.Second,
				DisableKeepAlives:   false,
				MaxIdleConnsPerHost: 5,
				DisableCompression:  true,
			},
		},
	}
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("Http request failed for %s with code %d and message:\n%s", e.Url, e.Code, e.Message)
}

func (c *Client) Invoke(ctx context.Context, method string, methodUrl string, urlParams url.Values, body []byte) (content []byte, err error) {
	reqUrl := c.serverAddr + "/" + strings.Trim(methodUrl, "/")
	if urlParams != nil {
		reqUrl += "?" + urlParams.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqUrl, reader)
	if err != nil {
		logger.Warning("Error while create request for", reqUrl, "with method", method, ":", err)
		return nil, err
	}

	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("---> request", req.Method, reqUrl)

	resp, err := c.cl.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	logger.Debug("<--- request", req.Method, reqUrl, "with body", bodyBytes)
	if err != nil {
		logger.Warning("Error while read response body", err)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HttpError{
			Url:     reqUrl,
			Code:    resp.StatusCode,
			Message: string(bodyBytes),
		}
	}

	return bodyBytes, nil
}
