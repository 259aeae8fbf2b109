package onec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HttpTransport struct {
	url string

	cl *http.Client
}

func NewHttpTransport(url string) *HttpTransport {
	return &HttpTransport{
		url: url,
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

func (t *HttpTransport) Exchange(ctx context.Context, id string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, unavailable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", id)

	resp, err := t.cl.Do(req)
	if err != nil {
		return nil, unavailable(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unavailable(fmt.Errorf("%s responded with code %d: %s", t.url, resp.StatusCode, respBody))
	}

	return respBody, nil
}
