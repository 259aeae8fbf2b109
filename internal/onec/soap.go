package onec

import (
	"context"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/hooklift/gowsdl/soap"
)

type (
	// JSON запроса и ответа передаются строкой внутри SOAP конверта
	soapRelay struct {
		XMLName   xml.Name `xml:"urn:max-webhook-bot:onec Relay"`
		RequestID string   `xml:"RequestID"`
		Body      string   `xml:"Body"`
	}

	soapRelayResponse struct {
		XMLName xml.Name `xml:"urn:max-webhook-bot:onec RelayResponse"`
		Return  string   `xml:"return"`
	}

	// SoapTransport вызов опубликованного в 1С веб-сервиса
	SoapTransport struct {
		action string

		cl *soap.Client
	}
)

func NewSoapTransport(url, action, login, password string, timeout time.Duration) *SoapTransport {
	opts := []soap.Option{soap.WithHTTPClient(&http.Client{Timeout: timeout})}
	if login != "" {
		opts = append(opts, soap.WithBasicAuth(login, password))
	}

	return &SoapTransport{
		action: action,
		cl:     soap.NewClient(url, opts...),
	}
}

func (t *SoapTransport) Exchange(ctx context.Context, id string, body []byte) ([]byte, error) {
	var resp soapRelayResponse
	err := t.cl.CallContext(ctx, t.action, &soapRelay{RequestID: id, Body: string(body)}, &resp)
	if err != nil {
		return nil, unavailable(err)
	}

	return []byte(resp.Return), nil
}
