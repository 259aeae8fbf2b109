package response

import "encoding/json"

type (
	SimpleResult struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
	}

	Subscription struct {
		Url         string   `json:"url"`
		Time        int64    `json:"time"`
		UpdateTypes []string `json:"update_types"`
		Version     string   `json:"version,omitempty"`
	}

	Subscriptions struct {
		Subscriptions []Subscription `json:"subscriptions"`
	}

	// SendResult созданное сообщение оставляем как есть, бот его не разбирает
	SendResult struct {
		Message json.RawMessage `json:"message"`
	}
)
