package onec

type (
	// Request запрос к 1С
	Request struct {
		UserID  int64  `json:"user_id"`
		Text    string `json:"text"`
		Payload any    `json:"payload"`
		// секунды с дробной частью
		Timestamp float64 `json:"timestamp"`
	}

	// Response ответ 1С. Error заполняется и при сбое обмена.
	Response struct {
		Text    string     `json:"text"`
		Buttons [][]Button `json:"buttons,omitempty"`
		Error   string     `json:"error,omitempty"`
	}

	Button struct {
		// callback (по умолчанию), link, message
		Type    string `json:"type,omitempty"`
		Text    string `json:"text"`
		Payload string `json:"payload,omitempty"`
		Url     string `json:"url,omitempty"`
	}
)
