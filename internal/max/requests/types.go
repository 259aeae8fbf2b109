package requests

type (
	// NewMessageBody тело сообщения: ответ на вебхук или отправка через API
	NewMessageBody struct {
		Text        string       `json:"text,omitempty"`
		Format      string       `json:"format,omitempty"`
		Attachments []Attachment `json:"attachments,omitempty"`
		// только в ответе на вебхук: сбой обмена с 1С
		Error string `json:"error,omitempty"`
	}

	Attachment struct {
		Type    string          `json:"type"`
		Payload KeyboardPayload `json:"payload"`
	}

	KeyboardPayload struct {
		Buttons [][]KeyboardButton `json:"buttons"`
	}

	KeyboardButton struct {
		Type    string `json:"type"`
		Text    string `json:"text"`
		Payload string `json:"payload,omitempty"`
		Url     string `json:"url,omitempty"`
	}

	SubscriptionRequest struct {
		Url         string   `json:"url"`
		UpdateTypes []string `json:"update_types"`
		Secret      string   `json:"secret,omitempty"`
	}
)

const (
	ATTACHMENT_INLINE_KEYBOARD = "inline_keyboard"

	BUTTON_CALLBACK = "callback"
	BUTTON_LINK     = "link"
)

// InlineKeyboard вложение с клавиатурой, nil если кнопок нет
func InlineKeyboard(buttons [][]KeyboardButton) []Attachment {
	if len(buttons) == 0 {
		return nil
	}
	return []Attachment{{
		Type:    ATTACHMENT_INLINE_KEYBOARD,
		Payload: KeyboardPayload{Buttons: buttons},
	}}
}
