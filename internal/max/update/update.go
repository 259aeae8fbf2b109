package update

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"max-webhook-bot/internal/logger"
)

type UpdateType string

const (
	MESSAGE_CREATED  UpdateType = "message_created"
	BOT_STARTED      UpdateType = "bot_started"
	MESSAGE_CALLBACK UpdateType = "message_callback"
)

// события, на которые подписывается бот
var Subscribed = []UpdateType{MESSAGE_CREATED, BOT_STARTED, MESSAGE_CALLBACK}

var ErrSyntax = errors.New("invalid JSON")

type (
	// Int число из JSON. Принимает целое, дробное и число в строке, все остальное читается как 0.
	Int int64

	// Update входящее событие платформы MAX
	Update struct {
		UpdateType UpdateType `json:"update_type"`
		Timestamp  Int        `json:"timestamp"`

		Message  *Message  `json:"message,omitempty"`
		Callback *Callback `json:"callback,omitempty"`

		// bot_started
		ChatID  Int     `json:"chat_id,omitempty"`
		User    *User   `json:"user,omitempty"`
		Payload *string `json:"payload,omitempty"`
	}

	Message struct {
		Sender    *User       `json:"sender,omitempty"`
		Recipient Recipient   `json:"recipient"`
		Timestamp Int         `json:"timestamp"`
		Body      MessageBody `json:"body"`
	}

	User struct {
		UserID   Int    `json:"user_id"`
		Name     string `json:"name"`
		Username string `json:"username,omitempty"`
	}

	Recipient struct {
		ChatID   Int    `json:"chat_id"`
		ChatType string `json:"chat_type,omitempty"`
		UserID   Int    `json:"user_id,omitempty"`
	}

	MessageBody struct {
		Mid  string `json:"mid"`
		Seq  Int    `json:"seq,omitempty"`
		Text string `json:"text"`
	}

	Callback struct {
		Timestamp  Int    `json:"timestamp"`
		CallbackID string `json:"callback_id"`
		// строка или любой JSON, который 1С положила в кнопку
		Payload json.RawMessage `json:"payload,omitempty"`
		User    User            `json:"user"`
	}
)

// Parse ошибка только для синтаксически неверного JSON.
// Поля неожиданного типа остаются пустыми, событие обрабатывается как есть.
func Parse(body []byte) (Update, error) {
	var u Update
	if !json.Valid(body) {
		return u, ErrSyntax
	}

	if err := json.Unmarshal(body, &u); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return u, err
		}
		logger.Warning("Unexpected field type in webhook, field ignored:", err)
	}
	return u, nil
}

func (i *Int) UnmarshalJSON(b []byte) error {
	n := json.Number(strings.Trim(string(b), `"`))
	if v, err := n.Int64(); err == nil {
		*i = Int(v)
		return nil
	}
	if f, err := n.Float64(); err == nil {
		*i = Int(f)
		return nil
	}
	*i = 0
	return nil
}

// PayloadValue строка кнопки или разобранный JSON, nil если payload нет
func (c *Callback) PayloadValue() any {
	if len(c.Payload) == 0 {
		return nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(c.Payload))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// IdempotencyKey id для защиты от повторной доставки.
// У нажатия кнопки mid принадлежит сообщению бота, поэтому берем callback_id.
func (u *Update) IdempotencyKey() string {
	if u.UpdateType == MESSAGE_CALLBACK && u.Callback != nil && u.Callback.CallbackID != "" {
		return u.Callback.CallbackID
	}
	if u.Message != nil {
		return u.Message.Body.Mid
	}
	return ""
}

func (u *Update) Text() string {
	if u.Message != nil {
		return u.Message.Body.Text
	}
	return ""
}

func (u *Update) ChatIDOrZero() int64 {
	if u.Message != nil && u.Message.Recipient.ChatID != 0 {
		return int64(u.Message.Recipient.ChatID)
	}
	return int64(u.ChatID)
}

// UserID автор события: нажавший кнопку, отправитель или запустивший бота
func (u *Update) UserID() int64 {
	switch {
	case u.Callback != nil && u.Callback.User.UserID != 0:
		return int64(u.Callback.User.UserID)
	case u.Message != nil && u.Message.Sender != nil:
		return int64(u.Message.Sender.UserID)
	case u.User != nil:
		return int64(u.User.UserID)
	}
	return 0
}

func (u *Update) SenderName() string {
	switch {
	case u.Callback != nil && u.Callback.User.Name != "":
		return u.Callback.User.Name
	case u.Message != nil && u.Message.Sender != nil && u.Message.Sender.Name != "":
		return u.Message.Sender.Name
	case u.User != nil && u.User.Name != "":
		return u.User.Name
	}
	return "Unknown"
}

// ConversationKey имя журнала переписки: чат, иначе пользователь, иначе пусто
func (u *Update) ConversationKey() string {
	if id := u.ChatIDOrZero(); id != 0 {
		return strconv.FormatInt(id, 10)
	}
	if id := u.UserID(); id != 0 {
		return "user_" + strconv.FormatInt(id, 10)
	}
	return ""
}
