package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"max-webhook-bot/internal/chatlog"
	"max-webhook-bot/internal/config"
	"max-webhook-bot/internal/database"
	"max-webhook-bot/internal/logger"
	"max-webhook-bot/internal/max/requests"
	"max-webhook-bot/internal/max/update"
	"max-webhook-bot/internal/onec"
	"max-webhook-bot/internal/payload"
	"max-webhook-bot/internal/signature"

	"github.com/gin-gonic/gin"
)

const (
	WELCOME_TEXT = "👋 Добро пожаловать!"
	DEFAULT_TEXT = "🤔"
	ERROR_TEXT   = "⚠️ Произошла ошибка, попробуйте позже"
	BRIDGE_TEXT  = "⚠️ Сервис временно недоступен, попробуйте позже"

	STATUS_ACTIVE    = "webhook_active"
	STATUS_HEALTHY   = "healthy"
	STATUS_DUPLICATE = "duplicate_ignored"
)

type (
	// Relayer обмен с 1С, см. onec.Bridge
	Relayer interface {
		Relay(ctx context.Context, userID int64, text string, payload any) onec.Response
	}

	Bot struct {
		cnf *config.Conf

		store    database.Store
		chatlog  *chatlog.Logger
		payloads *payload.Store
		// nil если обмен с 1С выключен
		bridge Relayer

		now func() time.Time
	}
)

func New(cnf *config.Conf, store database.Store, chatLog *chatlog.Logger, payloads *payload.Store, bridge Relayer) *Bot {
	return &Bot{
		cnf:      cnf,
		store:    store,
		chatlog:  chatLog,
		payloads: payloads,
		bridge:   bridge,
		now:      time.Now,
	}
}

func (b *Bot) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": STATUS_ACTIVE})
}

func (b *Bot) Health(c *gin.Context) {
	h := gin.H{
		"status":    STATUS_HEALTHY,
		"timestamp": b.now().UTC().Format(time.RFC3339),
	}
	if n, err := b.store.Len(c.Request.Context()); err == nil {
		h["processed_cache_size"] = n
	} else {
		logger.Warning("Error while count idempotency cache", err)
	}

	c.JSON(http.StatusOK, h)
}

// Receive обработка события: подпись -> JSON -> дубли -> журнал -> ответ.
// Любая ошибка после разбора запроса отвечает 200, чтобы платформа не повторяла доставку.
func (b *Bot) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warning("Webhook body exceeds", tooLarge.Limit, "bytes")
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
			return
		}
		logger.Warning("Error while read webhook body", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}

	if b.cnf.Max.SignatureRequired() {
		sig := c.GetHeader(signature.HEADER_SHA256)
		if sig == "" {
			sig = c.GetHeader(signature.HEADER_LEGACY)
		}
		if !signature.Verify(body, sig, b.cnf.Max.Secret) {
			logger.Warning("Invalid signature from", c.ClientIP())
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
	}

	if c.ContentType() != gin.MIMEJSON {
		logger.Warning("Received non-JSON request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type must be application/json"})
		return
	}

	upd, err := update.Parse(body)
	if err != nil {
		logger.Warning("Failed to parse JSON", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	ctx := c.Request.Context()

	if key := upd.IdempotencyKey(); key != "" {
		isNew, err := b.store.CheckAndMark(ctx, key)
		switch {
		case err != nil:
			// без кэша лучше ответить повторно, чем потерять событие
			logger.Warning("Idempotency check failed for", key, err)
		case !isNew:
			logger.Info("Duplicate message", key, "skipping")
			c.JSON(http.StatusOK, gin.H{"status": STATUS_DUPLICATE})
			return
		}
	}

	logger.Event(fmt.Sprintf("Webhook [%s] from %s (chat:%d): '%s'",
		upd.UpdateType, upd.SenderName(), upd.ChatIDOrZero(), truncate(upd.Text(), 100)))
	b.chatlog.Append(upd.ConversationKey(), json.RawMessage(body))

	reply, err := b.safeReply(ctx, &upd)
	if err != nil {
		logger.Warning("Error generating response", err)
		c.JSON(http.StatusOK, requests.NewMessageBody{Text: ERROR_TEXT})
		return
	}

	logger.Debug("Reply:", reply)
	c.JSON(http.StatusOK, reply)
}

func (b *Bot) safeReply(ctx context.Context, upd *update.Update) (reply any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while building reply: %v", r)
		}
	}()

	return b.reply(ctx, upd)
}

func (b *Bot) reply(ctx context.Context, upd *update.Update) (any, error) {
	switch upd.UpdateType {
	case update.BOT_STARTED:
		return b.welcome()

	case update.MESSAGE_CREATED:
		if b.bridge != nil {
			return fromBackend(b.bridge.Relay(ctx, upd.UserID(), upd.Text(), nil)), nil
		}
		return requests.NewMessageBody{
			Text: fmt.Sprintf("✅ Получено: %s, ℹ️ chat_id: %d", upd.Text(), upd.ChatIDOrZero()),
		}, nil

	case update.MESSAGE_CALLBACK:
		if b.bridge != nil && upd.Callback != nil {
			return fromBackend(b.bridge.Relay(ctx, upd.UserID(), upd.Text(), upd.Callback.PayloadValue())), nil
		}
	}

	return requests.NewMessageBody{
		Text: b.payloads.TextOrDefault(b.cnf.Templates.Default, DEFAULT_TEXT),
	}, nil
}

// welcome шаблон с кнопками, если его нет - текст приветствия
func (b *Bot) welcome() (any, error) {
	p, err := b.payloads.Load(b.cnf.Templates.Welcome)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, payload.ErrNotFound) {
		return nil, err
	}

	logger.Warning("Welcome payload not found, sending text:", err)
	return requests.NewMessageBody{
		Text: b.payloads.TextOrDefault(b.cnf.Templates.WelcomeText, WELCOME_TEXT),
	}, nil
}

func fromBackend(resp onec.Response) requests.NewMessageBody {
	if resp.Error != "" {
		text := resp.Text
		if text == "" {
			text = BRIDGE_TEXT
		}
		return requests.NewMessageBody{Text: text, Error: resp.Error}
	}

	var rows [][]requests.KeyboardButton
	for _, row := range resp.Buttons {
		var buttons []requests.KeyboardButton
		for _, btn := range row {
			buttons = append(buttons, keyboardButton(btn))
		}
		if len(buttons) > 0 {
			rows = append(rows, buttons)
		}
	}

	return requests.NewMessageBody{
		Text:        resp.Text,
		Attachments: requests.InlineKeyboard(rows),
	}
}

func keyboardButton(btn onec.Button) requests.KeyboardButton {
	kb := requests.KeyboardButton{
		Type:    btn.Type,
		Text:    btn.Text,
		Payload: btn.Payload,
		Url:     btn.Url,
	}
	if kb.Type == "" {
		kb.Type = requests.BUTTON_CALLBACK
		if kb.Url != "" {
			kb.Type = requests.BUTTON_LINK
		}
	}
	if kb.Type == requests.BUTTON_CALLBACK && kb.Payload == "" {
		kb.Payload = kb.Text
	}
	return kb
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
