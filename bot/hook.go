package bot

import (
	"context"
	"time"

	"max-webhook-bot/internal/config"
	"max-webhook-bot/internal/logger"
	"max-webhook-bot/internal/max/client"
	"max-webhook-bot/internal/max/update"

	"github.com/gin-gonic/gin"
)

func InitHooks(app *gin.Engine, cnf *config.Conf, b *Bot, cl *client.Client) {
	logger.Info("Init receiving endpoint...")

	hook := app.Group("/webhook")
	hook.GET("", b.Status)
	hook.POST("", MaxBody(cnf.Server.MaxBodyBytes), LimitConcurrency(int64(cnf.Server.Threads)), b.Receive)

	app.GET("/health", b.Health)

	if !cnf.Max.AutoSubscribe {
		return
	}

	logger.Info("Setup subscription on MAX:", cnf.Max.WebhookUrl())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := cl.Subscribe(ctx, cnf.Max.WebhookUrl(), cnf.Max.Secret, update.Subscribed); err != nil {
		logger.Crit("Error while setup subscription:", err)
	}
}

func DestroyHooks(cnf *config.Conf, cl *client.Client) {
	if !cnf.Max.AutoSubscribe {
		return
	}

	logger.Info("Destroy subscription on MAX...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := cl.Unsubscribe(ctx, cnf.Max.WebhookUrl()); err != nil {
		logger.Warning("Error while delete subscription:", err)
	}
}
