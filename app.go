package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"max-webhook-bot/bot"
	"max-webhook-bot/internal/chatlog"
	"max-webhook-bot/internal/config"
	"max-webhook-bot/internal/database"
	"max-webhook-bot/internal/logger"
	"max-webhook-bot/internal/max/client"
	"max-webhook-bot/internal/onec"
	"max-webhook-bot/internal/payload"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/netutil"
)

func main() {
	var (
		cnf = &config.Conf{}

		configFile = flag.String("config", "./config/config.yml", "Usage: -config=<config_file>")
		envFile    = flag.String("env", ".env", "Usage: -env=<env_file>")
		debug      = flag.Bool("debug", false, "Print debug information on stderr")
	)

	flag.Parse()

	if err := config.GetConfig(*configFile, *envFile, cnf); err != nil {
		logger.Crit("Error while loading config:", err)
	}
	cnf.Debug = cnf.Debug || *debug

	if logs := logger.InitLogger(cnf.Debug, cnf.Logging); logs != nil {
		defer logs.Close()
	}
	logger.Info("Application starting...")

	if logger.IsDebug() {
		logger.Debug("Config:", cnf.Masked())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rdb *redis.Client
	if cnf.Idempotency.Backend == config.BACKEND_REDIS || (cnf.Onec.Enabled && cnf.Onec.BridgeMode() == config.ONEC_MODE_REDIS) {
		var err error
		rdb, err = database.ConnectRedis(ctx, cnf.Redis.Addr, cnf.Redis.Password, cnf.Redis.DB)
		if err != nil {
			logger.Crit("Error while connect to redis:", err)
		}
		defer rdb.Close()
	}

	var store database.Store
	switch cnf.Idempotency.Backend {
	case config.BACKEND_REDIS:
		store = database.NewRedisStore(rdb, cnf.Idempotency.TTL)
	default:
		s, err := database.NewMemoryStore(cnf.Idempotency.TTL)
		if err != nil {
			logger.Crit("Error while create idempotency cache:", err)
		}
		store = s
	}
	defer store.Close()

	payloads, err := payload.New(cnf.PayloadsDir, cnf.TextEncoding)
	if err != nil {
		logger.Crit("Error while open payloads:", err)
	}
	// без наблюдения шаблоны читаются один раз до перезапуска
	if err := payloads.Watch(ctx); err != nil {
		logger.Warning("Payload templates will not be reloaded:", err)
	}

	var relayer bot.Relayer
	if cnf.Onec.Enabled {
		bridge := onec.New(newTransport(cnf, rdb), cnf.Onec.BridgeTimeout())
		if err := bridge.Start(ctx); err != nil {
			logger.Crit("Error while start 1C exchange:", err)
		}
		logger.Info("1C exchange mode:", cnf.Onec.BridgeMode())
		relayer = bridge
	}

	cl := client.New(cnf.Max.ApiBaseUrl, cnf.Max.Token)
	b := bot.New(cnf, store, chatlog.New(cnf.ChatLogsDir), payloads, relayer)

	app := gin.Default()
	bot.InitHooks(app, cnf, b, cl)

	srv := &http.Server{
		Addr:              cnf.Server.Listen(),
		Handler:           app,
		ReadHeaderTimeout: cnf.Server.ReadTimeout,
		ReadTimeout:       cnf.Server.ReadTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Crit("Listen:", err)
	}
	if cnf.Server.ConnectionLimit > 0 {
		ln = netutil.LimitListener(ln, cnf.Server.ConnectionLimit)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Crit("Serve:", err)
		}
	}()

	logger.Info("Application started on", srv.Addr)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	// kill -SIGHUP XXXX
	// kill -SIGINT XXXX or Ctrl+c
	sig := <-signals
	logger.Info("Catch OS signal", sig, "Exiting...")

	bot.DestroyHooks(cnf, cl)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warning("App forced to shutdown:", err)
	}
	cancel()

	logger.Info("Application stopped correctly!")
}

func newTransport(cnf *config.Conf, rdb *redis.Client) onec.Transport {
	o := cnf.Onec

	switch o.BridgeMode() {
	case config.ONEC_MODE_FILE:
		t, err := onec.NewFileTransport(o.FileOutbox, o.FileInbox)
		if err != nil {
			logger.Crit("Error while prepare exchange directories:", err)
		}
		return t
	case config.ONEC_MODE_SOAP:
		return onec.NewSoapTransport(o.SoapUrl, o.SoapAction, o.Login, o.Password, o.BridgeTimeout())
	case config.ONEC_MODE_REDIS:
		return onec.NewRedisTransport(rdb, o.RequestQueue, o.ReplyPrefix)
	default:
		return onec.NewHttpTransport(o.HttpUrl)
	}
}
