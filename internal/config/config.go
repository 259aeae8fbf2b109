package config

import (
	"strconv"
	"time"

	"max-webhook-bot/internal/logger"
)

type (
	// configuration contains the application settings
	Conf struct {
		Server Server `yaml:"server"`

		Max  Max  `yaml:"max"`
		Onec Onec `yaml:"onec"`

		Idempotency Idempotency `yaml:"idempotency"`
		Redis       Redis       `yaml:"redis"`

		ChatLogsDir  string `yaml:"chat_logs_dir" env:"CHAT_LOGS_DIR" env-default:"chat_logs"`
		PayloadsDir  string `yaml:"payloads_dir" env:"PAYLOADS_DIR" env-default:"."`
		TextEncoding string `yaml:"text_encoding" env:"TEXT_ENCODING" env-default:"utf-8"`

		Templates Templates `yaml:"templates"`

		Logging logger.Config `yaml:"logging"`

		Debug bool `yaml:"debug" env:"DEBUG"`
	}

	Server struct {
		Host            string        `yaml:"host" env:"HOST" env-default:"127.0.0.1"`
		Port            int           `yaml:"port" env:"PORT" env-default:"8080"`
		Threads         int           `yaml:"threads" env:"WAITRESS_THREADS" env-default:"8"`
		ConnectionLimit int           `yaml:"connection_limit" env-default:"100"`
		ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"30s"`
		MaxBodyBytes    int64         `yaml:"max_body_bytes" env-default:"10485760"`
	}

	Max struct {
		ApiBaseUrl string `yaml:"api_base_url" env:"API_BASE_URL" env-default:"https://platform-api.max.ru/"`
		Token      string `yaml:"token" env:"BOT_TOKEN"`
		MainHost   string `yaml:"main_host" env:"MAIN_HOST"`
		Secret     string `yaml:"secret" env:"SECRET_KEY"`
		// проверять подпись входящих вебхуков, если задан Secret
		RequireSignature bool `yaml:"require_signature" env:"REQUIRE_SIGNATURE"`
		// подписываться на события при старте и отписываться при остановке
		AutoSubscribe bool `yaml:"auto_subscribe" env:"AUTO_SUBSCRIBE"`
	}

	Onec struct {
		Enabled bool `yaml:"enabled" env:"ONEC_ENABLED"`
		// совместимость со старой настройкой: true - http, false - файловый обмен
		UseHttp bool   `yaml:"use_http" env:"USE_HTTP"`
		Mode    string `yaml:"mode" env:"ONEC_MODE"`

		HttpUrl string `yaml:"http_url" env:"ONEC_HTTP_URL"`

		FileOutbox string `yaml:"file_outbox" env:"ONEC_FILE_OUTBOX" env-default:"./exchange/out"`
		FileInbox  string `yaml:"file_inbox" env:"ONEC_FILE_INBOX" env-default:"./exchange/in"`

		SoapUrl    string `yaml:"soap_url" env:"ONEC_SOAP_URL"`
		SoapAction string `yaml:"soap_action" env:"ONEC_SOAP_ACTION" env-default:"Relay"`
		Login      string `yaml:"login" env:"ONEC_LOGIN"`
		Password   string `yaml:"password" env:"ONEC_PASSWORD"`

		RequestQueue string `yaml:"request_queue" env-default:"onec:requests"`
		ReplyPrefix  string `yaml:"reply_prefix" env-default:"onec:responses:"`

		Timeout time.Duration `yaml:"timeout" env:"ONEC_TIMEOUT"`
	}

	Idempotency struct {
		Backend string        `yaml:"backend" env:"IDEMPOTENCY_BACKEND" env-default:"memory"`
		TTL     time.Duration `yaml:"ttl" env-default:"1h"`
	}

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	}

	// имена файлов шаблонов ответов относительно PayloadsDir
	Templates struct {
		Welcome     string `yaml:"welcome" env-default:"welcome_buttons.json"`
		WelcomeText string `yaml:"welcome_text" env-default:"welcome.txt"`
		Default     string `yaml:"default" env-default:"default.txt"`
	}
)

const (
	ONEC_MODE_HTTP  = "http"
	ONEC_MODE_FILE  = "file"
	ONEC_MODE_SOAP  = "soap"
	ONEC_MODE_REDIS = "redis"

	BACKEND_MEMORY = "memory"
	BACKEND_REDIS  = "redis"

	SECRET_MASK = "***"
)

// Masked копия настроек без токенов и паролей, для вывода в лог
func (cnf Conf) Masked() Conf {
	for _, s := range []*string{&cnf.Max.Token, &cnf.Max.Secret, &cnf.Onec.Password, &cnf.Redis.Password} {
		if *s != "" {
			*s = SECRET_MASK
		}
	}
	return cnf
}

func (s Server) Listen() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// SignatureRequired подпись проверяется только если задан секрет
func (m Max) SignatureRequired() bool {
	return m.RequireSignature && m.Secret != ""
}

// WebhookUrl адрес, который регистрируется в подписке платформы
func (m Max) WebhookUrl() string {
	return "https://" + m.MainHost + "/webhook"
}

// BridgeMode режим обмена с 1С с учетом устаревшего флага use_http
func (o Onec) BridgeMode() string {
	if o.Mode != "" {
		return o.Mode
	}
	if !o.UseHttp {
		return ONEC_MODE_FILE
	}
	return ONEC_MODE_HTTP
}

func (o Onec) BridgeTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	switch o.BridgeMode() {
	case ONEC_MODE_FILE, ONEC_MODE_REDIS:
		return 3 * time.Second
	}
	return 10 * time.Second
}
