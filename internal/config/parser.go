package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"max-webhook-bot/internal/logger"

	"github.com/goccy/go-yaml"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// значения, которые нельзя задать через env-default: для bool нулевое значение совпадает с явным false
func defaultConf() Conf {
	return Conf{
		Max: Max{
			RequireSignature: true,
		},
		Onec: Onec{
			UseHttp: true,
		},
	}
}

// GetConfig читает настройки: .env -> yaml файл -> переменные окружения.
// Отсутствие файлов не ошибка, настройки целиком могут прийти из окружения.
func GetConfig(configPath, envPath string, cnf *Conf) error {
	logger.Debug("Loading configuration")

	*cnf = defaultConf()

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error while reading %s: %w", envPath, err)
		}
	}

	input, err := os.Open(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("Config file not found, using environment:", configPath)
	case err != nil:
		return fmt.Errorf("error while reading config: %w", err)
	default:
		defer input.Close()

		decoder := yaml.NewDecoder(input)
		if err := decoder.Decode(cnf); err != nil {
			return fmt.Errorf("error while decoding config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cnf); err != nil {
		return fmt.Errorf("error while reading environment: %w", err)
	}

	// USE_HTTP из окружения важнее mode из файла, если ONEC_MODE не задан
	if _, ok := os.LookupEnv("USE_HTTP"); ok {
		if _, ok := os.LookupEnv("ONEC_MODE"); !ok {
			cnf.Onec.Mode = ""
		}
	}

	return cnf.Validate()
}

func (cnf *Conf) Validate() error {
	if cnf.Server.Threads <= 0 {
		return errors.New("server.threads must be positive")
	}

	switch cnf.Idempotency.Backend {
	case BACKEND_MEMORY, BACKEND_REDIS:
	default:
		return fmt.Errorf("unknown idempotency backend: %s", cnf.Idempotency.Backend)
	}

	if cnf.Max.RequireSignature && cnf.Max.Secret == "" {
		logger.Warning("Signature check is enabled but SECRET_KEY is empty, webhooks are accepted unsigned")
	}

	if !cnf.Onec.Enabled {
		return nil
	}

	switch mode := cnf.Onec.BridgeMode(); mode {
	case ONEC_MODE_HTTP:
		if cnf.Onec.HttpUrl == "" {
			return errors.New("onec.http_url is required for http mode")
		}
	case ONEC_MODE_SOAP:
		if cnf.Onec.SoapUrl == "" {
			return errors.New("onec.soap_url is required for soap mode")
		}
	case ONEC_MODE_FILE:
		if cnf.Onec.FileOutbox == "" || cnf.Onec.FileInbox == "" {
			return errors.New("onec.file_outbox and onec.file_inbox are required for file mode")
		}
	case ONEC_MODE_REDIS:
	default:
		return fmt.Errorf("unknown onec mode: %s", mode)
	}

	return nil
}
