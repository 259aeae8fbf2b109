package chatlog

import (
	"bytes"
	"encoding/json"
	"hash/fnv"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"max-webhook-bot/internal/logger"
)

const (
	UNKNOWN = "unknown"

	lockStripes = 64
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Logger пишет входящие события в <dir>/<key>.txt, по одной JSON строке на событие
type Logger struct {
	dir string

	// запись в один файл из разных горутин идет строго по очереди
	locks [lockStripes]sync.Mutex
}

func New(dir string) *Logger {
	return &Logger{dir: dir}
}

// SanitizeFilename оставляет только [A-Za-z0-9_-], пустой результат заменяется на "unknown"
func SanitizeFilename(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "")
	if safe == "" {
		return UNKNOWN
	}
	return safe
}

// Path файл журнала для ключа после очистки имени
func (l *Logger) Path(key string) string {
	return filepath.Join(l.dir, SanitizeFilename(key)+".txt")
}

// Append ошибки только логируются: сбой записи не должен ломать обработку вебхука
func (l *Logger) Append(key string, event any) {
	if err := l.append(key, event); err != nil {
		logger.Warning("Error while save chat log for", key, ":", err)
	}
}

func (l *Logger) append(key string, event any) error {
	line := new(bytes.Buffer)
	enc := json.NewEncoder(line)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(event); err != nil {
		return err
	}

	path := l.Path(key)
	mu := l.lock(path)
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err = f.Write(line.Bytes()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (l *Logger) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.locks[h.Sum32()%lockStripes]
}
