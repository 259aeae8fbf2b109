package onec

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"max-webhook-bot/internal/logger"

	"gopkg.in/fsnotify.v1"
)

const (
	REQUEST_PREFIX  = "req_"
	RESPONSE_PREFIX = "resp_"

	POLL_INTERVAL = 100 * time.Millisecond
)

// FileTransport обмен через общие каталоги: req_<id>.json в outbox, resp_<id>.json из inbox.
// Рассчитан на одного обработчика на стороне 1С.
type FileTransport struct {
	outbox string
	inbox  string

	interval time.Duration

	mu      sync.Mutex
	waiters map[string]chan struct{}
}

func NewFileTransport(outbox, inbox string) (*FileTransport, error) {
	for _, dir := range []string{outbox, inbox} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return &FileTransport{
		outbox:   outbox,
		inbox:    inbox,
		interval: POLL_INTERVAL,
		waiters:  make(map[string]chan struct{}),
	}, nil
}

func RequestFile(id string) string  { return REQUEST_PREFIX + id + ".json" }
func ResponseFile(id string) string { return RESPONSE_PREFIX + id + ".json" }

func (t *FileTransport) Exchange(ctx context.Context, id string, body []byte) ([]byte, error) {
	reqPath := filepath.Join(t.outbox, RequestFile(id))
	respPath := filepath.Join(t.inbox, ResponseFile(id))

	wake := t.subscribe(id)
	defer t.unsubscribe(id)

	if err := writeAtomic(reqPath, body); err != nil {
		return nil, unavailable(err)
	}

	// опрос остается запасным вариантом, если события файловой системы не приходят
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if resp, ok := readResponse(respPath); ok {
			removeQuietly(reqPath)
			removeQuietly(respPath)
			return resp, nil
		}

		select {
		case <-ctx.Done():
			removeQuietly(reqPath)
			removeQuietly(respPath)
			return nil, timeout(ctx.Err())
		case <-wake:
		case <-ticker.C:
		}
	}
}

// Watch будит ожидающие запросы, как только в inbox появляется ответ
func (t *FileTransport) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(t.inbox); err != nil {
		_ = w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if id, ok := responseID(event.Name); ok && !t.notify(id) {
					// ответ пришел после таймаута, ждать его уже некому
					logger.Debug("Removing late 1C response", event.Name)
					removeQuietly(event.Name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warning("1C inbox watcher error:", err)
			}
		}
	}()

	return nil
}

func (t *FileTransport) subscribe(id string) chan struct{} {
	ch := make(chan struct{}, 1)

	t.mu.Lock()
	t.waiters[id] = ch
	t.mu.Unlock()

	return ch
}

func (t *FileTransport) unsubscribe(id string) {
	t.mu.Lock()
	delete(t.waiters, id)
	t.mu.Unlock()
}

// notify false, если запрос с таким id никто не ждет
func (t *FileTransport) notify(id string) bool {
	t.mu.Lock()
	ch, ok := t.waiters[id]
	t.mu.Unlock()

	if !ok {
		return false
	}
	select {
	case ch <- struct{}{}:
	default:
	}
	return true
}

func responseID(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, RESPONSE_PREFIX) || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(name, RESPONSE_PREFIX), ".json"), true
}

// readResponse недописанный файл считается отсутствующим до следующей проверки
func readResponse(path string) ([]byte, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warning("Error while reading 1C response", path, err)
		}
		return nil, false
	}
	if !json.Valid(b) {
		return nil, false
	}
	return b, true
}

// writeAtomic 1С не должна увидеть запрос частично записанным
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		removeQuietly(tmp)
		return err
	}
	return nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warning("Error while removing", path, err)
	}
}
