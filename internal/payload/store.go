package payload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"max-webhook-bot/internal/logger"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/fsnotify.v1"
)

type (
	// Payload готовое тело ответа платформе. Значения из кэша общие, не изменять.
	Payload map[string]any

	ParseError struct {
		Path string
		Err  error
	}

	// Store шаблоны ответов из каталога на диске
	Store struct {
		dir      string
		encoding encoding.Encoding

		mu    sync.RWMutex
		cache map[string]Payload
	}
)

var ErrNotFound = errors.New("payload not found")

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid payload %s: %s", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// New textEncoding - кодировка текстовых файлов ответов ("utf-8", "windows-1251", "cp1251", ...)
func New(dir, textEncoding string) (*Store, error) {
	if textEncoding == "" {
		textEncoding = "utf-8"
	}
	enc, err := htmlindex.Get(textEncoding)
	if err != nil {
		return nil, fmt.Errorf("unknown text encoding %s: %w", textEncoding, err)
	}

	return &Store{
		dir:      dir,
		encoding: enc,
		cache:    make(map[string]Payload),
	}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load читает JSON шаблон. Отсутствующий файл - ErrNotFound, битый JSON - *ParseError.
func (s *Store) Load(name string) (Payload, error) {
	s.mu.RLock()
	p, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	path := s.path(name)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if p == nil {
		return nil, &ParseError{Path: path, Err: errors.New("payload must be a JSON object")}
	}

	s.mu.Lock()
	s.cache[name] = p
	s.mu.Unlock()

	return p, nil
}

// TextOrDefault содержимое текстового файла без пробелов по краям, иначе fallback
func (s *Store) TextOrDefault(name, fallback string) string {
	path := s.path(name)

	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warning("Error while reading file", path, err)
		}
		return fallback
	}

	// Decoder хранит состояние, на каждый вызов свой
	text, err := s.encoding.NewDecoder().Bytes(b)
	if err != nil {
		logger.Warning("Error while decoding file", path, err)
		return fallback
	}

	return strings.TrimSpace(string(text))
}

func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]Payload)
	s.mu.Unlock()
}

// Watch сбрасывает кэш шаблонов при любых изменениях в каталоге.
// Подписка ставится до возврата, события обрабатываются до отмены ctx.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				logger.Debug("Payload dir event:", event.String())
				s.Invalidate()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warning("Payload watcher error:", err)
			}
		}
	}()

	return nil
}
