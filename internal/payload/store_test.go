package payload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "welcome_buttons.json", []byte(`{"text":"Добро пожаловать","attachments":[{"type":"inline_keyboard"}]}`))

	s, err := New(dir, "")
	require.NoError(t, err)

	p, err := s.Load("welcome_buttons.json")
	require.NoError(t, err)
	assert.Equal(t, "Добро пожаловать", p["text"])
	assert.Len(t, p["attachments"], 1)
}

func TestLoad_NotFound(t *testing.T) {
	s, err := New(t.TempDir(), "utf-8")
	require.NoError(t, err)

	p, err := s.Load("missing.json")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", []byte(`{"text":`))
	writeFile(t, dir, "array.json", []byte(`[1,2]`))
	writeFile(t, dir, "null.json", []byte(`null`))

	s, err := New(dir, "")
	require.NoError(t, err)

	for _, name := range []string{"broken.json", "array.json", "null.json"} {
		t.Run(name, func(t *testing.T) {
			p, err := s.Load(name)
			assert.Nil(t, p)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, filepath.Join(dir, name), perr.Path)
		})
	}
}

func TestTextOrDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.txt", []byte("  Не понял вас \n"))

	s, err := New(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "Не понял вас", s.TextOrDefault("default.txt", "🤔"))
	assert.Equal(t, "🤔", s.TextOrDefault("absent.txt", "🤔"))
	// каталог вместо файла
	assert.Equal(t, "🤔", s.TextOrDefault(".", "🤔"))
}

func TestTextOrDefault_Windows1251(t *testing.T) {
	dir := t.TempDir()
	b, err := charmap.Windows1251.NewEncoder().Bytes([]byte("Привет"))
	require.NoError(t, err)
	writeFile(t, dir, "welcome.txt", b)

	s, err := New(dir, "cp1251")
	require.NoError(t, err)

	assert.Equal(t, "Привет", s.TextOrDefault("welcome.txt", ""))
}

func TestNew_UnknownEncoding(t *testing.T) {
	_, err := New(t.TempDir(), "klingon")
	assert.Error(t, err)
}

func TestWatch_Invalidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.json", []byte(`{"text":"old"}`))

	s, err := New(dir, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	p, err := s.Load("p.json")
	require.NoError(t, err)
	require.Equal(t, "old", p["text"])

	writeFile(t, dir, "p.json", []byte(`{"text":"new"}`))

	assert.Eventually(t, func() bool {
		p, err := s.Load("p.json")
		return err == nil && p["text"] == "new"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLoad_Cached(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.json", []byte(`{"text":"old"}`))

	s, err := New(dir, "")
	require.NoError(t, err)

	_, err = s.Load("p.json")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "p.json")))

	p, err := s.Load("p.json")
	require.NoError(t, err)
	assert.Equal(t, "old", p["text"])

	s.Invalidate()
	_, err = s.Load("p.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
