package onec

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileTransport(t *testing.T) (*FileTransport, string, string) {
	t.Helper()

	dir := t.TempDir()
	outbox := filepath.Join(dir, "out")
	inbox := filepath.Join(dir, "in")

	ft, err := NewFileTransport(outbox, inbox)
	require.NoError(t, err)
	return ft, outbox, inbox
}

// fakeBackend отвечает на каждый найденный запрос, как это делает обработчик 1С
func fakeBackend(ctx context.Context, outbox, inbox string) {
	go func() {
		answered := make(map[string]bool)
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			matches, _ := filepath.Glob(filepath.Join(outbox, REQUEST_PREFIX+"*.json"))
			for _, m := range matches {
				id := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), REQUEST_PREFIX), ".json")
				if answered[id] {
					continue
				}
				b, err := os.ReadFile(m)
				if err != nil {
					continue
				}
				var req Request
				if json.Unmarshal(b, &req) != nil {
					continue
				}
				answered[id] = true
				resp, _ := json.Marshal(Response{Text: "1C: " + req.Text})
				_ = os.WriteFile(filepath.Join(inbox, ResponseFile(id)), resp, 0644)
			}
		}
	}()
}

func TestFileTransport_Exchange(t *testing.T) {
	ft, outbox, inbox := newTestFileTransport(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ft.Watch(ctx))
	fakeBackend(ctx, outbox, inbox)

	resp := New(ft, 3*time.Second).Relay(context.Background(), 5, "остаток", nil)
	assert.Equal(t, "1C: остаток", resp.Text)
	assert.Empty(t, resp.Error)

	// оба файла удалены после обмена
	assert.Eventually(t, func() bool {
		out, _ := os.ReadDir(outbox)
		in, _ := os.ReadDir(inbox)
		return len(out) == 0 && len(in) == 0
	}, time.Second, 20*time.Millisecond)
}

func TestFileTransport_WithoutWatcher(t *testing.T) {
	ft, outbox, inbox := newTestFileTransport(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fakeBackend(ctx, outbox, inbox)

	resp := New(ft, 3*time.Second).Relay(context.Background(), 5, "ping", nil)
	assert.Equal(t, "1C: ping", resp.Text)
}

func TestFileTransport_Timeout(t *testing.T) {
	ft, outbox, _ := newTestFileTransport(t)

	start := time.Now()
	resp := New(ft, 3*time.Second).Relay(context.Background(), 5, "никто не ответит", nil)
	elapsed := time.Since(start)

	assert.Equal(t, "timeout waiting for backend", resp.Error)
	assert.True(t, elapsed >= 3*time.Second, "elapsed %s", elapsed)
	assert.True(t, elapsed < 4*time.Second, "elapsed %s", elapsed)

	left, err := os.ReadDir(outbox)
	require.NoError(t, err)
	assert.Empty(t, left, "request file must be removed after timeout")
}

func TestFileTransport_Cancel(t *testing.T) {
	ft, _, _ := newTestFileTransport(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := ft.Exchange(ctx, "cancelled", []byte(`{}`))

	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, time.Since(start) < time.Second)
}

func TestFileTransport_PartialResponse(t *testing.T) {
	ft, _, inbox := newTestFileTransport(t)
	require.NoError(t, os.WriteFile(filepath.Join(inbox, ResponseFile("p1")), []byte(`{"text":`), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	time.AfterFunc(100*time.Millisecond, func() {
		_ = os.WriteFile(filepath.Join(inbox, ResponseFile("p1")), []byte(`{"text":"done"}`), 0644)
	})

	b, err := ft.Exchange(ctx, "p1", []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"done"}`, string(b))
}

func TestFileTransport_TimeoutRemovesResponse(t *testing.T) {
	ft, _, inbox := newTestFileTransport(t)
	respPath := filepath.Join(inbox, ResponseFile("slow"))
	require.NoError(t, os.WriteFile(respPath, []byte(`{"text":`), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := ft.Exchange(ctx, "slow", []byte(`{}`))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NoFileExists(t, respPath)
}

func TestFileTransport_LateResponseRemoved(t *testing.T) {
	ft, _, inbox := newTestFileTransport(t)

	watchCtx, stop := context.WithCancel(context.Background())
	defer stop()
	require.NoError(t, ft.Watch(watchCtx))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := ft.Exchange(ctx, "late", []byte(`{}`))
	require.ErrorIs(t, err, ErrTimeout)

	respPath := filepath.Join(inbox, ResponseFile("late"))
	require.NoError(t, os.WriteFile(respPath, []byte(`{"text":"опоздал"}`), 0644))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(respPath)
		return os.IsNotExist(err)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestResponseID(t *testing.T) {
	id, ok := responseID("/x/in/resp_abc.json")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = responseID("/x/in/req_abc.json")
	assert.False(t, ok)
	_, ok = responseID("/x/in/resp_abc.json.tmp")
	assert.False(t, ok)
}
