package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/portalhq/portald/internal/pause"
	"github.com/portalhq/portald/internal/server"
	"github.com/portalhq/portald/internal/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct{}

func (fakeSource) Phase() supervisor.Phase { return supervisor.PhaseIdle }
func (fakeSource) Config() supervisor.Config {
	return supervisor.Config{Target: "192.168.1.1"}
}

func newTestClient(t *testing.T) (*Client, *pause.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := pause.New(filepath.Join(t.TempDir(), "pause"))
	r := server.NewRouter(fakeSource{}, st, "/api")
	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	c := New(Config{
		BaseURL: srv.URL + "/api",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return c, st
}

func TestIsReachable(t *testing.T) {
	c, _ := newTestClient(t)
	assert.True(t, c.IsReachable(context.Background()))
}

func TestIsReachableNoDaemon(t *testing.T) {
	c := New(Config{
		BaseURL: "http://127.0.0.1:1/api",
		Timeout: 500 * time.Millisecond,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	assert.False(t, c.IsReachable(context.Background()))
}

func TestStatus(t *testing.T) {
	c, _ := newTestClient(t)
	st, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "idle", st.Phase)
	assert.Equal(t, "192.168.1.1", st.Target)
	assert.False(t, st.Paused)
}

func TestPauseAndResume(t *testing.T) {
	c, st := newTestClient(t)
	until, err := c.Pause(context.Background(), 15)
	require.NoError(t, err)
	d := time.Until(until)
	assert.Greater(t, d, 14*time.Minute)
	assert.Less(t, d, 16*time.Minute)
	_, ok := st.Read()
	require.True(t, ok, "pause marker not written through API")

	got, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Paused)

	require.NoError(t, c.Resume(context.Background()))
	_, ok = st.Read()
	assert.False(t, ok, "pause marker still present")
}

func TestPauseRejectsNonPositive(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Pause(context.Background(), 0)
	assert.Error(t, err)
	_, err = c.Pause(context.Background(), -3)
	assert.Error(t, err)
}

func TestHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()
	c := New(Config{BaseURL: srv.URL, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	_, err := c.Status(context.Background())
	assert.Error(t, err)
}
