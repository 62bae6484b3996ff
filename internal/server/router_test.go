package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/portalhq/portald/internal/pause"
	"github.com/portalhq/portald/internal/supervisor"
)

type fakeSource struct {
	phase supervisor.Phase
	cfg   supervisor.Config
}

func (f *fakeSource) Phase() supervisor.Phase   { return f.phase }
func (f *fakeSource) Config() supervisor.Config { return f.cfg }

func setupRouter(t *testing.T, base string) (http.Handler, *pause.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	src := &fakeSource{
		phase: supervisor.PhaseIdle,
		cfg:   supervisor.Config{Target: "192.168.1.1"},
	}
	st := pause.New(filepath.Join(t.TempDir(), "pause"))
	r := NewRouter(src, st, base)
	return r.Handler(), st
}

func doReq(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusUnpaused(t *testing.T) {
	h, _ := setupRouter(t, "/api")
	rec := doReq(t, h, http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp StatusResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Phase != "idle" || resp.Target != "192.168.1.1" || resp.Paused {
		t.Fatalf("unexpected status %+v", resp)
	}
}

func TestPauseThenStatusThenResume(t *testing.T) {
	h, st := setupRouter(t, "")
	rec := doReq(t, h, http.MethodPost, "/pause?minutes=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("pause: %d %s", rec.Code, rec.Body.String())
	}
	until, ok := st.Read()
	if !ok {
		t.Fatalf("marker not written")
	}
	if d := time.Until(until); d < 9*time.Minute || d > 11*time.Minute {
		t.Fatalf("expiry %v not around 10 minutes out", until)
	}

	rec = doReq(t, h, http.MethodGet, "/status")
	var resp StatusResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Paused || resp.PausedUntil == nil {
		t.Fatalf("expected paused status, got %+v", resp)
	}

	rec = doReq(t, h, http.MethodPost, "/resume")
	if rec.Code != http.StatusOK {
		t.Fatalf("resume: %d", rec.Code)
	}
	if _, ok := st.Read(); ok {
		t.Fatalf("marker still present after resume")
	}
}

func TestPauseOverwritesNotStacks(t *testing.T) {
	h, st := setupRouter(t, "")
	if rec := doReq(t, h, http.MethodPost, "/pause?minutes=60"); rec.Code != http.StatusOK {
		t.Fatalf("first pause: %d", rec.Code)
	}
	if rec := doReq(t, h, http.MethodPost, "/pause?minutes=5"); rec.Code != http.StatusOK {
		t.Fatalf("second pause: %d", rec.Code)
	}
	until, ok := st.Read()
	if !ok {
		t.Fatalf("marker missing")
	}
	if d := time.Until(until); d > 6*time.Minute {
		t.Fatalf("second pause should replace the first, expiry %v", until)
	}
}

func TestPauseRequiresPositiveMinutes(t *testing.T) {
	h, _ := setupRouter(t, "")
	for _, q := range []string{"", "?minutes=0", "?minutes=-5", "?minutes=soon"} {
		rec := doReq(t, h, http.MethodPost, "/pause"+q)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestResumeIdempotent(t *testing.T) {
	h, _ := setupRouter(t, "")
	for i := 0; i < 2; i++ {
		if rec := doReq(t, h, http.MethodPost, "/resume"); rec.Code != http.StatusOK {
			t.Fatalf("resume %d: %d", i, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	h, _ := setupRouter(t, "/api")
	if rec := doReq(t, h, http.MethodGet, "/api/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}
