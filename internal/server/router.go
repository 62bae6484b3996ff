package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/portalhq/portald/internal/pause"
	"github.com/portalhq/portald/internal/supervisor"
)

// StatusSource is the read-only surface the running supervisor exposes to
// the control API.
type StatusSource interface {
	Phase() supervisor.Phase
	Config() supervisor.Config
}

// Router provides the local control API. It mutates the same pause-marker
// file as the CLI control actions, so the file stays the canonical
// cross-process state and either surface can be used interchangeably.
// Endpoints:
//
//	GET  {basePath}/status        current phase, target and pause window
//	POST {basePath}/pause         query: minutes=N (N > 0)
//	POST {basePath}/resume        clears the pause window
//	GET  {basePath}/healthz       liveness
type Router struct {
	src      StatusSource
	pauses   *pause.Store
	basePath string
}

// NewRouter constructs a Router with a configurable basePath.
// Example basePath: "/api" results in /api/status, /api/pause, /api/resume.
func NewRouter(src StatusSource, pauses *pause.Store, basePath string) *Router {
	return &Router{src: src, pauses: pauses, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server or mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.POST("/pause", r.handlePause)
	group.POST("/resume", r.handleResume)
	group.GET("/healthz", r.handleHealthz)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, src StatusSource, pauses *pause.Store) *http.Server {
	r := NewRouter(src, pauses, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

// StatusResp mirrors the daemon's observable state.
type StatusResp struct {
	Phase       string     `json:"phase"`
	Target      string     `json:"target"`
	Paused      bool       `json:"paused"`
	PausedUntil *time.Time `json:"paused_until,omitempty"`
}

type pauseResp struct {
	OK    bool      `json:"ok"`
	Until time.Time `json:"until"`
}

func (r *Router) handleStatus(c *gin.Context) {
	resp := StatusResp{
		Phase:  r.src.Phase().String(),
		Target: r.src.Config().Target,
	}
	if until, ok := r.pauses.Read(); ok {
		resp.Paused = true
		resp.PausedUntil = &until
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) handlePause(c *gin.Context) {
	minutes, err := strconv.Atoi(c.Query("minutes"))
	if err != nil || minutes <= 0 {
		c.JSON(http.StatusBadRequest, errorResp{Error: "minutes must be a positive integer"})
		return
	}
	until, err := r.pauses.PauseFor(time.Duration(minutes) * time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, pauseResp{OK: true, Until: until})
}

func (r *Router) handleResume(c *gin.Context) {
	if err := r.pauses.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, okResp{OK: true})
}

// sanitizeBase normalizes a route prefix to "/name" form. Root and blank
// prefixes collapse to "".
func sanitizeBase(bp string) string {
	bp = strings.Trim(strings.TrimSpace(bp), "/")
	if bp == "" {
		return ""
	}
	return "/" + bp
}
