package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/stackup/internal/bootstrap"
	"github.com/loykin/stackup/internal/metrics"
)

// Router exposes a read-only HTTP view of the stack.
// Endpoints:
//
//	GET {basePath}/status   broker states + worker/monitor liveness
//	GET {basePath}/report   step results of the current run
//	GET {basePath}/healthz  liveness of this API itself
//	GET {basePath}/metrics  Prometheus metrics
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	orch     *bootstrap.Orchestrator
	basePath string
}

// NewRouter constructs a Router with configurable basePath.
func NewRouter(orch *bootstrap.Orchestrator, basePath string) *Router {
	return &Router{orch: orch, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.GET("/report", r.handleReport)
	group.GET("/healthz", r.handleHealthz)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, orch *bootstrap.Orchestrator) (*http.Server, error) {
	r := NewRouter(orch, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

func (r *Router) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, r.orch.Status(c.Request.Context()))
}

func (r *Router) handleReport(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"started_at": r.orch.Report.StartedAt,
		"failed":     r.orch.Report.Failed(),
		"entries":    r.orch.Report.Snapshot(),
	})
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func sanitizeBase(bp string) string {
	bp = strings.TrimSpace(bp)
	if bp == "" || bp == "/" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimRight(bp, "/")
}
