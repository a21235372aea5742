// Package web provides the HTTP status server for the brewer daemon and a
// remote key endpoint feeding the same key cell as the IR receiver.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/logging"
	"github.com/sweeney/brewer/internal/status"
)

// KeySink accepts remote keys.
type KeySink interface {
	Put(k device.Key)
}

// Options configures the server.
type Options struct {
	Addr string
	// KeyRatePerSec limits key posts per client; 0 disables the limit.
	KeyRatePerSec float64
}

// Server serves the status page and remote keys over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	keys       KeySink
	log        *logging.Logger
}

// New creates a Server that reads state from the given tracker and forwards
// posted keys to keys.
func New(opts Options, tracker *status.Tracker, keys KeySink, log *logging.Logger) *Server {
	s := &Server{tracker: tracker, keys: keys, log: log}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/", s.handleIndex)
	r.GET("/index.html", s.handleIndex)
	r.GET("/index.json", s.handleJSON)

	api := r.Group("/api")
	api.Use(rateLimit(opts.KeyRatePerSec, 2))
	{
		// POST /api/keys/PLAY
		api.POST("/keys/:key", s.handleKey)
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	snap := s.tracker.Snapshot()
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := renderHTML(c.Writer, snap); err != nil {
		s.log.Error("rendering status page", "error", err)
	}
}

func (s *Server) handleJSON(c *gin.Context) {
	snap := s.tracker.Snapshot()
	c.Data(http.StatusOK, "application/json", status.FormatJSON(snap))
}

func (s *Server) handleKey(c *gin.Context) {
	k, ok := device.ParseKey(c.Param("key"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown key"})
		return
	}

	s.keys.Put(k)
	s.log.Debug("http key", "key", k, "client", c.ClientIP())

	// Buttons on the status page post a form; send the browser back.
	if c.ContentType() == "application/x-www-form-urlencoded" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"key": string(k)})
}
