// Package web is the server-rendered menu front-end. Every request to the
// list route is one mount of a view.ListView; owner mode is decided once per
// request by middleware and carried forward in every rendered link.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zfogg/menuboard/internal/live"
	"github.com/zfogg/menuboard/internal/logger"
	"github.com/zfogg/menuboard/internal/middleware"
	"github.com/zfogg/menuboard/internal/owner"
	"github.com/zfogg/menuboard/internal/telemetry"
	"github.com/zfogg/menuboard/internal/view"
	"github.com/zfogg/menuboard/pkg/menu"
)

//go:embed templates/*.html static/*.js static/*.css
var assetsFS embed.FS

// Client is everything the web surface asks of the menu API.
type Client interface {
	view.Lister
	owner.Client
}

type Config struct {
	Addr           string
	AllowedOrigins []string
	// OwnerParam is the query parameter whose value "true" enables owner mode.
	OwnerParam          string
	TruncateAt          int
	VisibilityThreshold float64
	// Footer is the contact block rendered under every page.
	Footer  string
	Tracing bool
}

type Server struct {
	cfg       Config
	client    Client
	flow      *owner.Flow
	hub       *live.Hub
	publisher live.Publisher
	tmpl      *template.Template
	engine    *gin.Engine
}

// NewServer wires the routes. hub may be nil, which disables /live;
// publisher defaults to hub.
func NewServer(cfg Config, client Client, hub *live.Hub, publisher live.Publisher) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if client == nil {
		return nil, errors.New("web: menu client is nil")
	}
	if cfg.OwnerParam == "" {
		cfg.OwnerParam = "owner"
	}
	if cfg.TruncateAt <= 0 {
		cfg.TruncateAt = view.DefaultTruncateAt
	}
	if cfg.VisibilityThreshold <= 0 || cfg.VisibilityThreshold > 1 {
		cfg.VisibilityThreshold = view.DefaultVisibilityThreshold
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if publisher == nil && hub != nil {
		publisher = hub
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim":  strings.TrimSpace,
		"lines": func(s string) []string { return strings.Split(strings.TrimSpace(s), "\n") },
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		client:    client,
		hub:       hub,
		publisher: publisher,
		tmpl:      tmpl,
	}
	s.flow = owner.NewFlow(client, s.announce)
	s.engine = s.routes()
	return s, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.OwnerMiddleware(s.cfg.OwnerParam))
	if s.cfg.Tracing {
		r.Use(middleware.TracingMiddleware(telemetry.ServiceName))
	}
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsCfg := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) == 1 && s.cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"}
	r.Use(cors.New(corsCfg))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/live", "/metrics"})))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   telemetry.ServiceName,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	static, _ := fs.Sub(assetsFS, "static")
	r.StaticFS("/static", http.FS(static))

	r.GET("/", s.handleList)
	r.POST("/items", s.handleAdd)
	r.POST("/items/:id/delete", s.handleDelete)
	r.GET("/edit/:id", s.handleEdit)
	r.POST("/edit/:id", s.handleEditSubmit)

	if s.hub != nil {
		r.GET("/live", live.Handler(s.hub, s.cfg.AllowedOrigins))
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Menu board listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by http.Server.
	if s.hub != nil {
		s.hub.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Log.Info("Server exited")
	return nil
}

// announce tells open list pages that the menu changed.
func (s *Server) announce(ctx context.Context, op string, id menu.ItemID) {
	if s.publisher == nil {
		return
	}
	// The request context ends with the redirect; publishing must not.
	ctx = context.WithoutCancel(ctx)
	if err := s.publisher.Publish(ctx, live.MenuChanged(op, string(id))); err != nil {
		logger.Log.Warn("Failed to publish menu change",
			zap.String("op", op),
			logger.WithItemID(string(id)),
			zap.Error(err))
	}
}

func (s *Server) render(c *gin.Context, status int, name string, data any) {
	var b bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		logger.Log.Error("Template render failed", zap.String("template", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", b.Bytes())
}
