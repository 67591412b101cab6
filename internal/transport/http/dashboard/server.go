package dashboardhttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"vaxmap/internal/analysis/visual"
	"vaxmap/internal/config"
	"vaxmap/internal/dashboard"
	"vaxmap/internal/logger"
	"vaxmap/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Server 提供仪表盘页面与 /api 数据接口。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述 HTTP 服务依赖。
type ServerConfig struct {
	Addr    string
	Store   *dashboard.Store
	Map     config.MapConfig
	Chart   visual.Options
	Metrics *metrics.Metrics
	// Reload, when set, is exposed as POST /api/reload.
	Reload func(ctx context.Context) error
}

// NewServer 构建 HTTP server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("dashboard http server requires a store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	router, err := newRouter(cfg)
	if err != nil {
		return nil, err
	}
	return &Server{addr: cfg.Addr, router: router}, nil
}

func newRouter(cfg ServerConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger())
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	if err := loadTemplates(router); err != nil {
		return nil, err
	}
	if err := serveStatic(router); err != nil {
		return nil, err
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h := newHandlers(cfg)
	router.GET("/", h.index)
	router.GET("/chart", h.chartHTML)
	router.GET("/chart.png", h.chartPNG)
	router.GET("/export.xlsx", h.exportXLSX)
	h.register(router.Group("/api"))
	return router, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	if s == nil {
		return nil
	}
	return s.router
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("dashboard listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
