// Package httpapi serves a read-only HTTP status API next to the chat gateway:
// a health check for service managers and JSON views of the running bot.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"go.uber.org/zap"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/channels"
	"pkgbot/pkg/commands"
	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
	"pkgbot/pkg/registry"
	"pkgbot/pkg/version"
)

// Server is the status API.
type Server struct {
	log       *logger.Logger
	addr      string
	bus       bus.Bus
	providers *registry.Set
	channels  *channels.Manager
	commands  *commands.Registry
	startedAt time.Time

	echo       *echo.Echo
	httpServer *http.Server
}

// NewServer creates the status API.
func NewServer(
	log *logger.Logger,
	cfg *config.Config,
	b bus.Bus,
	providers *registry.Set,
	cm *channels.Manager,
	cmds *commands.Registry,
) *Server {
	s := &Server{
		log:       log,
		addr:      fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		bus:       b,
		providers: providers,
		channels:  cm,
		commands:  cmds,
		startedAt: time.Now(),
	}

	s.setup()
	return s
}

func (s *Server) setup() {
	e := echo.New()
	e.Use(middleware.Recover())

	e.GET("/healthz", s.handleHealth)

	api := e.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/providers", s.handleProviders)
	api.GET("/commands", s.handleCommands)

	s.echo = e
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens in the background. Echo's own Start installs signal handling
// that would fight the fx lifecycle, so a plain http.Server is used.
func (s *Server) Start() error {
	s.log.Info("Status API starting", zap.String("addr", s.addr))

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Status API error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Status API stopping")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(c *echo.Context) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := time.Since(s.startedAt)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":            version.GetVersion(),
		"commit":             version.GitCommit,
		"build_time":         version.BuildTime,
		"os":                 runtime.GOOS,
		"arch":               runtime.GOARCH,
		"go_version":         runtime.Version(),
		"pid":                os.Getpid(),
		"uptime":             uptime.Round(time.Second).String(),
		"uptime_seconds":     int64(uptime.Seconds()),
		"memory_alloc_bytes": mem.Alloc,
		"channels":           s.channels.Snapshot(),
		"signals":            s.bus.GetMetrics(),
	})
}

type providerView struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Command     string `json:"command"`
	PlatformKey string `json:"platform_key"`
}

func (s *Server) handleProviders(c *echo.Context) error {
	list := s.providers.List()
	views := make([]providerView, 0, len(list))
	for _, p := range list {
		views = append(views, providerView{
			Name:        p.Name(),
			Title:       p.Title(),
			Command:     s.commands.Prefix() + p.Name(),
			PlatformKey: p.Layout().PlatformKey,
		})
	}
	return c.JSON(http.StatusOK, views)
}

type commandView struct {
	Name        string `json:"name"`
	Usage       string `json:"usage"`
	Description string `json:"description"`
}

func (s *Server) handleCommands(c *echo.Context) error {
	list := s.commands.List()
	views := make([]commandView, 0, len(list))
	for _, cmd := range list {
		views = append(views, commandView{
			Name:        cmd.Name,
			Usage:       s.commands.Usage(cmd),
			Description: cmd.Description,
		})
	}
	return c.JSON(http.StatusOK, views)
}
