package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"locmirror/internal/logger"
	"locmirror/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server exposes a read-only view of the run history for fleet monitoring.
type Server struct {
	echo *echo.Echo
	repo *repository.RunRepository
	port int
}

func NewServer(repo *repository.RunRepository, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo: e,
		repo: repo,
		port: port,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)

	g := s.echo.Group("/runs")
	g.GET("", s.handleRecentRuns)
	g.GET("/failed", s.handleFailedRuns)

	s.echo.GET("/locations/:code/latest", s.handleLatestForLocation)
}

func (s *Server) Start() {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		logger.Log.Info("status server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("status server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleStatus(c echo.Context) error {
	stats, err := s.repo.GetStats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total":   stats.Total,
		"success": stats.Success,
		"warning": stats.Warning,
		"error":   stats.Error,
	})
}

func (s *Server) handleRecentRuns(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil {
			n = parsed
		}
	}

	runs, err := s.repo.GetRecent(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleFailedRuns(c echo.Context) error {
	runs, err := s.repo.GetFailed()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleLatestForLocation(c echo.Context) error {
	run, err := s.repo.LatestForLocation(c.Param("code"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no runs for location"})
	}

	return c.JSON(http.StatusOK, run)
}
