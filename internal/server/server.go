package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mohammad-safakhou/researcher/internal/runtime"
)

type Options struct {
	Reports   *ReportsHandler
	Telemetry *runtime.Telemetry
	// Health reports dependency status for /healthz; nil means always healthy.
	Health func(ctx context.Context) error
	Logger *log.Logger
}

// New builds the echo instance with middleware and routes registered.
func New(opts Options) (*echo.Echo, error) {
	baseLogger := opts.Logger
	if baseLogger == nil {
		baseLogger = log.New(os.Stderr, "[HTTP] ", log.LstdFlags)
	}
	tpl, err := NewTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = tpl
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[HTTP] ${time_rfc3339} ${id} ${method} ${uri} ${status} ${latency_human}\n",
		Output: baseLogger.Writer(),
	}))
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if c.Response().Committed {
			return
		}
		if strings.HasPrefix(req.URL.Path, "/api/") {
			_ = c.JSON(code, HTTPError{Error: msg})
			return
		}
		_ = c.String(code, http.StatusText(code))
	}

	e.GET("/healthz", func(c echo.Context) error {
		if opts.Health != nil {
			if err := opts.Health(c.Request().Context()); err != nil {
				return c.String(http.StatusServiceUnavailable, "unhealthy")
			}
		}
		return c.String(http.StatusOK, "ok")
	})
	if opts.Telemetry != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Telemetry.Handler()))
	}
	if opts.Reports != nil {
		if opts.Reports.Logger == nil {
			opts.Reports.Logger = baseLogger
		}
		opts.Reports.Register(e)
	}
	return e, nil
}

// Run serves e on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
