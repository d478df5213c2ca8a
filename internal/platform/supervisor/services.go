package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// LoopService calls Run every Interval until its context ends. A Run error is
// logged and the loop carries on; only a panic reaches the supervisor.
type LoopService struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
	Logger   *slog.Logger
}

func (s LoopService) Serve(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("supervised loop iteration failed",
				"event", "supervisor_loop_failed",
				"module", "internal/platform/supervisor",
				"layer", "platform",
				"service", s.Name,
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s LoopService) String() string {
	return s.Name
}

// StartService adapts subscribe-style components: Start registers handlers
// bound to ctx and returns, then the service parks until ctx ends so the
// subscription lives as long as the supervisor runs it.
type StartService struct {
	Name  string
	Start func(ctx context.Context) error
}

func (s StartService) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start %s: %w", s.Name, err)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s StartService) String() string {
	return s.Name
}

type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs an HTTP server until ctx ends, then shuts it down
// within ShutdownTimeout.
type HTTPServerService struct {
	Server          HTTPServer
	ShutdownTimeout time.Duration
}

func (h HTTPServerService) Serve(ctx context.Context) error {
	timeout := h.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	errCh := make(chan error, 1)
	go func() {
		if err := h.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := h.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h HTTPServerService) String() string {
	return "http-server"
}
