package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds every shutdown hook.
const ShutdownTimeout = 10 * time.Second

// ErrExited is returned for a component whose Start came back before shutdown
// was requested.
var ErrExited = errors.New("component exited unexpectedly")

// Component is a long-running part of the process. Start blocks until the
// component stops; Stop asks it to stop within the given context.
type Component struct {
	Name  string
	Start func() error
	Stop  func(ctx context.Context) error
}

type Runner struct {
	Logger *zap.Logger
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log}
}

// WithSignals runs every component until SIGINT/SIGTERM or the first
// component failure, then stops all of them. It returns a process exit code.
func (r *Runner) WithSignals(components ...Component) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.Run(ctx, components...)
}

// Run is WithSignals with a caller-supplied context.
func (r *Runner) Run(ctx context.Context, components ...Component) int {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range components {
		g.Go(func() error {
			err := c.Start()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			if err == nil && gctx.Err() == nil {
				err = ErrExited
			}
			if err != nil {
				r.Logger.Error("component failed", zap.String("component", c.Name), zap.Error(err))
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			r.Logger.Info("shutdown signal received")
		}
		r.Graceful(components...)
		return nil
	})

	if err := g.Wait(); err != nil {
		r.Logger.Error("service exited with error", zap.Error(err))
		return 1
	}
	return 0
}

// Graceful stops components in reverse order, each bounded by ShutdownTimeout.
func (r *Runner) Graceful(components ...Component) {
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if c.Stop == nil {
			continue
		}
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		if err := c.Stop(sctx); err != nil {
			r.Logger.Warn("component shutdown", zap.String("component", c.Name), zap.Error(err))
		}
		cancel()
	}
}

func Exit(code int) {
	os.Exit(code)
}
