package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/example/user-platform/services/users/internal/store"
)

// ServiceName is the name reported to gRPC health checks besides "".
const ServiceName = "users.v1.UserService"

// CheckTimeout bounds a single store ping.
const CheckTimeout = 2 * time.Second

// Health mirrors the user store's reachability into the standard gRPC
// health service.
type Health struct {
	srv     *health.Server
	pinger  store.Pinger
	log     *zap.Logger
	timeout time.Duration
}

func NewHealth(p store.Pinger, log *zap.Logger) *Health {
	if log == nil {
		log = zap.NewNop()
	}
	return &Health{srv: health.NewServer(), pinger: p, log: log, timeout: CheckTimeout}
}

// Check pings the store once and publishes the result. A ping that outlives
// the check timeout counts as a failure.
func (h *Health) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if h.pinger != nil {
		pctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.pinger.Ping(pctx)
		cancel()
		if err != nil {
			h.log.Warn("health: store ping failed", zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
	return status
}

// Run re-checks every interval until ctx is done.
func (h *Health) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		h.Check(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Shutdown reports NOT_SERVING for every service and ignores later updates.
func (h *Health) Shutdown() {
	h.srv.Shutdown()
}

// NewServer builds the gRPC server exposing health and reflection.
func NewServer(h *Health, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(s, h.srv)
	reflection.Register(s)
	return s
}
