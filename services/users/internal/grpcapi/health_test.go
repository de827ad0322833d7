package grpcapi

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/example/user-platform/services/users/internal/store"
)

type stubPinger struct{ err error }

func (p *stubPinger) Ping(context.Context) error { return p.err }

// hangingPinger blocks until its context is done.
type hangingPinger struct{}

func (hangingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func dialHealth(t *testing.T, h *Health) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestHealth_Serving(t *testing.T) {
	h := NewHealth(store.NewInMemoryUserStore(), nil)
	if got := h.Check(context.Background()); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", got)
	}

	client := dialHealth(t, h)
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", resp.GetStatus())
	}
}

func TestHealth_StoreDown(t *testing.T) {
	p := &stubPinger{err: errors.New("connection refused")}
	h := NewHealth(p, nil)
	h.Check(context.Background())

	client := dialHealth(t, h)
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %s", resp.GetStatus())
	}

	p.err = nil
	h.Check(context.Background())
	resp, _ = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected recovery to SERVING, got %s", resp.GetStatus())
	}
}

func TestHealth_ClosedMemoryStore(t *testing.T) {
	us := store.NewInMemoryUserStore()
	us.Close()
	if got := NewHealth(us, nil).Check(context.Background()); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %s", got)
	}
}

func TestHealth_RunStopsOnCancel(t *testing.T) {
	h := NewHealth(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()
	<-done
}

func TestHealth_HungPingTimesOut(t *testing.T) {
	h := NewHealth(hangingPinger{}, nil)
	h.timeout = 20 * time.Millisecond

	got := make(chan healthpb.HealthCheckResponse_ServingStatus, 1)
	go func() { got <- h.Check(context.Background()) }()

	select {
	case status := <-got:
		if status != healthpb.HealthCheckResponse_NOT_SERVING {
			t.Fatalf("expected NOT_SERVING, got %s", status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("check did not give up on a hung ping")
	}
}
