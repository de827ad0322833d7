package httpserver

import (
	"context"
	"net"
	"sync/atomic"
)

// WorkerIDHeader is the response header carrying the connection's worker id.
const WorkerIDHeader = "X-Worker-Id"

type ctxKeyWorkerID struct{}

// WorkerCounter hands out a monotonically increasing id per accepted
// connection. Ids start at 1.
type WorkerCounter struct {
	n atomic.Uint64
}

// ConnContext is suitable for http.Server.ConnContext.
func (c *WorkerCounter) ConnContext(ctx context.Context, _ net.Conn) context.Context {
	return WithWorkerID(ctx, c.n.Add(1))
}

// Current returns the last id handed out.
func (c *WorkerCounter) Current() uint64 {
	return c.n.Load()
}

func WithWorkerID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, ctxKeyWorkerID{}, id)
}

// WorkerIDFromContext returns 0 when no id was assigned.
func WorkerIDFromContext(ctx context.Context) uint64 {
	v, _ := ctx.Value(ctxKeyWorkerID{}).(uint64)
	return v
}
