package handlers

import (
	"net/http"
	"strconv"

	"github.com/example/user-platform/internal/platform/httpserver"
)

// Health handles GET /health. The response names the connection's worker id.
func Health(w http.ResponseWriter, r *http.Request) {
	id := httpserver.WorkerIDFromContext(r.Context())
	w.Header().Set(httpserver.WorkerIDHeader, strconv.FormatUint(id, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
