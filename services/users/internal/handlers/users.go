package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/user-platform/internal/platform/api"
	"github.com/example/user-platform/services/users/internal/domain"
	"github.com/example/user-platform/services/users/internal/store"
)

const maxBodyBytes = 1 << 20

const msgInvalidUUID = "Invalid Uuid"

// Register mounts the user routes under /v1/user.
func Register(r chi.Router, us store.UserStore, log *zap.Logger) {
	r.Route("/v1/user", func(r chi.Router) {
		r.Get("/", ListUsers(us, log))
		r.Post("/", CreateUser(us, log))
		r.Put("/", UpdateUser(us, log))
		r.Get("/{id}", GetUser(us, log))
		r.Delete("/{id}", DeleteUser(us, log))
	})
}

// ListUsers handles GET /v1/user
func ListUsers(us store.UserStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := us.GetAll(r.Context())
		if err != nil {
			writeStoreError(w, log, err, http.StatusNotFound)
			return
		}
		api.WriteJSON(w, http.StatusOK, users)
	}
}

// GetUser handles GET /v1/user/{id}
func GetUser(us store.UserStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		u, err := us.GetByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, log, err, http.StatusNotFound)
			return
		}
		api.WriteJSON(w, http.StatusOK, u)
	}
}

// CreateUser handles POST /v1/user
func CreateUser(us store.UserStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateUser
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "invalid JSON")
			return
		}
		u, err := us.Create(r.Context(), req)
		if err != nil {
			writeStoreError(w, log, err, http.StatusUnprocessableEntity)
			return
		}
		log.Info("user created", zap.Stringer("id", u.ID))
		api.WriteJSON(w, http.StatusCreated, u)
	}
}

// UpdateUser handles PUT /v1/user
func UpdateUser(us store.UserStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.User
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "invalid JSON")
			return
		}
		u, err := us.Update(r.Context(), req)
		if err != nil {
			writeStoreError(w, log, err, http.StatusUnprocessableEntity)
			return
		}
		log.Info("user updated", zap.Stringer("id", u.ID))
		api.WriteJSON(w, http.StatusOK, u)
	}
}

// DeleteUser handles DELETE /v1/user/{id}
func DeleteUser(us store.UserStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if _, err := us.Delete(r.Context(), id); err != nil {
			writeStoreError(w, log, err, http.StatusNotFound)
			return
		}
		log.Info("user deleted", zap.Stringer("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		api.NotFound(w, msgInvalidUUID)
		return uuid.Nil, false
	}
	return id, true
}

// writeStoreError maps a store error kind to a status. notFound is the
// status used for ErrNotFound, which differs between reads and writes.
func writeStoreError(w http.ResponseWriter, log *zap.Logger, err error, notFound int) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		api.WriteError(w, notFound, store.Message(err, "User not found"))
	case errors.Is(err, store.ErrConflict):
		api.Unprocessable(w, store.Message(err, "This user already exists"))
	case errors.Is(err, store.ErrUnavailable):
		log.Error("user store unavailable", zap.Error(err))
		api.BadGateway(w, store.Message(err, "storage unavailable"))
	default:
		log.Error("user store failed", zap.Error(err))
		api.Internal(w)
	}
}
