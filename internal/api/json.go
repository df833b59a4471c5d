package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/backend"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func errorBody(msg, code string) backend.Response {
	return backend.Response{Error: msg, Code: code}
}

// writeError maps a bridge error to a status code and wire error code.
func writeError(w http.ResponseWriter, cmd string, err error) {
	code := backend.ErrorCode(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	default:
		slog.Error("command failed", slog.String("command", cmd), slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorBody(err.Error(), code))
}
