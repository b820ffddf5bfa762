package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorejar/internal/backup"
	"github.com/dukerupert/chorejar/internal/issues"
	"github.com/dukerupert/chorejar/internal/model"
	"github.com/dukerupert/chorejar/internal/store"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors to status codes. Unexpected errors are
// logged and reported as "failed to <action>".
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, action string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeMessage(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNoBalance):
		writeMessage(w, http.StatusConflict, store.ErrNoBalance.Error())
	case errors.Is(err, backup.ErrDecrypt):
		writeMessage(w, http.StatusBadRequest, backup.ErrDecrypt.Error())
	case errors.Is(err, issues.ErrNotConfigured):
		logger.Error("github token not configured")
		writeMessage(w, http.StatusInternalServerError, issues.ErrNotConfigured.Error())
	default:
		logger.Error(action, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// decodeJSON reads a JSON body of at most limit bytes into v. It writes the
// 400 response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}
