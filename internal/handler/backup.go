package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorejar/internal/appdata"
	"github.com/dukerupert/chorejar/internal/backup"
	"github.com/dukerupert/chorejar/internal/model"
)

type BackupHandler struct {
	manager *backup.Manager
	data    *appdata.Client
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, data *appdata.Client, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, data: data, logger: logger}
}

// Status handles GET /api/backups/status
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// List handles GET /api/backups
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Configured() {
		writeMessage(w, http.StatusServiceUnavailable, "backup storage not configured")
		return
	}
	objects, err := h.manager.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "list backups")
		return
	}
	if objects == nil {
		objects = []backup.Object{}
	}
	writeJSON(w, http.StatusOK, objects)
}

// Run handles POST /api/backups
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if !h.manager.Configured() {
		writeMessage(w, http.StatusServiceUnavailable, "backup storage not configured")
		return
	}

	key, err := h.manager.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		writeError(w, h.logger, err, "run backup")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// Restore handles POST /api/backups/restore. The backup replaces all data.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key        string `json:"key"`
		Passphrase string `json:"passphrase"`
	}
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if !h.manager.Configured() {
		writeMessage(w, http.StatusServiceUnavailable, "backup storage not configured")
		return
	}

	data, err := h.manager.Fetch(r.Context(), req.Key, req.Passphrase)
	if err != nil {
		writeError(w, h.logger, err, "fetch backup")
		return
	}
	if err := model.ValidateAppData(data); err != nil {
		writeError(w, h.logger, err, "restore backup")
		return
	}
	if err := h.data.ImportData(r.Context(), data); err != nil {
		writeError(w, h.logger, err, "restore backup")
		return
	}
	h.logger.Info("backup restored", "key", req.Key)
	w.WriteHeader(http.StatusNoContent)
}
