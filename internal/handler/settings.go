package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorejar/internal/appdata"
	"github.com/dukerupert/chorejar/internal/model"
)

type SettingsHandler struct {
	data   *appdata.Client
	logger *slog.Logger
}

func NewSettingsHandler(data *appdata.Client, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{data: data, logger: logger}
}

// Get handles GET /api/settings. A storage failure still yields the
// defaults so the UI always has something to render.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.data.Settings(r.Context())
	if err != nil {
		h.logger.Warn("get settings, using defaults", "error", err)
	}
	writeJSON(w, http.StatusOK, settings)
}

// Update handles PUT /api/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.Settings
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if err := model.ValidateSettings(req); err != nil {
		writeError(w, h.logger, err, "update settings")
		return
	}

	settings, err := h.data.UpdateSettings(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err, "update settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
