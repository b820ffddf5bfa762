package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorejar/internal/appdata"
)

type PayoutHandler struct {
	data   *appdata.Client
	logger *slog.Logger
}

func NewPayoutHandler(data *appdata.Client, logger *slog.Logger) *PayoutHandler {
	return &PayoutHandler{data: data, logger: logger}
}

// List handles GET /api/payouts
func (h *PayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	payouts, err := h.data.Payouts(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "list payouts")
		return
	}
	writeJSON(w, http.StatusOK, payouts)
}
