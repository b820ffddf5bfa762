package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorejar/internal/appdata"
	"github.com/dukerupert/chorejar/internal/format"
	"github.com/dukerupert/chorejar/internal/model"
)

const maxImportBytes = 32 << 20

type TransferHandler struct {
	data   *appdata.Client
	logger *slog.Logger
}

func NewTransferHandler(data *appdata.Client, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{data: data, logger: logger}
}

// Export handles GET /api/export
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.data.ExportData(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "export data")
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.BackupFilename(time.Now())))
	writeJSON(w, http.StatusOK, data)
}

// Import handles POST /api/import. The whole data set is replaced.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	var data model.AppData
	if !decodeJSON(w, r, maxImportBytes, &data) {
		return
	}
	if err := model.ValidateAppData(&data); err != nil {
		writeError(w, h.logger, err, "import data")
		return
	}

	if err := h.data.ImportData(r.Context(), &data); err != nil {
		writeError(w, h.logger, err, "import data")
		return
	}
	h.logger.Info("data imported",
		"children", len(data.Children),
		"chores", len(data.Chores),
		"payouts", len(data.Payouts),
	)
	w.WriteHeader(http.StatusNoContent)
}
