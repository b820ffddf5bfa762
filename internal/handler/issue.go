package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorejar/internal/issues"
)

// Screenshots arrive inline as base64 data URLs.
const maxReportBytes = 10 << 20

type IssueHandler struct {
	client *issues.Client
	logger *slog.Logger
}

func NewIssueHandler(client *issues.Client, logger *slog.Logger) *IssueHandler {
	return &IssueHandler{client: client, logger: logger}
}

// Create handles POST /api/issues/create
func (h *IssueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var report issues.Report
	if !decodeJSON(w, r, maxReportBytes, &report) {
		return
	}

	res, err := h.client.Create(r.Context(), &report)
	if err != nil {
		writeError(w, h.logger, err, "create issue")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
