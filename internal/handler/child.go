package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorejar/internal/appdata"
	"github.com/dukerupert/chorejar/internal/format"
	"github.com/dukerupert/chorejar/internal/model"
)

type ChildHandler struct {
	data   *appdata.Client
	logger *slog.Logger
}

func NewChildHandler(data *appdata.Client, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{data: data, logger: logger}
}

// List handles GET /api/children
func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	children, err := h.data.Children(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "list children")
		return
	}
	writeJSON(w, http.StatusOK, children)
}

// Get handles GET /api/children/{id}
func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	child, err := h.data.Child(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "get child")
		return
	}
	if child == nil {
		writeMessage(w, http.StatusNotFound, "child not found")
		return
	}
	writeJSON(w, http.StatusOK, child)
}

// Create handles POST /api/children
func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	name, err := model.ValidateChildName(req.Name)
	if err != nil {
		writeError(w, h.logger, err, "create child")
		return
	}

	child, err := h.data.CreateChild(r.Context(), name)
	if err != nil {
		writeError(w, h.logger, err, "create child")
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

// Update handles PATCH /api/children/{id}
func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.ChildUpdate
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if req.Name != nil {
		name, err := model.ValidateChildName(*req.Name)
		if err != nil {
			writeError(w, h.logger, err, "update child")
			return
		}
		req.Name = &name
	}
	if req.TotalCents != nil && *req.TotalCents < 0 {
		writeMessage(w, http.StatusBadRequest, "totalCents must not be negative")
		return
	}

	child, err := h.data.UpdateChild(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, h.logger, err, "update child")
		return
	}
	writeJSON(w, http.StatusOK, child)
}

// Delete handles DELETE /api/children/{id}
func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.data.DeleteChild(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err, "delete child")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete handles POST /api/children/{id}/complete
func (h *ChildHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ValueCents int64 `json:"valueCents"`
	}
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if err := model.ValidateCompletionValue(req.ValueCents); err != nil {
		writeError(w, h.logger, err, "complete chore")
		return
	}

	child, err := h.data.CompleteChore(r.Context(), r.PathValue("id"), req.ValueCents)
	if err != nil {
		writeError(w, h.logger, err, "complete chore")
		return
	}
	writeJSON(w, http.StatusOK, child)
}

// Payout handles POST /api/children/{id}/payout
func (h *ChildHandler) Payout(w http.ResponseWriter, r *http.Request) {
	res, err := h.data.PayoutChild(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "pay out child")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Payouts handles GET /api/children/{id}/payouts
func (h *ChildHandler) Payouts(w http.ResponseWriter, r *http.Request) {
	payouts, err := h.data.ChildPayouts(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "list payouts")
		return
	}
	writeJSON(w, http.StatusOK, payouts)
}

// Favorites handles GET /api/children/{id}/favorites
func (h *ChildHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	chores, err := h.data.FavoriteChores(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "list favorites")
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

// ToggleFavorite handles POST /api/children/{id}/favorites/{choreId}
func (h *ChildHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	child, err := h.data.ToggleFavoriteChore(r.Context(), r.PathValue("id"), r.PathValue("choreId"))
	if err != nil {
		writeError(w, h.logger, err, "toggle favorite")
		return
	}
	writeJSON(w, http.StatusOK, child)
}

type totalsResponse struct {
	TotalCents int64  `json:"totalCents"`
	Display    string `json:"display"`
}

// Totals handles GET /api/totals
func (h *ChildHandler) Totals(w http.ResponseWriter, r *http.Request) {
	total, err := h.data.TotalCents(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "sum balances")
		return
	}
	settings, err := h.data.Settings(r.Context())
	if err != nil {
		h.logger.Warn("get settings for totals, using defaults", "error", err)
	}
	writeJSON(w, http.StatusOK, totalsResponse{
		TotalCents: total,
		Display:    format.Value(total, settings.DisplayMode),
	})
}
