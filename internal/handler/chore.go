package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorejar/internal/appdata"
	"github.com/dukerupert/chorejar/internal/format"
	"github.com/dukerupert/chorejar/internal/model"
)

type ChoreHandler struct {
	data   *appdata.Client
	logger *slog.Logger
}

func NewChoreHandler(data *appdata.Client, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{data: data, logger: logger}
}

// choreRequest accepts the value either in cents or as a dollar string
// ("1.50"); valueCents wins when both are set.
type choreRequest struct {
	Title      *string `json:"title"`
	ValueCents *int64  `json:"valueCents"`
	Value      *string `json:"value"`
}

func (req *choreRequest) cents() (*int64, error) {
	if req.ValueCents != nil || req.Value == nil {
		return req.ValueCents, nil
	}
	cents, err := format.ParseDollars(*req.Value)
	if err != nil {
		return nil, err
	}
	return &cents, nil
}

// List handles GET /api/chores
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.data.Chores(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "list chores")
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

// Create handles POST /api/chores
func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	cents, err := req.cents()
	if err != nil {
		writeError(w, h.logger, err, "create chore")
		return
	}
	var title string
	var value int64
	if req.Title != nil {
		title = *req.Title
	}
	if cents != nil {
		value = *cents
	}
	title, err = model.ValidateChore(title, value)
	if err != nil {
		writeError(w, h.logger, err, "create chore")
		return
	}

	chore, err := h.data.CreateChore(r.Context(), title, value)
	if err != nil {
		writeError(w, h.logger, err, "create chore")
		return
	}
	writeJSON(w, http.StatusCreated, chore)
}

// Update handles PATCH /api/chores/{id}
func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	cents, err := req.cents()
	if err != nil {
		writeError(w, h.logger, err, "update chore")
		return
	}

	u := model.ChoreUpdate{Title: req.Title, ValueCents: cents}
	if u.Title != nil {
		title, err := model.ValidateChoreTitle(*u.Title)
		if err != nil {
			writeError(w, h.logger, err, "update chore")
			return
		}
		u.Title = &title
	}
	if u.ValueCents != nil {
		if err := model.ValidateCompletionValue(*u.ValueCents); err != nil {
			writeError(w, h.logger, err, "update chore")
			return
		}
	}

	chore, err := h.data.UpdateChore(r.Context(), r.PathValue("id"), u)
	if err != nil {
		writeError(w, h.logger, err, "update chore")
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

// Delete handles DELETE /api/chores/{id}
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.data.DeleteChore(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err, "delete chore")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
