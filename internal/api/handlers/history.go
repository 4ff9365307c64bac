package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pairup-backend/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryReader lists past sessions of a participant.
type HistoryReader interface {
	RecentSessions(ctx context.Context, participant string, limit int) ([]storage.SessionHistory, error)
}

type HistoryHandler struct {
	reader HistoryReader
}

func NewHistoryHandler(reader HistoryReader) *HistoryHandler {
	return &HistoryHandler{reader: reader}
}

func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "invalid limit", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	rows, err := h.reader.RecentSessions(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history unavailable", err.Error())
		return
	}
	if rows == nil {
		rows = []storage.SessionHistory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": rows})
}
