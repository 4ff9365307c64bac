package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pairup-backend/internal/matchmaking"
	"pairup-backend/internal/spaces"
)

// SpaceDirectory exposes the spaces the platform side can inspect and
// archive.
type SpaceDirectory interface {
	Get(handle matchmaking.SpaceHandle) (spaces.Space, error)
	Archive(ctx context.Context, handle matchmaking.SpaceHandle) error
}

type SpaceHandler struct {
	directory SpaceDirectory
}

func NewSpaceHandler(directory SpaceDirectory) *SpaceHandler {
	return &SpaceHandler{directory: directory}
}

func (h *SpaceHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	sp, err := h.directory.Get(matchmaking.SpaceHandle(chi.URLParam(r, "handle")))
	if err != nil {
		writeSpaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

// ArchiveSpace is the platform's "space archived" signal.
func (h *SpaceHandler) ArchiveSpace(w http.ResponseWriter, r *http.Request) {
	handle := matchmaking.SpaceHandle(chi.URLParam(r, "handle"))
	if err := h.directory.Archive(r.Context(), handle); err != nil {
		writeSpaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "archived", "handle": string(handle)})
}

func writeSpaceError(w http.ResponseWriter, err error) {
	if errors.Is(err, spaces.ErrNotFound) {
		writeError(w, http.StatusNotFound, "space not found", err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "space error", err.Error())
}
