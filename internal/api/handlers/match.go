package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"pairup-backend/internal/matchmaking"
)

// Matchmaker is the command surface the handlers drive.
type Matchmaker interface {
	Enqueue(ctx context.Context, id matchmaking.ParticipantID, mode matchmaking.Mode) error
	Leave(ctx context.Context, id matchmaking.ParticipantID)
	Next(ctx context.Context, id matchmaking.ParticipantID, mode matchmaking.Mode) error
	Stats() matchmaking.Stats
	SessionOf(id matchmaking.ParticipantID) (matchmaking.Session, bool)
}

type MatchHandler struct {
	matchmaker Matchmaker
	validate   *validator.Validate
	log        *slog.Logger
}

func NewMatchHandler(matchmaker Matchmaker, log *slog.Logger) *MatchHandler {
	return &MatchHandler{
		matchmaker: matchmaker,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        log,
	}
}

type MatchRequestBody struct {
	UserID string `json:"user_id" validate:"required,max=64,printascii"`
	Mode   string `json:"mode" validate:"required,oneof=text voice TEXT VOICE"`
}

type MatchResponse struct {
	Status  string            `json:"status"`
	Mode    matchmaking.Mode  `json:"mode,omitempty"`
	Message string            `json:"message"`
	Stats   matchmaking.Stats `json:"stats"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RequestMatch puts the participant in the queue of the requested mode.
func (h *MatchHandler) RequestMatch(w http.ResponseWriter, r *http.Request) {
	id, mode, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.matchmaker.Enqueue(r.Context(), id, mode); err != nil {
		h.writeMatchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, MatchResponse{
		Status:  "queued",
		Mode:    mode,
		Message: "Added to the queue. You will be notified when a partner is found.",
		Stats:   h.matchmaker.Stats(),
	})
}

// Next ends the current session, if any, and queues the participant again.
func (h *MatchHandler) Next(w http.ResponseWriter, r *http.Request) {
	id, mode, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.matchmaker.Next(r.Context(), id, mode); err != nil {
		h.writeMatchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, MatchResponse{
		Status:  "queued",
		Mode:    mode,
		Message: "Looking for a new partner.",
		Stats:   h.matchmaker.Stats(),
	})
}

// Leave cancels a search or ends a session. It always succeeds.
func (h *MatchHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user_id", "user_id is required")
		return
	}

	h.matchmaker.Leave(r.Context(), matchmaking.ParticipantID(userID))

	writeJSON(w, http.StatusOK, MatchResponse{
		Status:  "idle",
		Message: "You have left the queue or session.",
		Stats:   h.matchmaker.Stats(),
	})
}

func (h *MatchHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.matchmaker.Stats())
}

func (h *MatchHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sess, ok := h.matchmaker.SessionOf(matchmaking.ParticipantID(userID))
	if !ok {
		writeError(w, http.StatusNotFound, "no session", "participant is not in a session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *MatchHandler) decode(w http.ResponseWriter, r *http.Request) (matchmaking.ParticipantID, matchmaking.Mode, bool) {
	var body MatchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return "", "", false
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return "", "", false
	}
	mode, err := matchmaking.ParseMode(body.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return "", "", false
	}
	return matchmaking.ParticipantID(body.UserID), mode, true
}

func (h *MatchHandler) writeMatchError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, matchmaking.ErrAlreadyQueued):
		status, code = http.StatusConflict, "already queued"
	case errors.Is(err, matchmaking.ErrAlreadyInSession):
		status, code = http.StatusConflict, "already in session"
	case errors.Is(err, matchmaking.ErrInvalidMode), errors.Is(err, matchmaking.ErrUnknownParticipant):
		status, code = http.StatusBadRequest, "validation failed"
	case errors.Is(err, matchmaking.ErrWaitingRoomFailed):
		status, code = http.StatusBadGateway, "waiting room unavailable"
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("Match request failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
