package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avandyck/rostrum/internal/debate"
	rerrors "github.com/avandyck/rostrum/internal/errors"
)

// sessionView is the status representation of a session. It deliberately
// omits the config block: snapshots carry participant credentials in clear
// text and those must never leave the process.
type sessionView struct {
	ID           string               `json:"id"`
	Topic        string               `json:"topic"`
	Background   string               `json:"background,omitempty"`
	Status       debate.Status        `json:"status"`
	Messages     []debate.Turn        `json:"messages"`
	JudgeResults []debate.JudgeResult `json:"judge_results,omitempty"`
	Winner       *debate.Side         `json:"winner"`
	FinalScores  *debate.FinalScores  `json:"final_scores,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
	MaxRounds    int                  `json:"max_rounds"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Progress     debate.Progress      `json:"progress"`
}

func newSessionView(snapshot *debate.Session, progress debate.Progress) *sessionView {
	return &sessionView{
		ID:           snapshot.ID,
		Topic:        snapshot.Topic,
		Background:   snapshot.Background,
		Status:       snapshot.Status,
		Messages:     snapshot.Messages,
		JudgeResults: snapshot.JudgeResults,
		Winner:       snapshot.Winner,
		FinalScores:  snapshot.FinalScores,
		ErrorMessage: snapshot.ErrorMessage,
		MaxRounds:    snapshot.Config.MaxRounds,
		CreatedAt:    snapshot.CreatedAt,
		UpdatedAt:    snapshot.UpdatedAt,
		Progress:     progress,
	}
}

// fieldError is one entry in a 400 response's error list.
type fieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeError maps a store or debate error onto an HTTP status.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case rerrors.IsValidation(err):
		JSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationDetails(err),
		})
	case rerrors.IsNotFound(err):
		Error(w, http.StatusNotFound, err.Error())
	case rerrors.Is(err, rerrors.ErrSessionActive),
		rerrors.Is(err, rerrors.ErrNotResumable),
		rerrors.Is(err, rerrors.ErrAlreadyRunning):
		Error(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
	}
}

// validationDetails flattens joined validation errors into field entries.
func validationDetails(err error) []fieldError {
	var out []fieldError
	var walk func(error)
	walk = func(err error) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var ve *rerrors.ValidationError
		if rerrors.As(err, &ve) {
			out = append(out, fieldError{Field: ve.Field, Message: ve.Message()})
			return
		}
		out = append(out, fieldError{Message: err.Error()})
	}
	walk(err)
	return out
}

// handleCreate validates the request, registers the session, and launches
// the debate. The response returns as soon as the loop is running; progress
// is observed through the status and live endpoints.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req debate.NewSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	manager, err := s.store.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// The debate outlives this request.
	if err := manager.Start(context.WithoutCancel(r.Context())); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("debate created", "session_id", manager.ID())
	JSON(w, http.StatusCreated, map[string]string{"id": manager.ID()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"debates": summaries})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	manager, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, newSessionView(manager.Snapshot(), manager.Progress()))
}

// handleResume relaunches an interrupted session: the round loop for
// in_progress sessions, a fresh panel run for sessions stranded in judging.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	manager, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := manager.Resume(context.WithoutCancel(r.Context())); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("debate resumed", "session_id", manager.ID())
	JSON(w, http.StatusOK, map[string]string{"id": manager.ID(), "status": string(manager.Status())})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Archive(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("debate archived", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}
