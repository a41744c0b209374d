package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vouchsec/vouch/internal/application"
	"github.com/vouchsec/vouch/internal/domain"
)

const maxBodyBytes = 1 << 20
const maxFrameBytes = 8 << 20

type Handler struct {
	Engine *application.Engine
	Vision *application.VisionService
	Logger zerolog.Logger
}

type startSessionRequest struct {
	Language string `json:"language"`
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
	Status    string `json:"status"`
}

type submitTurnRequest struct {
	Text string `json:"text"`
}

type submitTurnResponse struct {
	Prompt string `json:"prompt"`
	Status string `json:"status"`
	Risk   bool   `json:"risk"`
}

type attachRecordingRequest struct {
	Ref string `json:"ref"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	session, err := h.Engine.Start(r.Context(), req.Language)
	if err != nil {
		h.Logger.Error().Err(err).Msg("start session failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not start session"})
		return
	}

	writeJSON(w, http.StatusCreated, startSessionResponse{
		SessionID: string(session.ID),
		Prompt:    application.OpeningPrompt(session),
		Status:    string(session.Status),
	})
}

func (h *Handler) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session id"})
		return
	}

	var req submitTurnRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	decision, err := h.Engine.Process(r.Context(), id, req.Text)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	case errors.Is(err, domain.ErrSessionTerminal):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "session already resolved, start a new one"})
		return
	case err != nil:
		h.Logger.Error().Err(err).Str("session_id", string(id)).Msg("submit turn failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not process turn"})
		return
	}

	writeJSON(w, http.StatusOK, submitTurnResponse{
		Prompt: decision.Message,
		Status: string(decision.Status),
		Risk:   decision.Risk,
	})
}

func (h *Handler) AnalyzeFrame(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session id"})
		return
	}

	image, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes))
	if err != nil || len(image) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing frame payload"})
		return
	}

	verdict := h.Vision.Analyze(r.Context(), id, image, frameMimeType(r.Header.Get("Content-Type")))
	if verdict == nil {
		// Environment checks are advisory: no verdict is a valid outcome,
		// never an error the client needs to react to.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

// frameMimeType strips any media-type parameters; only the bare type reaches
// the provider as the inline-data mime.
func frameMimeType(contentType string) string {
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return parsed
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))

	session, err := h.Engine.Get(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	case err != nil:
		h.Logger.Error().Err(err).Str("session_id", string(id)).Msg("get session failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load session"})
		return
	}

	writeJSON(w, http.StatusOK, toSessionView(session))
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Engine.List(r.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("list sessions failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list sessions"})
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, toSessionView(session))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

func (h *Handler) AttachRecording(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))

	var req attachRecordingRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Ref == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing recording ref"})
		return
	}

	err := h.Engine.AttachRecording(r.Context(), id, req.Ref)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	case err != nil:
		h.Logger.Error().Err(err).Str("session_id", string(id)).Msg("attach recording failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not attach recording"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sessionView struct {
	SessionID    string            `json:"session_id"`
	Language     string            `json:"language"`
	Status       string            `json:"status"`
	Risk         bool              `json:"risk"`
	Turns        int               `json:"turns"`
	Environment  []environmentView `json:"environment,omitempty"`
	RecordingRef string            `json:"recording_ref,omitempty"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

type environmentView struct {
	At   string `json:"at"`
	Kind string `json:"kind"`
	Note string `json:"note"`
}

func toSessionView(session domain.Session) sessionView {
	environment := make([]environmentView, 0, len(session.Environment))
	for _, event := range session.Environment {
		environment = append(environment, environmentView{
			At:   event.At.UTC().Format(time.RFC3339),
			Kind: string(event.Kind),
			Note: event.Note,
		})
	}

	return sessionView{
		SessionID:    string(session.ID),
		Language:     session.Language,
		Status:       string(session.Status),
		Risk:         session.RiskFlag,
		Turns:        len(session.Turns),
		Environment:  environment,
		RecordingRef: session.RecordingRef,
		CreatedAt:    session.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    session.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
