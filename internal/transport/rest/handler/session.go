package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"quizrumble/internal/model"
	"quizrumble/internal/service"
	"quizrumble/internal/transport/rest/middleware"
)

// SessionHandler handles session lifecycle endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	SettingsOverride *model.SessionSettings `json:"settingsOverride,omitempty"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	if hostID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.CreateSession(r.Context(), hostID, req.SettingsOverride)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// JoinRequest is the request body for joining a session
type JoinRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

// Join handles POST /v1/sessions/{code}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "team name is required")
		return
	}

	resp, err := h.sessionSvc.JoinSession(r.Context(), code, req.Name, req.Members)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Start handles POST /v1/sessions/{sessionId}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	hostID := middleware.GetHostID(r.Context())

	session, err := h.sessionSvc.StartSession(r.Context(), sessionID, hostID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// AdvanceRequest carries the phase the caller last observed.
type AdvanceRequest struct {
	From model.Phase `json:"from"`
}

// Advance handles POST /v1/sessions/{sessionId}/advance. The host supplies
// the phase it is looking at; a stale view gets a conflict, not a skip.
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.AdvancePhase(r.Context(), sessionID, req.From)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// PauseRequest selects pausing or resuming.
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// Pause handles POST /v1/sessions/{sessionId}/pause
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	hostID := middleware.GetHostID(r.Context())

	var req PauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.PauseSession(r.Context(), sessionID, hostID, req.Paused)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// End handles POST /v1/sessions/{sessionId}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	hostID := middleware.GetHostID(r.Context())

	session, err := h.sessionSvc.EndSession(r.Context(), sessionID, hostID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Kick handles POST /v1/sessions/{sessionId}/teams/{teamId}/kick
func (h *SessionHandler) Kick(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hostID := middleware.GetHostID(r.Context())

	if err := h.sessionSvc.KickTeam(r.Context(), vars["sessionId"], vars["teamId"], hostID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// Ban handles POST /v1/sessions/{sessionId}/teams/{teamId}/ban
func (h *SessionHandler) Ban(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hostID := middleware.GetHostID(r.Context())

	if err := h.sessionSvc.BanTeam(r.Context(), vars["sessionId"], vars["teamId"], hostID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "banned"})
}

// Leaderboard handles GET /v1/sessions/{sessionId}/leaderboard
func (h *SessionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	standings, err := h.sessionSvc.GetLeaderboard(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": standings})
}

// State handles GET /v1/sessions/{sessionId}/state. Team tokens get their own
// submissions echoed back for reconnect.
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	teamID := middleware.GetTeamID(r.Context())

	state, err := h.sessionSvc.GetSessionState(r.Context(), sessionID, teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}
