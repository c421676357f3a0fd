package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"quizrumble/internal/service"
	"quizrumble/internal/transport/rest/middleware"
)

// LedgerHandler handles answer, vote and category-pick endpoints
type LedgerHandler struct {
	ledgerSvc *service.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerSvc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// requireSession checks that the team token is scoped to the session in the
// path.
func requireSession(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	sessionID := mux.Vars(r)["sessionId"]
	teamID := middleware.GetTeamID(r.Context())
	if teamID == "" || middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return "", "", false
	}
	return sessionID, teamID, true
}

// SubmitAnswerRequest is the request body for submitting an answer
type SubmitAnswerRequest struct {
	Text string `json:"text"`
}

// SubmitAnswer handles POST /v1/sessions/{sessionId}/answers
func (h *LedgerHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID, teamID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "answer text is required")
		return
	}

	answer, err := h.ledgerSvc.SubmitAnswer(r.Context(), sessionID, teamID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if answer == nil {
		// Session over; acknowledge and let the client move on.
		writeJSON(w, http.StatusOK, map[string]string{"status": "session_ended"})
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// SubmitVoteRequest is the request body for casting a vote
type SubmitVoteRequest struct {
	AnswerID string `json:"answerId"`
}

// SubmitVote handles POST /v1/sessions/{sessionId}/votes
func (h *LedgerHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	sessionID, teamID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AnswerID == "" {
		writeError(w, http.StatusBadRequest, "answerId is required")
		return
	}

	vote, err := h.ledgerSvc.SubmitVote(r.Context(), sessionID, teamID, req.AnswerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if vote == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "session_ended"})
		return
	}

	writeJSON(w, http.StatusOK, vote)
}

// SelectCategoryRequest is the request body for redeeming a board slot
type SelectCategoryRequest struct {
	CategoryID string `json:"categoryId"`
	SlotIndex  int    `json:"slotIndex"`
}

// SelectCategory handles POST /v1/sessions/{sessionId}/category
func (h *LedgerHandler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	sessionID, teamID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req SelectCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CategoryID == "" {
		writeError(w, http.StatusBadRequest, "categoryId is required")
		return
	}

	group, err := h.ledgerSvc.SelectCategorySlot(r.Context(), sessionID, teamID, req.CategoryID, req.SlotIndex)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if group == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "session_ended"})
		return
	}

	writeJSON(w, http.StatusOK, group)
}
