package handlers

import (
	"net/http"

	"agentportal/internal/http/response"
	"agentportal/internal/session"
)

type SessionHandler struct {
	sessions session.Store
}

func NewSessionHandler(sessions session.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sessionView struct {
	Page           session.Page `json:"page"`
	AgentID        string       `json:"agent_id,omitempty"`
	Email          string       `json:"email,omitempty"`
	ApplicationRef string       `json:"application_ref,omitempty"`
	IsAdmin        bool         `json:"is_admin,omitempty"`
}

type navigateRequest struct {
	Page string `json:"page"`
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, sessionView{
		Page:           sess.Page,
		AgentID:        sess.AgentID,
		Email:          sess.Email,
		ApplicationRef: sess.ApplicationRef,
		IsAdmin:        sess.IsAdmin,
	})
}

// Navigate moves the session to a declared adjacent page. Undeclared moves are
// rejected without touching the stored session.
func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req navigateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if err := sess.Transition(session.Page(req.Page)); err != nil {
		response.Error(w, err)
		return
	}
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"page": sess.Page})
}
