package handlers

import (
	"context"
	"net/http"
	"strings"

	"agentportal/internal/app"
	"agentportal/internal/domain/agent"
	"agentportal/internal/http/response"
	"agentportal/internal/session"
)

type AdminHandler struct {
	admin *app.AdminService
}

func NewAdminHandler(admin *app.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// List serves the review panel with optional status, region and search
// filters taken from the query string.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	filter := agent.Filter{
		Status: agent.Status(strings.TrimSpace(query.Get("status"))),
		Region: strings.TrimSpace(query.Get("region")),
		Search: strings.TrimSpace(query.Get("search")),
	}
	items, err := h.admin.List(r.Context(), sess, filter)
	if err != nil {
		response.Error(w, err)
		return
	}
	if items == nil {
		items = []agent.Summary{}
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"agents": items, "count": len(items)})
}

func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	counts, err := h.admin.Summary(r.Context(), sess)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, counts)
}

func (h *AdminHandler) Detail(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathID(r.URL.Path, "/admin/agents")
	if err != nil {
		response.Error(w, err)
		return
	}
	detail, err := h.admin.Detail(r.Context(), sess, id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, detail)
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.admin.Approve)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.admin.Reject)
}

func (h *AdminHandler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, *session.Session, int64) (*agent.Agent, error)) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathID(r.URL.Path, "/admin/agents")
	if err != nil {
		response.Error(w, err)
		return
	}
	updated, err := fn(r.Context(), sess, id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"agent_id": updated.AgentID,
		"status":   updated.Status,
	})
}
