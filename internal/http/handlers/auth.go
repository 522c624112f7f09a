package handlers

import (
	"net/http"
	"time"

	"agentportal/internal/app"
	"agentportal/internal/common"
	"agentportal/internal/http/middleware"
	"agentportal/internal/http/response"
)

type AuthHandler struct {
	auth    *app.AuthService
	limiter middleware.Limiter
}

func NewAuthHandler(auth *app.AuthService, limiter middleware.Limiter) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if !h.allow(w, r, "register") {
		return
	}
	created, err := h.auth.Register(r.Context(), sess, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"agent_id":        created.AgentID,
		"application_ref": created.ApplicationRef,
		"status":          created.Status,
		"page":            sess.Page,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if !h.allow(w, r, "login") {
		return
	}
	login, err := h.auth.Login(r.Context(), sess, req.Email, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"agent_id": login.AgentID,
		"status":   login.Status,
		"page":     sess.Page,
	})
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if !h.allow(w, r, "admin-login") {
		return
	}
	if err := h.auth.AdminLogin(r.Context(), sess, req.Username, req.Password); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"page": sess.Page})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := h.auth.Logout(r.Context(), sess); err != nil {
		response.Error(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	response.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthHandler) allow(w http.ResponseWriter, r *http.Request, action string) bool {
	if h.limiter == nil {
		return true
	}
	key := action + ":ip:" + middleware.ClientIP(r)
	if !h.limiter.Allow(key, 10, time.Minute) {
		response.Error(w, common.NewError(common.CodeRateLimited, "too many attempts, try again later", nil))
		return false
	}
	return true
}
