package http

import (
	"net/http"
	"strings"
	"time"

	"agentportal/internal/http/handlers"
	httpmw "agentportal/internal/http/middleware"
)

type RouterDependencies struct {
	AuthHandler    *handlers.AuthHandler
	SessionHandler *handlers.SessionHandler
	AgentHandler   *handlers.AgentHandler
	AdminHandler   *handlers.AdminHandler
	Sessions       *httpmw.SessionMiddleware
	Limiter        httpmw.Limiter
	RequestTimeout time.Duration
}

type Router struct {
	deps RouterDependencies
}

const (
	maxBodyBytes = 1 << 20
	// The application form carries up to three document uploads.
	maxFormBodyBytes = 16 << 20
)

func NewRouter(deps RouterDependencies) http.Handler {
	return &Router{deps: deps}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	limit := int64(maxBodyBytes)
	if req.Method == http.MethodPost && req.URL.Path == "/agents/profile" {
		limit = maxFormBodyBytes
	}
	handler := httpmw.Chain(r.baseHandler(), httpmw.RequestID, httpmw.Logging, httpmw.BodyLimit(limit), httpmw.Recover, httpmw.Timeout(r.deps.RequestTimeout))
	handler.ServeHTTP(w, req)
}

func (r *Router) baseHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		if req.Method == http.MethodGet && path == "/health" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		// Everything else runs with a session attached.
		withSession := r.deps.Sessions.Attach(http.HandlerFunc(r.handleSession))
		withSession.ServeHTTP(w, req)
	})
}

func (r *Router) handleSession(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path

	switch {
	case req.Method == http.MethodGet && path == "/session":
		r.deps.SessionHandler.Get(w, req)
		return
	case req.Method == http.MethodPost && path == "/session/navigate":
		r.deps.SessionHandler.Navigate(w, req)
		return
	case req.Method == http.MethodPost && path == "/auth/register":
		r.deps.AuthHandler.Register(w, req)
		return
	case req.Method == http.MethodPost && path == "/auth/login":
		r.deps.AuthHandler.Login(w, req)
		return
	case req.Method == http.MethodPost && path == "/auth/logout":
		r.deps.AuthHandler.Logout(w, req)
		return
	case req.Method == http.MethodPost && path == "/admin/login":
		r.deps.AuthHandler.AdminLogin(w, req)
		return
	case req.Method == http.MethodGet && path == "/form/options":
		r.deps.AgentHandler.Options(w, req)
		return
	case req.Method == http.MethodGet && path == "/agents/profile":
		r.deps.AgentHandler.Profile(w, req)
		return
	case req.Method == http.MethodPost && path == "/agents/profile":
		// Document uploads are the most expensive request; throttled per IP.
		limited := httpmw.RateLimit(r.deps.Limiter, submitKey, 30, time.Minute)(http.HandlerFunc(r.deps.AgentHandler.Submit))
		limited.ServeHTTP(w, req)
		return
	}

	if strings.HasPrefix(path, "/admin/") || strings.HasPrefix(path, "/test/") {
		protected := httpmw.RequireAdmin(http.HandlerFunc(r.handleAdmin))
		protected.ServeHTTP(w, req)
		return
	}

	http.NotFound(w, req)
}

func submitKey(req *http.Request) string {
	return "submit:ip:" + httpmw.ClientIP(req)
}

func (r *Router) handleAdmin(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path

	switch {
	case req.Method == http.MethodGet && path == "/admin/agents":
		r.deps.AdminHandler.List(w, req)
		return
	case req.Method == http.MethodGet && path == "/admin/agents/summary":
		r.deps.AdminHandler.Summary(w, req)
		return
	case req.Method == http.MethodPost && strings.HasPrefix(path, "/admin/agents/") && strings.HasSuffix(path, "/approve"):
		r.deps.AdminHandler.Approve(w, req)
		return
	case req.Method == http.MethodPost && strings.HasPrefix(path, "/admin/agents/") && strings.HasSuffix(path, "/reject"):
		r.deps.AdminHandler.Reject(w, req)
		return
	case req.Method == http.MethodGet && strings.HasPrefix(path, "/admin/agents/"):
		r.deps.AdminHandler.Detail(w, req)
		return
	case req.Method == http.MethodGet && path == "/test/ping":
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
		return
	}

	http.NotFound(w, req)
}
