package middleware

import (
	"context"
	"net/http"

	"agentportal/internal/common"
	"agentportal/internal/http/response"
	"agentportal/internal/session"
)

type contextKey string

const ContextSessionKey contextKey = "session"

const SessionCookieName = "session_id"

type SessionMiddleware struct {
	store  session.Store
	secure bool
}

func NewSessionMiddleware(store session.Store, secure bool) *SessionMiddleware {
	return &SessionMiddleware{store: store, secure: secure}
}

// Attach loads the session named by the request cookie, or starts a fresh one
// on the login page when the cookie is absent or expired. The session is
// placed in the request context and the cookie refreshed on every response.
func (m *SessionMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
			loaded, err := m.store.Get(r.Context(), cookie.Value)
			switch {
			case err == nil:
				sess = loaded
			case common.Is(err, common.CodeNotFound):
				// expired or evicted; fall through to a fresh session
			default:
				response.Error(w, err)
				return
			}
		}
		if sess == nil {
			fresh, err := session.New()
			if err != nil {
				response.Error(w, err)
				return
			}
			sess = fresh
			if err := m.store.Save(r.Context(), sess); err != nil {
				response.Error(w, err)
				return
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		ctx := context.WithValue(r.Context(), ContextSessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok || !sess.IsAdmin {
			response.Error(w, common.NewError(common.CodeForbidden, "Unauthorized access. Please log in as admin.", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(ContextSessionKey).(*session.Session)
	return sess, ok
}
