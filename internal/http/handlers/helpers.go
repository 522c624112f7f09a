package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"agentportal/internal/common"
	"agentportal/internal/http/middleware"
	"agentportal/internal/http/response"
	"agentportal/internal/session"
)

func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return common.NewError(common.CodeValidation, "invalid request body", err)
	}
	return nil
}

// requireSession pulls the session the middleware attached; a missing session
// means the route was wired outside the session chain.
func requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, common.NewError(common.CodeInternal, "session not attached", nil))
		return nil, false
	}
	return sess, true
}

// pathID extracts the numeric id segment from paths like /admin/agents/42 and
// /admin/agents/42/approve.
func pathID(path, prefix string) (int64, error) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.TrimPrefix(rest, "/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewValidationError("invalid request", map[string]string{"id": "invalid agent id"})
	}
	return id, nil
}
