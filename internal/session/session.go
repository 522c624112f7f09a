package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"agentportal/internal/common"
)

// Page is the state of the per-session page machine. Transitions happen only
// through Transition, which rejects anything not declared below.
type Page string

const (
	PageLogin            Page = "login"
	PageCreateAccount    Page = "create_account"
	PageAgentInfo        Page = "agent_info"
	PageDashboard        Page = "dashboard"
	PageProfile          Page = "profile"
	PageAdminLogin       Page = "admin_login"
	PageAdminDashboard   Page = "admin_dashboard"
	PageAdminAgentDetail Page = "admin_agent_detail"
	PageTestPage         Page = "test_page"
)

var transitions = map[Page][]Page{
	PageLogin:            {PageCreateAccount, PageAdminLogin, PageDashboard},
	PageCreateAccount:    {PageLogin, PageAgentInfo},
	PageAgentInfo:        {PageProfile},
	PageDashboard:        {PageAgentInfo, PageProfile},
	PageProfile:          {PageAgentInfo},
	PageAdminLogin:       {PageLogin, PageAdminDashboard, PageTestPage},
	PageAdminDashboard:   {PageAdminAgentDetail, PageAdminLogin},
	PageAdminAgentDetail: {PageAdminDashboard},
	PageTestPage:         {PageAdminLogin},
}

func KnownPage(p Page) bool {
	if p == PageLogin {
		return true
	}
	_, ok := transitions[p]
	return ok
}

func (p Page) CanTransition(to Page) bool {
	for _, next := range transitions[p] {
		if next == to {
			return true
		}
	}
	return false
}

// Session is the explicit per-request state object. It replaces global
// mutable page state: created at first contact on the login page, bound to an
// application after login/registration, destroyed at logout.
type Session struct {
	ID             string    `json:"id"`
	Page           Page      `json:"page"`
	AgentDBID      int64     `json:"agent_db_id,omitempty"`
	AgentID        string    `json:"agent_id,omitempty"`
	Email          string    `json:"email,omitempty"`
	ApplicationRef string    `json:"application_ref,omitempty"`
	IsAdmin        bool      `json:"is_admin,omitempty"`
	AdminUser      string    `json:"admin_user,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func New() (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to generate session id", err)
	}
	return &Session{ID: id, Page: PageLogin, CreatedAt: time.Now().UTC()}, nil
}

// Transition moves the page pointer, rejecting undeclared moves.
func (s *Session) Transition(to Page) error {
	if !KnownPage(to) {
		return common.NewValidationError("invalid page", map[string]string{"page": "unknown page"})
	}
	if !s.Page.CanTransition(to) {
		return common.NewValidationError("invalid page transition", map[string]string{
			"page": "cannot navigate from " + string(s.Page) + " to " + string(to),
		})
	}
	s.Page = to
	return nil
}

func (s *Session) Authenticated() bool {
	return s.AgentDBID != 0
}

func generateID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
