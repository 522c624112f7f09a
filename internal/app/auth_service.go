package app

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"agentportal/internal/common"
	"agentportal/internal/domain/agent"
	"agentportal/internal/domain/credential"
	"agentportal/internal/session"
)

type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

const minPasswordLength = 8

// invalidCredentialMessage is deliberately identical for unknown emails and
// wrong passwords.
const invalidCredentialMessage = "Invalid email or password"

type AuthService struct {
	credentials   credential.Repository
	sessions      session.Store
	adminLogin    string
	adminPassword string
	logger        Logger
}

func NewAuthService(credentials credential.Repository, sessions session.Store, adminLogin, adminPassword string, logger Logger) *AuthService {
	return &AuthService{
		credentials:   credentials,
		sessions:      sessions,
		adminLogin:    adminLogin,
		adminPassword: adminPassword,
		logger:        logger,
	}
}

// Register validates the account fields, creates the placeholder application
// record plus its credential row and binds the session to the new applicant.
func (s *AuthService) Register(ctx context.Context, sess *session.Session, email, password, confirm string) (*agent.Agent, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "email is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if confirm == "" {
		fields["confirm_password"] = "password confirmation is required"
	}
	if password != "" && confirm != "" && password != confirm {
		fields["confirm_password"] = "passwords do not match"
	}
	if password != "" && len(password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError("invalid registration", fields)
	}

	// Checked before the insert: a session that cannot move to the form page
	// must not leave a created account behind.
	if err := sess.Transition(session.PageAgentInfo); err != nil {
		return nil, err
	}

	exists, err := s.credentials.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.NewError(common.CodeConflict, "An account with this email already exists", nil)
	}

	now := time.Now().UTC()
	placeholder := agent.Agent{
		ApplicationRef: applicationRef(now),
		FirstName:      "Pending",
		Surname:        "Completion",
		DateOfBirth:    time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		MobileNumber:   "00000000000",
		Email:          email,
		Status:         agent.StatusIncomplete,
		CreatedBy:      email,
	}
	created, err := s.credentials.Register(ctx, placeholder, hashPassword(password))
	if err != nil {
		return nil, err
	}

	sess.AgentDBID = created.ID
	sess.AgentID = created.AgentID
	sess.Email = created.Email
	sess.ApplicationRef = created.ApplicationRef
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("applicant registered agent_id=" + created.AgentID)
	return created, nil
}

// Login matches (email, password hash, active) and binds the session. Unknown
// email and wrong password yield the same generic error.
func (s *AuthService) Login(ctx context.Context, sess *session.Session, email, password string) (*credential.Login, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "email is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError("invalid login", fields)
	}

	login, err := s.credentials.FindActive(ctx, email, hashPassword(password))
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return nil, common.NewError(common.CodeUnauthorized, invalidCredentialMessage, nil)
		}
		return nil, err
	}

	sess.AgentDBID = login.AgentDBID
	sess.AgentID = login.AgentID
	sess.Email = login.Email
	sess.ApplicationRef = applicationRef(time.Now().UTC())
	if err := sess.Transition(session.PageDashboard); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("applicant logged in agent_id=" + login.AgentID)
	return login, nil
}

// AdminLogin is a static credential comparison against configured values.
func (s *AuthService) AdminLogin(ctx context.Context, sess *session.Session, username, password string) error {
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "username is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return common.NewValidationError("invalid admin login", fields)
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminLogin)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
	if !userOK || !passOK {
		return common.NewError(common.CodeUnauthorized, "Invalid admin credentials", nil)
	}

	sess.IsAdmin = true
	sess.AdminUser = username
	if err := sess.Transition(session.PageAdminDashboard); err != nil {
		return err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return err
	}
	s.logger.Info("admin logged in user=" + username)
	return nil
}

// Logout destroys the session entirely; the next request starts a fresh one
// on the login page.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return err
	}
	s.logger.Info("session ended")
	return nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func applicationRef(now time.Time) string {
	return "APP-" + now.Format("20060102150405")
}
