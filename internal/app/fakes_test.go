package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agentportal/internal/common"
	"agentportal/internal/domain/agent"
	"agentportal/internal/domain/credential"
	"agentportal/internal/domain/outbox"
	"agentportal/internal/session"
)

type nopLogger struct{}

func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(string) {}

type fakeCredentialRepo struct {
	mu      sync.Mutex
	byEmail map[string]*credential.Credential
	agents  *fakeAgentRepo
	serial  int
}

func newFakeCredentialRepo(agents *fakeAgentRepo) *fakeCredentialRepo {
	return &fakeCredentialRepo{byEmail: make(map[string]*credential.Credential), agents: agents}
}

func (r *fakeCredentialRepo) FindActive(ctx context.Context, email, passwordHash string) (*credential.Login, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.byEmail[email]
	if !ok || !cred.IsActive || cred.PasswordHash != passwordHash {
		return nil, common.NewError(common.CodeNotFound, "credential not found", nil)
	}
	record := r.agents.get(cred.AgentID)
	if record == nil {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	return &credential.Login{
		AgentDBID: record.ID,
		AgentID:   record.AgentID,
		Email:     cred.Email,
		Status:    record.Status,
	}, nil
}

func (r *fakeCredentialRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *fakeCredentialRepo) Register(ctx context.Context, placeholder agent.Agent, passwordHash string) (*agent.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[placeholder.Email]; ok {
		return nil, common.NewError(common.CodeConflict, "An account with this email already exists", nil)
	}
	r.serial++
	placeholder.AgentID = fmt.Sprintf("AVH/ISA/%s/%05d", time.Now().UTC().Format("06"), r.serial)
	created := r.agents.insert(placeholder)
	r.byEmail[placeholder.Email] = &credential.Credential{
		ID:           int64(len(r.byEmail) + 1),
		AgentID:      created.ID,
		Email:        placeholder.Email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	return created, nil
}

type fakeAgentRepo struct {
	mu     sync.Mutex
	byID   map[int64]*agent.Agent
	notes  []outbox.Notification
	nextID int64
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{byID: make(map[int64]*agent.Agent)}
}

func (r *fakeAgentRepo) insert(record agent.Agent) *agent.Agent {
	r.nextID++
	record.ID = r.nextID
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt
	r.byID[record.ID] = &record
	copied := record
	return &copied
}

func (r *fakeAgentRepo) get(id int64) *agent.Agent {
	record, ok := r.byID[id]
	if !ok {
		return nil
	}
	copied := *record
	return &copied
}

func (r *fakeAgentRepo) GetByID(ctx context.Context, id int64) (*agent.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.get(id)
	if record == nil {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	return record, nil
}

func (r *fakeAgentRepo) List(ctx context.Context, filter agent.Filter) ([]agent.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []agent.Summary
	for _, record := range r.byID {
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if filter.Region != "" && record.Region != filter.Region {
			continue
		}
		items = append(items, agent.Summary{
			ID:        record.ID,
			FirstName: record.FirstName,
			Surname:   record.Surname,
			AgentID:   record.AgentID,
			Email:     record.Email,
			Status:    record.Status,
			State:     record.State,
			Region:    record.Region,
		})
	}
	return items, nil
}

func (r *fakeAgentRepo) CountByStatus(ctx context.Context) (*agent.StatusCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := &agent.StatusCounts{}
	for _, record := range r.byID {
		counts.Total++
		switch record.Status {
		case agent.StatusIncomplete:
			counts.Incomplete++
		case agent.StatusPending:
			counts.Pending++
		case agent.StatusApproved:
			counts.Approved++
		case agent.StatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func (r *fakeAgentRepo) SubmitProfile(ctx context.Context, record agent.Agent, notes []outbox.Notification) (*agent.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[record.ID]; !ok {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	record.UpdatedAt = time.Now().UTC()
	stored := record
	r.byID[record.ID] = &stored
	r.notes = append(r.notes, notes...)
	copied := record
	return &copied, nil
}

func (r *fakeAgentRepo) UpdateStatus(ctx context.Context, id int64, status agent.Status, notes []outbox.Notification) (*agent.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.byID[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	if record.Status != agent.StatusPending {
		return nil, common.NewError(common.CodeConflict, "application is not pending review", nil)
	}
	record.Status = status
	record.UpdatedAt = time.Now().UTC()
	r.notes = append(r.notes, notes...)
	copied := *record
	return &copied, nil
}

func (r *fakeAgentRepo) queuedNotes() []outbox.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]outbox.Notification, len(r.notes))
	copy(out, r.notes)
	return out
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	deleted  []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*session.Session)}
}

func (s *fakeSessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "session not found", nil)
	}
	copied := *sess
	return &copied, nil
}

func (s *fakeSessionStore) Save(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	s.sessions[sess.ID] = &copied
	return nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	uploads []string
	fail    bool
}

func (s *fakeBlobStore) Upload(ctx context.Context, data []byte, filename, category, applicationRef string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", "", common.NewError(common.CodeInternal, "storage unavailable", nil)
	}
	objectPath := category + "/" + applicationRef + "_" + category + "_test." + filename
	s.uploads = append(s.uploads, objectPath)
	return "https://storage.test/" + objectPath + "?token=abc", objectPath, nil
}

func (s *fakeBlobStore) ReissueAccessURL(pathOrURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", common.NewError(common.CodeInternal, "storage unavailable", nil)
	}
	return "https://storage.test/" + pathOrURL + "?token=fresh", nil
}

type fakeOutboxRepo struct {
	mu      sync.Mutex
	pending []outbox.Notification
	sent    []int64
	failed  []int64
	listErr error
}

func (r *fakeOutboxRepo) ListPending(ctx context.Context, limit int) ([]outbox.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	if len(r.pending) > limit {
		return append([]outbox.Notification(nil), r.pending[:limit]...), nil
	}
	return append([]outbox.Notification(nil), r.pending...), nil
}

func (r *fakeOutboxRepo) MarkSent(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id int64, maxAttempts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, id)
	return nil
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []outbox.Notification
	failNext bool
}

func (s *fakeSender) Send(note outbox.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return common.NewError(common.CodeUnavailable, "smtp down", nil)
	}
	s.sent = append(s.sent, note)
	return nil
}

func newLoginSession() *session.Session {
	return &session.Session{ID: "test-session", Page: session.PageLogin, CreatedAt: time.Now().UTC()}
}
