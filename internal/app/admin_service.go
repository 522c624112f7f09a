package app

import (
	"context"
	"strings"
	"time"

	"agentportal/internal/blob"
	"agentportal/internal/common"
	"agentportal/internal/domain/agent"
	"agentportal/internal/domain/outbox"
	"agentportal/internal/session"
)

type AdminService struct {
	agents    agent.Repository
	blobs     blob.Store
	reviewers []string
	logger    Logger
}

func NewAdminService(agents agent.Repository, blobs blob.Store, reviewers []string, logger Logger) *AdminService {
	return &AdminService{agents: agents, blobs: blobs, reviewers: reviewers, logger: logger}
}

func (s *AdminService) requireAdmin(sess *session.Session) error {
	if !sess.IsAdmin {
		return common.NewError(common.CodeForbidden, "Unauthorized access. Please log in as admin.", nil)
	}
	return nil
}

func (s *AdminService) List(ctx context.Context, sess *session.Session, filter agent.Filter) ([]agent.Summary, error) {
	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}
	if filter.Status != "" && !agent.KnownStatus(filter.Status) {
		return nil, common.NewValidationError("invalid filter", map[string]string{"status": "unknown status"})
	}
	if filter.Region != "" && !agent.InList(filter.Region, agent.Regions) {
		return nil, common.NewValidationError("invalid filter", map[string]string{"region": "unknown region"})
	}
	return s.agents.List(ctx, filter)
}

func (s *AdminService) Summary(ctx context.Context, sess *session.Session) (*agent.StatusCounts, error) {
	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.agents.CountByStatus(ctx)
}

// DocumentLinks carries the freshly issued 24-hour view URLs for the detail
// page. Missing documents and signing failures leave the link empty.
type DocumentLinks struct {
	IDDocument    string `json:"id_document,omitempty"`
	PassportPhoto string `json:"passport_photo,omitempty"`
	AddressProof  string `json:"address_proof,omitempty"`
}

type AgentDetail struct {
	Agent     *agent.Agent  `json:"agent"`
	Documents DocumentLinks `json:"documents"`
}

// Detail re-fetches a single record and reissues a short-lived URL per
// uploaded document, so reviewers never hold a long-lived link.
func (s *AdminService) Detail(ctx context.Context, sess *session.Session, id int64) (*AgentDetail, error) {
	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}
	record, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &AgentDetail{Agent: record}
	detail.Documents.IDDocument = s.reissue(record.IDDocument)
	detail.Documents.PassportPhoto = s.reissue(record.PassportPhoto)
	detail.Documents.AddressProof = s.reissue(record.AddressProof)
	return detail, nil
}

func (s *AdminService) reissue(doc agent.Document) string {
	if !doc.Uploaded() {
		return ""
	}
	url, err := s.blobs.ReissueAccessURL(doc.Path)
	if err != nil {
		s.logger.Warn("unable to generate access url for " + doc.Path)
		return ""
	}
	return url
}

func (s *AdminService) Approve(ctx context.Context, sess *session.Session, id int64) (*agent.Agent, error) {
	return s.decide(ctx, sess, id, agent.StatusApproved, outbox.EventApproved)
}

func (s *AdminService) Reject(ctx context.Context, sess *session.Session, id int64) (*agent.Agent, error) {
	return s.decide(ctx, sess, id, agent.StatusRejected, outbox.EventRejected)
}

// decide applies an approve/reject transition. Only Pending applications can
// be decided; Approved and Rejected are terminal.
func (s *AdminService) decide(ctx context.Context, sess *session.Session, id int64, status agent.Status, event outbox.Event) (*agent.Agent, error) {
	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}
	record, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanTransition(status) {
		return nil, common.NewValidationError("invalid status transition", map[string]string{
			"status": "application is not pending review",
		})
	}

	note := outbox.Notification{
		AgentID:   record.ID,
		Event:     event,
		Recipient: record.Email,
		Payload: map[string]string{
			"Name":           record.FullName(),
			"ApplicationRef": record.ApplicationRef,
			"AgentID":        record.AgentID,
			"DecidedAt":      time.Now().UTC().Format(time.RFC3339),
		},
	}
	updated, err := s.agents.UpdateStatus(ctx, id, status, []outbox.Notification{note})
	if err != nil {
		return nil, err
	}
	s.logger.Info("application " + strings.ToLower(string(status)) + " agent_id=" + updated.AgentID + " by=" + sess.AdminUser)
	return updated, nil
}
