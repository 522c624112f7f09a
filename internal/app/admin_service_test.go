package app

import (
	"context"
	"strings"
	"testing"

	"agentportal/internal/common"
	"agentportal/internal/domain/agent"
	"agentportal/internal/domain/outbox"
	"agentportal/internal/session"
)

func adminSession() *session.Session {
	sess := newLoginSession()
	sess.ID = "admin-session"
	sess.IsAdmin = true
	sess.AdminUser = "hradmin"
	sess.Page = session.PageAdminDashboard
	return sess
}

func newAdminFixture(t *testing.T) (*AdminService, *fakeAgentRepo, *fakeBlobStore, int64) {
	t.Helper()
	agents := newFakeAgentRepo()
	credentials := newFakeCredentialRepo(agents)
	sessions := newFakeSessionStore()
	blobs := &fakeBlobStore{}
	auth := NewAuthService(credentials, sessions, "hradmin", "secretpass1", nopLogger{})
	agentSvc := NewAgentService(agents, blobs, []string{"hr@x.com"}, nopLogger{})
	svc := NewAdminService(agents, blobs, []string{"hr@x.com"}, nopLogger{})

	sess := newLoginSession()
	_ = sess.Transition(session.PageCreateAccount)
	if _, err := auth.Register(context.Background(), sess, "applicant@x.com", "password123", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := agentSvc.Submit(context.Background(), sess, sessions, validForm()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	return svc, agents, blobs, sess.AgentDBID
}

func TestAdminEndpointsRequireAdminSession(t *testing.T) {
	svc, _, _, id := newAdminFixture(t)
	sess := newLoginSession()

	if _, err := svc.List(context.Background(), sess, agent.Filter{}); !common.Is(err, common.CodeForbidden) {
		t.Fatalf("list: expected forbidden, got %v", err)
	}
	if _, err := svc.Summary(context.Background(), sess); !common.Is(err, common.CodeForbidden) {
		t.Fatalf("summary: expected forbidden, got %v", err)
	}
	if _, err := svc.Detail(context.Background(), sess, id); !common.Is(err, common.CodeForbidden) {
		t.Fatalf("detail: expected forbidden, got %v", err)
	}
	if _, err := svc.Approve(context.Background(), sess, id); !common.Is(err, common.CodeForbidden) {
		t.Fatalf("approve: expected forbidden, got %v", err)
	}
}

func TestAdminListAndSummary(t *testing.T) {
	svc, _, _, _ := newAdminFixture(t)
	sess := adminSession()

	items, err := svc.List(context.Background(), sess, agent.Filter{Status: agent.StatusPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one pending application, got %d", len(items))
	}

	counts, err := svc.Summary(context.Background(), sess)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if counts.Total != 1 || counts.Pending != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	if _, err := svc.List(context.Background(), sess, agent.Filter{Status: "Bogus"}); !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
	if _, err := svc.List(context.Background(), sess, agent.Filter{Region: "Atlantis"}); !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error for unknown region, got %v", err)
	}
}

func TestAdminDetailReissuesDocumentURLs(t *testing.T) {
	svc, _, _, id := newAdminFixture(t)

	detail, err := svc.Detail(context.Background(), adminSession(), id)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	for name, url := range map[string]string{
		"id_document":    detail.Documents.IDDocument,
		"passport_photo": detail.Documents.PassportPhoto,
		"address_proof":  detail.Documents.AddressProof,
	} {
		if url == "" {
			t.Fatalf("%s: expected a reissued url", name)
		}
		if !strings.Contains(url, "token=fresh") {
			t.Fatalf("%s: expected a fresh token, got %q", name, url)
		}
	}
}

func TestAdminDetailOmitsLinksOnSigningFailure(t *testing.T) {
	svc, _, blobs, id := newAdminFixture(t)
	blobs.fail = true

	detail, err := svc.Detail(context.Background(), adminSession(), id)
	if err != nil {
		t.Fatalf("detail must succeed even when signing fails: %v", err)
	}
	if detail.Documents.IDDocument != "" {
		t.Fatal("failed signing should leave the link empty")
	}
	if detail.Agent == nil || detail.Agent.ID != id {
		t.Fatal("record itself must still be returned")
	}
}

func TestApproveFromPending(t *testing.T) {
	svc, agents, _, id := newAdminFixture(t)
	before := len(agents.queuedNotes())

	updated, err := svc.Approve(context.Background(), adminSession(), id)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != agent.StatusApproved {
		t.Fatalf("expected Approved, got %q", updated.Status)
	}

	notes := agents.queuedNotes()
	if len(notes) != before+1 {
		t.Fatalf("expected one decision note, got %d new", len(notes)-before)
	}
	last := notes[len(notes)-1]
	if last.Event != outbox.EventApproved || last.Recipient != "applicant@x.com" {
		t.Fatalf("unexpected decision note: %+v", last)
	}
}

func TestDecisionOnlyFromPending(t *testing.T) {
	svc, agents, _, id := newAdminFixture(t)
	if _, err := svc.Reject(context.Background(), adminSession(), id); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// A second decision must be rejected, in both directions.
	if _, err := svc.Approve(context.Background(), adminSession(), id); !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error approving a rejected application, got %v", err)
	}
	if _, err := svc.Reject(context.Background(), adminSession(), id); !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error rejecting twice, got %v", err)
	}

	record := agents.get(id)
	if record.Status != agent.StatusRejected {
		t.Fatalf("status must stay Rejected, got %q", record.Status)
	}
}

func TestRacingDecisionsOnlyFirstWins(t *testing.T) {
	_, agents, _, id := newAdminFixture(t)

	// Two reviewers read the same Pending record and both write a decision.
	// The status guard in the repository lets only the first through.
	if _, err := agents.UpdateStatus(context.Background(), id, agent.StatusApproved, nil); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	if _, err := agents.UpdateStatus(context.Background(), id, agent.StatusRejected, nil); !common.Is(err, common.CodeConflict) {
		t.Fatalf("expected conflict for the losing decision, got %v", err)
	}

	record := agents.get(id)
	if record.Status != agent.StatusApproved {
		t.Fatalf("status must keep the first decision, got %q", record.Status)
	}
}

func TestDecisionRejectedForIncomplete(t *testing.T) {
	svc, agents, _, _ := newAdminFixture(t)
	incomplete := agents.insert(agent.Agent{
		ApplicationRef: "APP-20260901000000",
		AgentID:        "AVH/ISA/26/00099",
		FirstName:      "Pending",
		Surname:        "Completion",
		Email:          "fresh@x.com",
		Status:         agent.StatusIncomplete,
	})

	if _, err := svc.Approve(context.Background(), adminSession(), incomplete.ID); !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error approving an incomplete application, got %v", err)
	}
}
