package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"agentportal/internal/common"
	"agentportal/internal/domain/agent"
	"agentportal/internal/domain/outbox"
	"agentportal/internal/session"
)

func validForm() ProfileForm {
	return ProfileForm{
		Prefix:             "Mr",
		FirstName:          "Ade",
		Surname:            "Okafor",
		DateOfBirth:        time.Date(1992, 4, 15, 0, 0, 0, 0, time.UTC),
		Gender:             "Male",
		MaritalStatus:      "Single",
		MobileNumber:       "08012345678",
		ResidentialAddress: "12 Marina Road, Lagos",
		State:              "Lagos",
		LGA:                "Ikeja",
		NOKName:            "Ngozi Okafor",
		NOKRelationship:    "Sibling",
		NOKContact:         "08087654321",
		IDType:             "NIN",
		IDNumber:           "12345678901",
		BankName:           "Zenith Bank",
		AccountNumber:      "0123456789",
		AccountName:        "Ade Okafor",
		Region:             "West",
		IDDocument:         &FileUpload{Filename: "id.pdf", Data: []byte("pdf-bytes")},
		PassportPhoto:      &FileUpload{Filename: "photo.jpg", Data: []byte("jpg-bytes")},
		AddressProof:       &FileUpload{Filename: "bill.pdf", Data: []byte("pdf-bytes")},
	}
}

func newAgentFixture(t *testing.T) (*AgentService, *fakeAgentRepo, *fakeBlobStore, *fakeSessionStore, *session.Session) {
	t.Helper()
	agents := newFakeAgentRepo()
	credentials := newFakeCredentialRepo(agents)
	sessions := newFakeSessionStore()
	blobs := &fakeBlobStore{}
	auth := NewAuthService(credentials, sessions, "admin", "secretpass1", nopLogger{})
	svc := NewAgentService(agents, blobs, []string{"hr@x.com", "ops@x.com"}, nopLogger{})

	sess := newLoginSession()
	if err := sess.Transition(session.PageCreateAccount); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := auth.Register(context.Background(), sess, "applicant@x.com", "password123", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	return svc, agents, blobs, sessions, sess
}

func TestSubmitFirstSubmission(t *testing.T) {
	svc, agents, blobs, sessions, sess := newAgentFixture(t)

	updated, err := svc.Submit(context.Background(), sess, sessions, validForm())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if updated.Status != agent.StatusPending {
		t.Fatalf("expected Pending, got %q", updated.Status)
	}
	if updated.SubmittedDate == nil {
		t.Fatal("submitted date not set")
	}
	if !updated.IDDocument.Uploaded() || !updated.PassportPhoto.Uploaded() || !updated.AddressProof.Uploaded() {
		t.Fatal("all three documents should be stored")
	}
	if len(blobs.uploads) != 3 {
		t.Fatalf("expected 3 uploads, got %d", len(blobs.uploads))
	}
	if sess.Page != session.PageProfile {
		t.Fatalf("expected profile page, got %q", sess.Page)
	}

	notes := agents.queuedNotes()
	if len(notes) != 2 {
		t.Fatalf("expected welcome + reviewer alert, got %d notes", len(notes))
	}
	if notes[0].Event != outbox.EventWelcome || notes[0].Recipient != "applicant@x.com" {
		t.Fatalf("unexpected first note: %+v", notes[0])
	}
	if notes[1].Event != outbox.EventNewApplication || notes[1].Recipient != "hr@x.com,ops@x.com" {
		t.Fatalf("unexpected reviewer note: %+v", notes[1])
	}
}

func TestResubmissionSendsUpdateMailOnly(t *testing.T) {
	svc, agents, _, sessions, sess := newAgentFixture(t)

	if _, err := svc.Submit(context.Background(), sess, sessions, validForm()); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Back to the form page, then resubmit without new files.
	if err := sess.Transition(session.PageAgentInfo); err != nil {
		t.Fatalf("transition: %v", err)
	}
	form := validForm()
	form.IDDocument = nil
	form.PassportPhoto = nil
	form.AddressProof = nil
	form.LGA = "Surulere"
	updated, err := svc.Submit(context.Background(), sess, sessions, form)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if updated.LGA != "Surulere" {
		t.Fatalf("resubmission did not apply changes, lga=%q", updated.LGA)
	}
	if !updated.IDDocument.Uploaded() {
		t.Fatal("existing document reference must survive a resubmission without files")
	}

	notes := agents.queuedNotes()
	if len(notes) != 4 {
		t.Fatalf("expected 4 notes total, got %d", len(notes))
	}
	for _, note := range notes[2:] {
		if note.Event == outbox.EventWelcome {
			t.Fatal("resubmission must not queue a welcome mail")
		}
	}
	if notes[2].Event != outbox.EventUpdateApplicant || notes[3].Event != outbox.EventUpdateReviewers {
		t.Fatalf("unexpected resubmission notes: %v %v", notes[2].Event, notes[3].Event)
	}
}

func TestReuploadReplacesDocumentReference(t *testing.T) {
	svc, agents, blobs, sessions, sess := newAgentFixture(t)

	first, err := svc.Submit(context.Background(), sess, sessions, validForm())
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	firstPath := first.PassportPhoto.Path

	_ = sess.Transition(session.PageAgentInfo)
	form := validForm()
	form.IDDocument = nil
	form.AddressProof = nil
	form.PassportPhoto = &FileUpload{Filename: "newer.png", Data: []byte("png-bytes")}
	second, err := svc.Submit(context.Background(), sess, sessions, form)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.PassportPhoto.Path == firstPath {
		t.Fatal("re-upload should replace the stored reference")
	}
	if len(blobs.uploads) != 4 {
		t.Fatalf("expected 4 uploads total, got %d", len(blobs.uploads))
	}
	record := agents.get(second.ID)
	if record.IDDocument.Path == "" {
		t.Fatal("untouched document must keep its reference")
	}
}

func TestSubmitCollectsAllViolations(t *testing.T) {
	svc, agents, _, sessions, sess := newAgentFixture(t)

	form := validForm()
	form.MobileNumber = ""
	form.AccountNumber = "12345"
	_, err := svc.Submit(context.Background(), sess, sessions, form)
	if !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *common.Error
	if !errors.As(err, &verr) {
		t.Fatal("expected coded error")
	}
	if verr.Fields["mobile_number"] != "Mobile number must be 11 digits" {
		t.Fatalf("missing mobile violation: %v", verr.Fields)
	}
	if verr.Fields["account_number"] != "Account number must be 10 digits" {
		t.Fatalf("missing account violation: %v", verr.Fields)
	}

	record := agents.get(sess.AgentDBID)
	if record.Status != agent.StatusIncomplete {
		t.Fatal("invalid form must not change the stored record")
	}
	if len(agents.queuedNotes()) != 0 {
		t.Fatal("invalid form must not queue mail")
	}
}

func TestSubmitRejectsShortMobileEveryLength(t *testing.T) {
	svc, _, _, sessions, sess := newAgentFixture(t)
	for _, mobile := range []string{"", "080", "0801234567", "080123456789"} {
		form := validForm()
		form.MobileNumber = mobile
		_, err := svc.Submit(context.Background(), sess, sessions, form)
		var verr *common.Error
		if !errors.As(err, &verr) || verr.Fields["mobile_number"] == "" {
			t.Fatalf("mobile %q: expected mobile violation, got %v", mobile, err)
		}
	}
}

func TestSubmitRejectsUnderage(t *testing.T) {
	svc, _, _, sessions, sess := newAgentFixture(t)
	form := validForm()
	form.DateOfBirth = time.Now().UTC().AddDate(-17, 0, 0)
	_, err := svc.Submit(context.Background(), sess, sessions, form)
	var verr *common.Error
	if !errors.As(err, &verr) || verr.Fields["date_of_birth"] == "" {
		t.Fatalf("expected date_of_birth violation, got %v", err)
	}
}

func TestSubmitRejectsOversizedAndWrongTypeFiles(t *testing.T) {
	svc, _, _, sessions, sess := newAgentFixture(t)

	form := validForm()
	form.PassportPhoto = &FileUpload{Filename: "huge.jpg", Data: make([]byte, 3*1024*1024)}
	_, err := svc.Submit(context.Background(), sess, sessions, form)
	var verr *common.Error
	if !errors.As(err, &verr) || verr.Fields["passport_photo"] == "" {
		t.Fatalf("expected oversized photo violation, got %v", err)
	}

	form = validForm()
	form.PassportPhoto = &FileUpload{Filename: "photo.pdf", Data: []byte("pdf")}
	_, err = svc.Submit(context.Background(), sess, sessions, form)
	if !errors.As(err, &verr) || verr.Fields["passport_photo"] == "" {
		t.Fatalf("expected photo type violation, got %v", err)
	}
}

func TestSubmitAfterDecisionForbidden(t *testing.T) {
	svc, agents, _, sessions, sess := newAgentFixture(t)
	if _, err := svc.Submit(context.Background(), sess, sessions, validForm()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := agents.UpdateStatus(context.Background(), sess.AgentDBID, agent.StatusApproved, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_ = sess.Transition(session.PageAgentInfo)
	_, err := svc.Submit(context.Background(), sess, sessions, validForm())
	if !common.Is(err, common.CodeForbidden) {
		t.Fatalf("expected forbidden after decision, got %v", err)
	}
}

func TestSubmitFromUndeclaredPageWritesNothing(t *testing.T) {
	svc, agents, blobs, sessions, sess := newAgentFixture(t)
	sess.Page = session.PageCreateAccount

	_, err := svc.Submit(context.Background(), sess, sessions, validForm())
	if !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected rejected page move, got %v", err)
	}
	record := agents.get(sess.AgentDBID)
	if record.Status != agent.StatusIncomplete || record.FirstName != "Pending" {
		t.Fatalf("rejected navigation must not change the record, got %q/%q", record.Status, record.FirstName)
	}
	if len(agents.queuedNotes()) != 0 {
		t.Fatal("rejected navigation must not queue mail")
	}
	if len(blobs.uploads) != 0 {
		t.Fatal("rejected navigation must not upload documents")
	}
}

func TestResubmitFromProfilePageIsNoOpMove(t *testing.T) {
	svc, agents, _, sessions, sess := newAgentFixture(t)
	if _, err := svc.Submit(context.Background(), sess, sessions, validForm()); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if sess.Page != session.PageProfile {
		t.Fatalf("expected profile page, got %q", sess.Page)
	}

	// Resubmit without navigating away first.
	form := validForm()
	form.IDDocument, form.PassportPhoto, form.AddressProof = nil, nil, nil
	form.LGA = "Epe"
	updated, err := svc.Submit(context.Background(), sess, sessions, form)
	if err != nil {
		t.Fatalf("resubmit from profile page: %v", err)
	}
	if updated.LGA != "Epe" {
		t.Fatalf("resubmission not applied, lga=%q", updated.LGA)
	}
	if sess.Page != session.PageProfile {
		t.Fatalf("page must stay profile, got %q", sess.Page)
	}
	record := agents.get(sess.AgentDBID)
	if record.LGA != "Epe" {
		t.Fatal("stored record must carry the resubmission")
	}
}

func TestSubmitRequiresAuthenticatedSession(t *testing.T) {
	svc, _, _, sessions, _ := newAgentFixture(t)
	_, err := svc.Submit(context.Background(), newLoginSession(), sessions, validForm())
	if !common.Is(err, common.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestDashboardWithholdsAgentIDUntilApproved(t *testing.T) {
	svc, agents, _, sessions, sess := newAgentFixture(t)
	if _, err := svc.Submit(context.Background(), sess, sessions, validForm()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	view, err := svc.Dashboard(context.Background(), sess)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.AgentIDDisplay != "Pending Approval" {
		t.Fatalf("pending application must not show the agent id, got %q", view.AgentIDDisplay)
	}
	if view.Agent.AgentID != "" {
		t.Fatal("agent id must be masked before approval")
	}
	if !view.ProfileComplete {
		t.Fatal("submitted profile must be flagged complete")
	}

	if _, err := agents.UpdateStatus(context.Background(), sess.AgentDBID, agent.StatusApproved, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}
	view, err = svc.Dashboard(context.Background(), sess)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.AgentIDDisplay == "Pending Approval" || view.Agent.AgentID == "" {
		t.Fatalf("approved application must expose the agent id, got %q", view.AgentIDDisplay)
	}
}

func TestDeriveAge(t *testing.T) {
	today := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		dob  time.Time
		want int
	}{
		{time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), 36},
		{time.Date(2008, 9, 1, 0, 0, 0, 0, time.UTC), 18},
		{time.Date(2008, 9, 10, 0, 0, 0, 0, time.UTC), 17},
	}
	for _, tc := range cases {
		if got := deriveAge(tc.dob, today); got != tc.want {
			t.Fatalf("deriveAge(%s) = %d, want %d", tc.dob.Format("2006-01-02"), got, tc.want)
		}
	}
}
