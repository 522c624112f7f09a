package app

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"agentportal/internal/blob"
	"agentportal/internal/common"
	"agentportal/internal/domain/agent"
	"agentportal/internal/domain/outbox"
	"agentportal/internal/session"
)

const (
	photoMaxSizeMB    = 2
	documentMaxSizeMB = 5

	minApplicantAge = 18
	maxApplicantAge = 100
)

var (
	photoExtensions    = []string{"jpg", "jpeg", "png"}
	documentExtensions = []string{"pdf", "jpg", "jpeg", "png"}
)

// FileUpload is a newly provided document from the form.
type FileUpload struct {
	Filename string
	Data     []byte
}

// ProfileForm carries every submitted field. The three uploads are nil when
// the applicant relies on a previously uploaded document.
type ProfileForm struct {
	Prefix             string
	FirstName          string
	Surname            string
	DateOfBirth        time.Time
	Gender             string
	MaritalStatus      string
	MobileNumber       string
	ResidentialAddress string
	State              string
	LGA                string
	NOKName            string
	NOKRelationship    string
	NOKContact         string
	IDType             string
	IDNumber           string
	BankName           string
	AccountNumber      string
	AccountName        string
	Region             string
	PreferredTerritory string
	IDDocument         *FileUpload
	PassportPhoto      *FileUpload
	AddressProof       *FileUpload
}

type AgentService struct {
	agents    agent.Repository
	blobs     blob.Store
	reviewers []string
	logger    Logger
}

func NewAgentService(agents agent.Repository, blobs blob.Store, reviewers []string, logger Logger) *AgentService {
	return &AgentService{agents: agents, blobs: blobs, reviewers: reviewers, logger: logger}
}

// Profile returns the session's application record.
func (s *AgentService) Profile(ctx context.Context, sess *session.Session) (*agent.Agent, error) {
	if !sess.Authenticated() {
		return nil, common.NewError(common.CodeUnauthorized, "not logged in", nil)
	}
	return s.agents.GetByID(ctx, sess.AgentDBID)
}

// DashboardView is the applicant-facing projection. The agent identifier is
// withheld until the application is approved.
type DashboardView struct {
	Agent           *agent.Agent `json:"agent"`
	AgentIDDisplay  string       `json:"agent_id_display"`
	ProfileComplete bool         `json:"profile_complete"`
}

func (s *AgentService) Dashboard(ctx context.Context, sess *session.Session) (*DashboardView, error) {
	record, err := s.Profile(ctx, sess)
	if err != nil {
		return nil, err
	}
	view := &DashboardView{
		Agent:           record,
		AgentIDDisplay:  "Pending Approval",
		ProfileComplete: record.Status != agent.StatusIncomplete,
	}
	if record.Status == agent.StatusApproved {
		view.AgentIDDisplay = record.AgentID
	} else {
		masked := *record
		masked.AgentID = ""
		view.Agent = &masked
	}
	return view, nil
}

// Submit validates the whole form (collecting every violation before any
// write), uploads newly provided documents, overwrites the record, forces the
// status to Pending and queues the notification mail in the same transaction
// as the record update.
func (s *AgentService) Submit(ctx context.Context, sess *session.Session, sessions session.Store, form ProfileForm) (*agent.Agent, error) {
	if !sess.Authenticated() {
		return nil, common.NewError(common.CodeUnauthorized, "not logged in", nil)
	}
	existing, err := s.agents.GetByID(ctx, sess.AgentDBID)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsTerminal() {
		return nil, common.NewError(common.CodeForbidden, "application has already been decided", nil)
	}

	if fields := validateProfileForm(form, existing); len(fields) > 0 {
		return nil, common.NewValidationError("invalid application form", fields)
	}

	// The page move is checked before any write so a rejected navigation can
	// never leave a committed submission behind. Submitting again while
	// already on the profile page is a no-op move.
	if sess.Page != session.PageProfile {
		if err := sess.Transition(session.PageProfile); err != nil {
			return nil, err
		}
	}

	record := *existing
	applyForm(&record, form)

	// Only newly provided files are uploaded; otherwise the stored reference
	// is retained. Old blobs are never deleted.
	if form.IDDocument != nil {
		url, objectPath, err := s.blobs.Upload(ctx, form.IDDocument.Data, form.IDDocument.Filename, blob.CategoryIDDocument, record.ApplicationRef)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "Error uploading ID document", err)
		}
		record.IDDocument = agent.Document{URL: url, Path: objectPath}
	}
	if form.PassportPhoto != nil {
		url, objectPath, err := s.blobs.Upload(ctx, form.PassportPhoto.Data, form.PassportPhoto.Filename, blob.CategoryPassportPhoto, record.ApplicationRef)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "Error uploading passport photo", err)
		}
		record.PassportPhoto = agent.Document{URL: url, Path: objectPath}
	}
	if form.AddressProof != nil {
		url, objectPath, err := s.blobs.Upload(ctx, form.AddressProof.Data, form.AddressProof.Filename, blob.CategoryAddressProof, record.ApplicationRef)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "Error uploading address proof", err)
		}
		record.AddressProof = agent.Document{URL: url, Path: objectPath}
	}

	firstSubmission := existing.Status == agent.StatusIncomplete
	now := time.Now().UTC()
	record.Status = agent.StatusPending
	record.SubmittedDate = &now

	notes := s.submissionNotes(&record, firstSubmission)
	updated, err := s.agents.SubmitProfile(ctx, record, notes)
	if err != nil {
		return nil, err
	}

	sess.AgentID = updated.AgentID
	if err := sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("application submitted ref=" + updated.ApplicationRef)
	return updated, nil
}

// submissionNotes picks the mail pair: a first submission greets the
// applicant and alerts the reviewers; any later re-submission sends the
// lighter update confirmations instead.
func (s *AgentService) submissionNotes(record *agent.Agent, firstSubmission bool) []outbox.Notification {
	payload := map[string]string{
		"Name":           record.FullName(),
		"ApplicationRef": record.ApplicationRef,
		"AgentID":        record.AgentID,
	}
	reviewerList := strings.Join(s.reviewers, ",")
	if firstSubmission {
		return []outbox.Notification{
			{AgentID: record.ID, Event: outbox.EventWelcome, Recipient: record.Email, Payload: payload},
			{AgentID: record.ID, Event: outbox.EventNewApplication, Recipient: reviewerList, Payload: payload},
		}
	}
	return []outbox.Notification{
		{AgentID: record.ID, Event: outbox.EventUpdateApplicant, Recipient: record.Email, Payload: payload},
		{AgentID: record.ID, Event: outbox.EventUpdateReviewers, Recipient: reviewerList, Payload: payload},
	}
}

func applyForm(record *agent.Agent, form ProfileForm) {
	record.Prefix = form.Prefix
	record.FirstName = strings.TrimSpace(form.FirstName)
	record.Surname = strings.TrimSpace(form.Surname)
	record.DateOfBirth = form.DateOfBirth
	record.Age = deriveAge(form.DateOfBirth, time.Now().UTC())
	record.Gender = form.Gender
	record.MaritalStatus = form.MaritalStatus
	record.MobileNumber = strings.TrimSpace(form.MobileNumber)
	record.ResidentialAddress = strings.TrimSpace(form.ResidentialAddress)
	record.State = form.State
	record.LGA = strings.TrimSpace(form.LGA)
	record.NOKName = strings.TrimSpace(form.NOKName)
	record.NOKRelationship = form.NOKRelationship
	record.NOKContact = strings.TrimSpace(form.NOKContact)
	record.IDType = form.IDType
	record.IDNumber = strings.TrimSpace(form.IDNumber)
	record.BankName = form.BankName
	record.AccountNumber = strings.TrimSpace(form.AccountNumber)
	record.AccountName = strings.TrimSpace(form.AccountName)
	record.Region = form.Region
	record.PreferredTerritory = strings.TrimSpace(form.PreferredTerritory)
}

// deriveAge floors whole 365-day years between dob and today.
func deriveAge(dob, today time.Time) int {
	days := int(today.Sub(dob).Hours() / 24)
	return days / 365
}

// validateProfileForm collects every violation; nothing is written while the
// map is non-empty.
func validateProfileForm(form ProfileForm, existing *agent.Agent) map[string]string {
	fields := map[string]string{}

	requireText := func(key, value, message string) {
		if strings.TrimSpace(value) == "" {
			fields[key] = message
		}
	}
	requireOption := func(key, value string, options []string, message string) {
		if strings.TrimSpace(value) == "" {
			fields[key] = message
			return
		}
		if !agent.InList(value, options) {
			fields[key] = "value is not one of the allowed options"
		}
	}

	requireOption("prefix", form.Prefix, agent.Prefixes, "Prefix is required")
	requireText("first_name", form.FirstName, "First name is required")
	requireText("surname", form.Surname, "Surname is required")
	requireOption("gender", form.Gender, agent.Genders, "Gender is required")
	requireOption("marital_status", form.MaritalStatus, agent.MaritalStatuses, "Marital status is required")
	requireText("residential_address", form.ResidentialAddress, "Residential address is required")
	requireOption("state", form.State, agent.States, "State is required")
	requireText("lga", form.LGA, "Local government area is required")
	requireText("nok_name", form.NOKName, "Next of kin name is required")
	requireOption("nok_relationship", form.NOKRelationship, agent.NOKRelationships, "Next of kin relationship is required")
	requireText("nok_contact", form.NOKContact, "Next of kin contact is required")
	requireOption("id_type", form.IDType, agent.IDTypes, "ID type is required")
	requireText("id_number", form.IDNumber, "ID number is required")
	requireOption("bank_name", form.BankName, agent.Banks, "Bank name is required")
	requireText("account_name", form.AccountName, "Account name is required")
	requireOption("region", form.Region, agent.Regions, "Region is required")

	if mobile := strings.TrimSpace(form.MobileNumber); len(mobile) != 11 {
		fields["mobile_number"] = "Mobile number must be 11 digits"
	}
	if account := strings.TrimSpace(form.AccountNumber); len(account) != 10 {
		fields["account_number"] = "Account number must be 10 digits"
	}

	if form.DateOfBirth.IsZero() {
		fields["date_of_birth"] = "Date of birth is required"
	} else {
		today := time.Now().UTC()
		if form.DateOfBirth.After(today.AddDate(-minApplicantAge, 0, 0)) {
			fields["date_of_birth"] = fmt.Sprintf("Applicant must be at least %d years old", minApplicantAge)
		} else if form.DateOfBirth.Before(today.AddDate(-maxApplicantAge, 0, 0)) {
			fields["date_of_birth"] = "Date of birth is out of range"
		}
	}

	// Each document must be already uploaded or newly provided.
	if form.IDDocument == nil && !existing.IDDocument.Uploaded() {
		fields["id_document"] = "ID document is required"
	}
	if form.PassportPhoto == nil && !existing.PassportPhoto.Uploaded() {
		fields["passport_photo"] = "Passport photograph is required"
	}
	if form.AddressProof == nil && !existing.AddressProof.Uploaded() {
		fields["address_proof"] = "Proof of address is required"
	}

	if form.PassportPhoto != nil {
		if msg := validateFile(form.PassportPhoto, photoMaxSizeMB, photoExtensions); msg != "" {
			fields["passport_photo"] = "Passport photo: " + msg
		}
	}
	if form.IDDocument != nil {
		if msg := validateFile(form.IDDocument, documentMaxSizeMB, documentExtensions); msg != "" {
			fields["id_document"] = "ID document: " + msg
		}
	}
	if form.AddressProof != nil {
		if msg := validateFile(form.AddressProof, documentMaxSizeMB, documentExtensions); msg != "" {
			fields["address_proof"] = "Address proof: " + msg
		}
	}

	return fields
}

func validateFile(file *FileUpload, maxSizeMB int, allowed []string) string {
	if len(file.Data) == 0 {
		return "no file uploaded"
	}
	if len(file.Data) > maxSizeMB*1024*1024 {
		return fmt.Sprintf("file size exceeds %dMB limit", maxSizeMB)
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(file.Filename), "."))
	if !agent.InList(ext, allowed) {
		return fmt.Sprintf("file type .%s not allowed. Allowed: %s", ext, strings.Join(allowed, ", "))
	}
	return ""
}
