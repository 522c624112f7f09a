package agent

import (
	"time"
)

type Status string

const (
	StatusIncomplete Status = "Incomplete"
	StatusPending    Status = "Pending"
	StatusApproved   Status = "Approved"
	StatusRejected   Status = "Rejected"
)

// CanTransition declares the only legal status moves. Approved and Rejected
// are terminal.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusIncomplete:
		return to == StatusPending
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func KnownStatus(s Status) bool {
	switch s {
	case StatusIncomplete, StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Document is a blob reference: the storage object path plus the access URL
// issued at upload time. Overwritten on re-upload, never deleted.
type Document struct {
	URL  string `json:"url,omitempty"`
	Path string `json:"path,omitempty"`
}

func (d Document) Uploaded() bool {
	return d.URL != "" && d.Path != ""
}

type Agent struct {
	ID                 int64      `json:"id"`
	ApplicationRef     string     `json:"application_ref"`
	AgentID            string     `json:"agent_id"`
	Prefix             string     `json:"prefix"`
	FirstName          string     `json:"first_name"`
	Surname            string     `json:"surname"`
	DateOfBirth        time.Time  `json:"date_of_birth"`
	Age                int        `json:"age"`
	Gender             string     `json:"gender"`
	MaritalStatus      string     `json:"marital_status"`
	MobileNumber       string     `json:"mobile_number"`
	Email              string     `json:"email"`
	ResidentialAddress string     `json:"residential_address"`
	State              string     `json:"state"`
	LGA                string     `json:"lga"`
	NOKName            string     `json:"nok_name"`
	NOKRelationship    string     `json:"nok_relationship"`
	NOKContact         string     `json:"nok_contact"`
	IDType             string     `json:"id_type"`
	IDNumber           string     `json:"id_number"`
	BankName           string     `json:"bank_name"`
	AccountNumber      string     `json:"account_number"`
	AccountName        string     `json:"account_name"`
	Region             string     `json:"region"`
	PreferredTerritory string     `json:"preferred_territory,omitempty"`
	IDDocument         Document   `json:"id_document"`
	PassportPhoto      Document   `json:"passport_photo"`
	AddressProof       Document   `json:"address_proof"`
	Status             Status     `json:"application_status"`
	SubmittedDate      *time.Time `json:"submitted_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	CreatedBy          string     `json:"created_by,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (a *Agent) FullName() string {
	name := a.FirstName + " " + a.Surname
	if a.Prefix != "" {
		name = a.Prefix + " " + name
	}
	return name
}

// Summary is the list-view projection used by the review panel.
type Summary struct {
	ID            int64      `json:"id"`
	FirstName     string     `json:"first_name"`
	Surname       string     `json:"surname"`
	AgentID       string     `json:"agent_id"`
	Email         string     `json:"email"`
	Status        Status     `json:"application_status"`
	State         string     `json:"state"`
	Region        string     `json:"region"`
	SubmittedDate *time.Time `json:"submitted_date,omitempty"`
}

// Filter narrows the review-panel list. Zero values mean "no filter"; the
// populated conditions combine with AND, the search term matches first name,
// surname, email and agent identifier with OR among themselves.
type Filter struct {
	Status Status
	Region string
	Search string
}

type StatusCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Approved   int `json:"approved"`
	Incomplete int `json:"incomplete"`
	Rejected   int `json:"rejected"`
}
