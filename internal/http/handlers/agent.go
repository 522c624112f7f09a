package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"agentportal/internal/app"
	"agentportal/internal/common"
	"agentportal/internal/domain/agent"
	"agentportal/internal/http/response"
	"agentportal/internal/session"
)

// multipartMemory caps the in-memory portion of the parsed form; larger parts
// spill to temp files.
const multipartMemory = 8 << 20

type AgentHandler struct {
	agents   *app.AgentService
	sessions session.Store
}

func NewAgentHandler(agents *app.AgentService, sessions session.Store) *AgentHandler {
	return &AgentHandler{agents: agents, sessions: sessions}
}

// Profile serves the applicant dashboard: the record plus status banner data,
// with the agent identifier withheld until approval.
func (h *AgentHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	view, err := h.agents.Dashboard(r.Context(), sess)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

// Submit accepts the multipart application form.
func (h *AgentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	form, err := parseProfileForm(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.agents.Submit(r.Context(), sess, h.sessions, *form)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"agent_id":        updated.AgentID,
		"application_ref": updated.ApplicationRef,
		"status":          updated.Status,
		"submitted_date":  updated.SubmittedDate,
		"page":            sess.Page,
	})
}

// Options serves the select-field option lists the form is built from.
func (h *AgentHandler) Options(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"prefixes":          agent.Prefixes,
		"genders":           agent.Genders,
		"marital_statuses":  agent.MaritalStatuses,
		"states":            agent.States,
		"nok_relationships": agent.NOKRelationships,
		"id_types":          agent.IDTypes,
		"banks":             agent.Banks,
		"regions":           agent.Regions,
	})
}

func parseProfileForm(r *http.Request) (*app.ProfileForm, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, common.NewError(common.CodeValidation, "invalid multipart form", err)
	}

	form := &app.ProfileForm{
		Prefix:             r.FormValue("prefix"),
		FirstName:          r.FormValue("first_name"),
		Surname:            r.FormValue("surname"),
		Gender:             r.FormValue("gender"),
		MaritalStatus:      r.FormValue("marital_status"),
		MobileNumber:       r.FormValue("mobile_number"),
		ResidentialAddress: r.FormValue("residential_address"),
		State:              r.FormValue("state"),
		LGA:                r.FormValue("lga"),
		NOKName:            r.FormValue("nok_name"),
		NOKRelationship:    r.FormValue("nok_relationship"),
		NOKContact:         r.FormValue("nok_contact"),
		IDType:             r.FormValue("id_type"),
		IDNumber:           r.FormValue("id_number"),
		BankName:           r.FormValue("bank_name"),
		AccountNumber:      r.FormValue("account_number"),
		AccountName:        r.FormValue("account_name"),
		Region:             r.FormValue("region"),
		PreferredTerritory: r.FormValue("preferred_territory"),
	}

	if dob := r.FormValue("date_of_birth"); dob != "" {
		parsed, err := time.Parse("2006-01-02", dob)
		if err != nil {
			return nil, common.NewValidationError("invalid application form", map[string]string{
				"date_of_birth": "date of birth must be YYYY-MM-DD",
			})
		}
		form.DateOfBirth = parsed
	}

	var err error
	if form.IDDocument, err = formFile(r, "id_document"); err != nil {
		return nil, err
	}
	if form.PassportPhoto, err = formFile(r, "passport_photo"); err != nil {
		return nil, err
	}
	if form.AddressProof, err = formFile(r, "address_proof"); err != nil {
		return nil, err
	}
	return form, nil
}

// formFile reads an optional file part fully into memory. Absent parts return
// nil so a previously uploaded document can be kept.
func formFile(r *http.Request, field string) (*app.FileUpload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, common.NewError(common.CodeValidation, "invalid file upload for "+field, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to read uploaded file "+field, err)
	}
	return &app.FileUpload{Filename: header.Filename, Data: data}, nil
}
