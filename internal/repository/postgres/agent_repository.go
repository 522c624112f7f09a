package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"agentportal/internal/common"
	"agentportal/internal/domain/agent"
	"agentportal/internal/domain/outbox"
)

const agentColumns = `id, application_ref, agent_id, prefix, first_name, surname,
	date_of_birth, age, gender, marital_status, mobile_number, email,
	residential_address, state, lga, nok_name, nok_relationship, nok_contact,
	id_type, id_number, bank_name, account_number, account_name, region,
	preferred_territory, id_document_blob_url, id_document_blob_name,
	passport_photo_blob_url, passport_photo_blob_name, address_proof_blob_url,
	address_proof_blob_name, application_status, submitted_date, created_at,
	created_by, updated_at`

type AgentRepository struct {
	db *sql.DB
}

func NewAgentRepository(db *sql.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

func (r *AgentRepository) GetByID(ctx context.Context, id int64) (*agent.Agent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)
	record, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "application record not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load application record", err)
	}
	return record, nil
}

// List applies the review-panel filters: populated conditions combine with
// AND, the free-text term matches first name, surname, email and agent
// identifier with OR among themselves.
func (r *AgentRepository) List(ctx context.Context, filter agent.Filter) ([]agent.Summary, error) {
	query := `SELECT id, first_name, surname, agent_id, email, application_status,
		state, region, submitted_date FROM agents`
	var conditions []string
	var params []any

	if filter.Status != "" {
		params = append(params, filter.Status)
		conditions = append(conditions, fmt.Sprintf("application_status = $%d", len(params)))
	}
	if filter.Region != "" {
		params = append(params, filter.Region)
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(params)))
	}
	if filter.Search != "" {
		params = append(params, "%"+filter.Search+"%")
		n := len(params)
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR surname ILIKE $%d OR email ILIKE $%d OR agent_id ILIKE $%d)", n, n, n, n))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list application records", err)
	}
	defer rows.Close()

	var items []agent.Summary
	for rows.Next() {
		var item agent.Summary
		var submitted sql.NullTime
		if err := rows.Scan(&item.ID, &item.FirstName, &item.Surname, &item.AgentID,
			&item.Email, &item.Status, &item.State, &item.Region, &submitted); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan application record", err)
		}
		if submitted.Valid {
			t := submitted.Time
			item.SubmittedDate = &t
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *AgentRepository) CountByStatus(ctx context.Context) (*agent.StatusCounts, error) {
	row := r.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE application_status = 'Pending'),
		COUNT(*) FILTER (WHERE application_status = 'Approved'),
		COUNT(*) FILTER (WHERE application_status = 'Incomplete'),
		COUNT(*) FILTER (WHERE application_status = 'Rejected')
		FROM agents`)
	var counts agent.StatusCounts
	if err := row.Scan(&counts.Total, &counts.Pending, &counts.Approved,
		&counts.Incomplete, &counts.Rejected); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to count applications", err)
	}
	return &counts, nil
}

// SubmitProfile overwrites the full record, forces the submitted status and
// queues the notification rows, all in one transaction.
func (r *AgentRepository) SubmitProfile(ctx context.Context, record agent.Agent, notes []outbox.Notification) (*agent.Agent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to begin submission", err)
	}
	defer func() { _ = tx.Rollback() }()

	record.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE agents SET
			agent_id = $1, prefix = $2, first_name = $3, surname = $4,
			date_of_birth = $5, age = $6, gender = $7, marital_status = $8,
			mobile_number = $9, residential_address = $10, state = $11, lga = $12,
			nok_name = $13, nok_relationship = $14, nok_contact = $15,
			id_type = $16, id_number = $17,
			id_document_blob_url = $18, id_document_blob_name = $19,
			bank_name = $20, account_number = $21, account_name = $22,
			region = $23, preferred_territory = $24,
			passport_photo_blob_url = $25, passport_photo_blob_name = $26,
			address_proof_blob_url = $27, address_proof_blob_name = $28,
			application_status = $29, submitted_date = $30, updated_at = $31
		WHERE id = $32`,
		record.AgentID, record.Prefix, record.FirstName, record.Surname,
		record.DateOfBirth, record.Age, record.Gender, record.MaritalStatus,
		record.MobileNumber, record.ResidentialAddress, record.State, record.LGA,
		record.NOKName, record.NOKRelationship, record.NOKContact,
		record.IDType, record.IDNumber,
		record.IDDocument.URL, record.IDDocument.Path,
		record.BankName, record.AccountNumber, record.AccountName,
		record.Region, record.PreferredTerritory,
		record.PassportPhoto.URL, record.PassportPhoto.Path,
		record.AddressProof.URL, record.AddressProof.Path,
		record.Status, record.SubmittedDate, record.UpdatedAt,
		record.ID); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update application record", err)
	}

	if err := insertNotifications(ctx, tx, notes); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to commit submission", err)
	}
	return r.GetByID(ctx, record.ID)
}

// UpdateStatus applies an approve/reject decision and its notification rows
// in one transaction.
func (r *AgentRepository) UpdateStatus(ctx context.Context, id int64, status agent.Status, notes []outbox.Notification) (*agent.Agent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to begin status update", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The Pending guard in the WHERE clause makes the decision first-writer-wins
	// when two reviewers act on the same application.
	result, err := tx.ExecContext(ctx,
		`UPDATE agents SET application_status = $1, updated_at = $2
		WHERE id = $3 AND application_status = 'Pending'`,
		status, time.Now().UTC(), id)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update application status", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update application status", err)
	} else if affected == 0 {
		return nil, common.NewError(common.CodeConflict, "application is not pending review", nil)
	}
	if err := insertNotifications(ctx, tx, notes); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to commit status update", err)
	}
	return r.GetByID(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*agent.Agent, error) {
	var a agent.Agent
	var submitted sql.NullTime
	if err := row.Scan(
		&a.ID, &a.ApplicationRef, &a.AgentID, &a.Prefix, &a.FirstName, &a.Surname,
		&a.DateOfBirth, &a.Age, &a.Gender, &a.MaritalStatus, &a.MobileNumber, &a.Email,
		&a.ResidentialAddress, &a.State, &a.LGA, &a.NOKName, &a.NOKRelationship, &a.NOKContact,
		&a.IDType, &a.IDNumber, &a.BankName, &a.AccountNumber, &a.AccountName, &a.Region,
		&a.PreferredTerritory, &a.IDDocument.URL, &a.IDDocument.Path,
		&a.PassportPhoto.URL, &a.PassportPhoto.Path, &a.AddressProof.URL,
		&a.AddressProof.Path, &a.Status, &submitted, &a.CreatedAt,
		&a.CreatedBy, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if submitted.Valid {
		t := submitted.Time
		a.SubmittedDate = &t
	}
	return &a, nil
}
