package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"agentportal/internal/common"
	"agentportal/internal/domain/agent"
	"agentportal/internal/domain/credential"
)

// Postgres class 23 unique_violation.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

const agentIDPrefix = "AVH/ISA"

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// FindActive matches email, hash and the active flag in a single query so the
// caller cannot tell an unknown email from a wrong password.
func (r *CredentialRepository) FindActive(ctx context.Context, email, passwordHash string) (*credential.Login, error) {
	row := r.db.QueryRowContext(ctx, `SELECT a.id, a.agent_id, a.email, a.application_status
		FROM agent_credentials ac
		JOIN agents a ON ac.agent_id = a.id
		WHERE ac.email = $1 AND ac.password_hash = $2 AND ac.is_active = TRUE`,
		email, passwordHash)
	var login credential.Login
	if err := row.Scan(&login.AgentDBID, &login.AgentID, &login.Email, &login.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "credential not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to look up credential", err)
	}
	return &login, nil
}

func (r *CredentialRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT 1 FROM agent_credentials WHERE email = $1`, email)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, common.NewError(common.CodeInternal, "failed to check email", err)
	}
	return true, nil
}

// Register allocates the yearly agent serial under an advisory lock, then
// inserts the placeholder application row and its credential row, all in one
// transaction. The lock serializes concurrent registrations so two of them
// cannot compute the same next serial.
func (r *CredentialRepository) Register(ctx context.Context, placeholder agent.Agent, passwordHash string) (*agent.Agent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to begin registration", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('agents_agent_id_serial'))`); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to lock agent serial", err)
	}

	now := time.Now().UTC()
	yearPrefix := fmt.Sprintf("%s/%s/", agentIDPrefix, now.Format("06"))
	var maxSerial int
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(CAST(RIGHT(agent_id, 5) AS INTEGER)), 0)
		FROM agents WHERE agent_id LIKE $1`, yearPrefix+"%")
	if err := row.Scan(&maxSerial); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to read agent serial", err)
	}
	placeholder.AgentID = fmt.Sprintf("%s%05d", yearPrefix, maxSerial+1)
	placeholder.CreatedAt = now
	placeholder.UpdatedAt = now

	row = tx.QueryRowContext(ctx, `INSERT INTO agents (
			application_ref, agent_id, first_name, surname, date_of_birth,
			mobile_number, email, application_status, created_at, created_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		placeholder.ApplicationRef, placeholder.AgentID, placeholder.FirstName,
		placeholder.Surname, placeholder.DateOfBirth, placeholder.MobileNumber,
		placeholder.Email, placeholder.Status, placeholder.CreatedAt,
		placeholder.CreatedBy, placeholder.UpdatedAt)
	if err := row.Scan(&placeholder.ID); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to create application record", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO agent_credentials (
			agent_id, email, password_hash, is_active, created_at
		) VALUES ($1, $2, $3, TRUE, $4)`,
		placeholder.ID, placeholder.Email, passwordHash, now); err != nil {
		// Two registrations racing past the pre-insert email check land here;
		// the unique index decides and the loser gets the same conflict the
		// check would have raised.
		if isUniqueViolation(err) {
			return nil, common.NewError(common.CodeConflict, "An account with this email already exists", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to create credential", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to commit registration", err)
	}
	return &placeholder, nil
}
