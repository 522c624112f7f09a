package credential

import (
	"context"
	"time"

	"agentportal/internal/domain/agent"
)

type Credential struct {
	ID           int64
	AgentID      int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Login is the projection returned by a successful credential lookup: the
// linked application row's ids and current status.
type Login struct {
	AgentDBID int64
	AgentID   string
	Email     string
	Status    agent.Status
}

type Repository interface {
	// FindActive matches (email, password hash, active) in one query so a
	// wrong password and an unknown email are indistinguishable to callers.
	FindActive(ctx context.Context, email, passwordHash string) (*Login, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// Register allocates the yearly agent serial under a lock, inserts the
	// placeholder application row and the credential row in one transaction.
	Register(ctx context.Context, placeholder agent.Agent, passwordHash string) (*agent.Agent, error)
}
