package agent

import (
	"context"

	"agentportal/internal/domain/outbox"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Agent, error)
	List(ctx context.Context, filter Filter) ([]Summary, error)
	CountByStatus(ctx context.Context) (*StatusCounts, error)
	// SubmitProfile writes the full record, forces status to Pending and
	// inserts the notification rows in one transaction.
	SubmitProfile(ctx context.Context, record Agent, notes []outbox.Notification) (*Agent, error)
	// UpdateStatus applies an Approve/Reject decision together with its
	// notification rows in one transaction.
	UpdateStatus(ctx context.Context, id int64, status Status, notes []outbox.Notification) (*Agent, error)
}
