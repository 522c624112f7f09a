package outbox

import (
	"context"
	"time"
)

// Event names the transactional email kinds. Rows are written in the same
// database transaction as the business change they announce and drained by
// the notifier, so a failed send can never be lost silently.
type Event string

const (
	EventWelcome         Event = "welcome"
	EventNewApplication  Event = "new_application"
	EventUpdateApplicant Event = "update_applicant"
	EventUpdateReviewers Event = "update_reviewers"
	EventApproved        Event = "approved"
	EventRejected        Event = "rejected"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

type Notification struct {
	ID        int64
	AgentID   int64
	Event     Event
	Recipient string
	Payload   map[string]string
	Status    Status
	Attempts  int
	CreatedAt time.Time
	SentAt    *time.Time
}

type Repository interface {
	ListPending(ctx context.Context, limit int) ([]Notification, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	// MarkFailed increments the attempt counter and flips the row to failed
	// once maxAttempts is reached; below that the row stays pending and is
	// retried on the next sweep.
	MarkFailed(ctx context.Context, id int64, maxAttempts int) error
}
