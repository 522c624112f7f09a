package app

import (
	"context"
	"fmt"
	"time"

	"agentportal/internal/domain/outbox"
	"agentportal/internal/mailer"
)

const (
	notifierBatchSize   = 20
	notifierMaxAttempts = 5
)

// Notifier drains the notification outbox in the background. A failed send is
// downgraded to a warning and retried on a later sweep; it never affects the
// business write that queued the row.
type Notifier struct {
	outbox   outbox.Repository
	sender   mailer.Sender
	logger   Logger
	interval time.Duration
	quit     chan struct{}
	done     chan struct{}
}

func NewNotifier(repo outbox.Repository, sender mailer.Sender, logger Logger, interval time.Duration) *Notifier {
	return &Notifier{
		outbox:   repo,
		sender:   sender,
		logger:   logger,
		interval: interval,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (n *Notifier) Run() {
	defer close(n.done)
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.Drain(context.Background())
		case <-n.quit:
			return
		}
	}
}

func (n *Notifier) Stop() {
	close(n.quit)
	<-n.done
}

// Drain performs one sweep over pending rows.
func (n *Notifier) Drain(ctx context.Context) {
	notes, err := n.outbox.ListPending(ctx, notifierBatchSize)
	if err != nil {
		n.logger.Warn("notifier: failed to list pending notifications: " + err.Error())
		return
	}
	for _, note := range notes {
		if err := n.sender.Send(note); err != nil {
			n.logger.Warn(fmt.Sprintf("notifier: send failed event=%s id=%d: %v", note.Event, note.ID, err))
			if err := n.outbox.MarkFailed(ctx, note.ID, notifierMaxAttempts); err != nil {
				n.logger.Warn("notifier: failed to record send failure: " + err.Error())
			}
			continue
		}
		if err := n.outbox.MarkSent(ctx, note.ID, time.Now().UTC()); err != nil {
			n.logger.Warn("notifier: failed to mark notification sent: " + err.Error())
		}
	}
}
