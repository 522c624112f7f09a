package mailer

import (
	"strings"

	"gopkg.in/gomail.v2"

	"agentportal/internal/common"
	"agentportal/internal/domain/outbox"
)

type Sender interface {
	Send(note outbox.Notification) error
}

type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	Reviewers []string
}

// SMTPMailer submits HTML mail over STARTTLS to a fixed relay. Approval and
// rejection mail cc the reviewer addresses; reviewer-facing events address
// them directly.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	from      string
	reviewers []string
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:      cfg.From,
		reviewers: cfg.Reviewers,
	}
}

func (m *SMTPMailer) Send(note outbox.Notification) error {
	subject, body, err := Render(note.Event, note.Payload)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", splitRecipients(note.Recipient)...)
	if note.Event == outbox.EventApproved || note.Event == outbox.EventRejected {
		msg.SetHeader("Cc", m.reviewers...)
	}
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return common.NewError(common.CodeUnavailable, "failed to send notification email", err)
	}
	return nil
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
