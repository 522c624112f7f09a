package mailer

import (
	"bytes"
	"html/template"

	"agentportal/internal/common"
	"agentportal/internal/domain/outbox"
)

// Every outgoing mail carries the same legal footer.
const disclaimer = `<hr><p style="font-size:11px;color:#666">This email and any attachments are confidential and intended solely for the addressee. If you have received this email in error please notify the sender and delete it. Nothing in this email constitutes a contractual offer or acceptance on behalf of Avon Healthcare. Views expressed are those of the author and do not necessarily represent those of the company.</p>`

type templateDef struct {
	subject string
	body    *template.Template
}

func mustTemplate(name, body string) *template.Template {
	return template.Must(template.New(name).Parse(body + disclaimer))
}

var templates = map[outbox.Event]templateDef{
	outbox.EventWelcome: {
		subject: "Welcome - Your Agent Application Has Been Received",
		body: mustTemplate("welcome", `<p>Dear {{.Name}},</p>
<p>Thank you for submitting your agent application. Your application reference is <b>{{.ApplicationRef}}</b> and your agent identifier is <b>{{.AgentID}}</b>.</p>
<p>Our HR team will review your application and you will be notified of the outcome by email.</p>
<p>Regards,<br>Agent Onboarding Team</p>`),
	},
	outbox.EventNewApplication: {
		subject: "New Agent Application Submitted",
		body: mustTemplate("new_application", `<p>A new agent application has been submitted and is awaiting review.</p>
<p>Applicant: <b>{{.Name}}</b><br>Application reference: <b>{{.ApplicationRef}}</b><br>Agent identifier: <b>{{.AgentID}}</b></p>`),
	},
	outbox.EventUpdateApplicant: {
		subject: "Your Agent Application Has Been Updated",
		body: mustTemplate("update_applicant", `<p>Dear {{.Name}},</p>
<p>Your agent application <b>{{.ApplicationRef}}</b> has been updated and resubmitted for review.</p>
<p>Regards,<br>Agent Onboarding Team</p>`),
	},
	outbox.EventUpdateReviewers: {
		subject: "Agent Application Updated",
		body: mustTemplate("update_reviewers", `<p>Agent application <b>{{.ApplicationRef}}</b> ({{.Name}}) has been updated and resubmitted for review.</p>`),
	},
	outbox.EventApproved: {
		subject: "Your Agent Application Has Been Approved",
		body: mustTemplate("approved", `<p>Dear {{.Name}},</p>
<p>Congratulations! Your agent application <b>{{.ApplicationRef}}</b> has been approved.</p>
<p>Your agent identifier is <b>{{.AgentID}}</b>. Keep it safe; you will need it for all future correspondence.</p>
<p>Regards,<br>Agent Onboarding Team</p>`),
	},
	outbox.EventRejected: {
		subject: "Update on Your Agent Application",
		body: mustTemplate("rejected", `<p>Dear {{.Name}},</p>
<p>We regret to inform you that your agent application <b>{{.ApplicationRef}}</b> has not been successful at this time.</p>
<p>Regards,<br>Agent Onboarding Team</p>`),
	},
}

// Render produces the subject and HTML body for an outbox row.
func Render(event outbox.Event, payload map[string]string) (string, string, error) {
	def, ok := templates[event]
	if !ok {
		return "", "", common.NewError(common.CodeInternal, "unknown notification event", nil)
	}
	var buf bytes.Buffer
	if err := def.body.Execute(&buf, payload); err != nil {
		return "", "", common.NewError(common.CodeInternal, "failed to render notification", err)
	}
	return def.subject, buf.String(), nil
}
