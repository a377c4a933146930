package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"journal-management-api/config"
	"journal-management-api/utils"
)

// TemplateKind selects which notification template to render.
type TemplateKind string

const (
	TemplateInvitation TemplateKind = "invitation"
	TemplateReminder   TemplateKind = "reminder"
	TemplateWithdrawal TemplateKind = "withdrawal"
	TemplateDeclined   TemplateKind = "declined"
	TemplateDecision   TemplateKind = "decision"
)

// TemplateData carries the values substituted into a notification template.
type TemplateData map[string]interface{}

// NotificationGateway delivers templated messages to a recipient address.
// Delivery is best-effort from the engine's perspective: callers log and
// count failures but never roll back state on them.
type NotificationGateway interface {
	Send(ctx context.Context, recipient string, kind TemplateKind, data TemplateData) error
}

const dateLayout = "2 January 2006"

var notificationSubjects = map[TemplateKind]string{
	TemplateInvitation: "Invitation to review: {{.ManuscriptTitle}}",
	TemplateReminder:   "Reminder: review invitation awaiting your response",
	TemplateWithdrawal: "Review invitation withdrawn",
	TemplateDeclined:   "Reviewer declined: {{.ManuscriptTitle}}",
	TemplateDecision:   "Editorial decision on your manuscript",
}

var notificationBodies = map[TemplateKind]string{
	TemplateInvitation: `
<p>Dear {{.RecipientName}},</p>
<p>You have been invited to review the following manuscript:</p>
<p><strong>{{.ManuscriptTitle}}</strong></p>
<p>{{.Abstract}}</p>
<p>Please accept or decline by <strong>{{.ResponseDeadline}}</strong>.
If you accept, the review will be due by <strong>{{.ReviewDeadline}}</strong> at the latest.</p>
{{if .RespondURL}}<p><a href="{{.RespondURL}}">Respond to this invitation</a></p>{{end}}`,
	TemplateReminder: `
<p>Dear {{.RecipientName}},</p>
<p>This is a reminder that your review invitation for
<strong>{{.ManuscriptTitle}}</strong> is still awaiting a response.</p>
<p>The invitation will be withdrawn automatically if no response is received
by <strong>{{.WithdrawalDate}}</strong>.</p>`,
	TemplateWithdrawal: `
<p>Dear {{.RecipientName}},</p>
<p>The review invitation for <strong>{{.ManuscriptTitle}}</strong> has been
withdrawn{{if .Reason}} ({{.Reason}}){{end}}. No further action is needed.</p>`,
	TemplateDeclined: `
<p>Dear {{.RecipientName}},</p>
<p>{{.ReviewerName}} has declined the review invitation for
<strong>{{.ManuscriptTitle}}</strong>. The review slot is open again and a
replacement reviewer can be invited.</p>`,
	TemplateDecision: `
<p>Dear {{.RecipientName}},</p>
<p>An editorial decision has been recorded for your manuscript
<strong>{{.ManuscriptTitle}}</strong>:</p>
<p><strong>{{.Decision}}</strong></p>
{{if .Comments}}<p>Editor comments:</p><p>{{.Comments}}</p>{{end}}`,
}

var (
	subjectTemplates = map[TemplateKind]*template.Template{}
	bodyTemplates    = map[TemplateKind]*template.Template{}
)

func init() {
	for kind, text := range notificationSubjects {
		subjectTemplates[kind] = template.Must(template.New(string(kind) + "_subject").Parse(text))
	}
	for kind, text := range notificationBodies {
		bodyTemplates[kind] = template.Must(template.New(string(kind) + "_body").Parse(text))
	}
}

// EmailNotificationGateway renders the templates above and delivers them over
// the configured SMTP transport.
type EmailNotificationGateway struct{}

// NewEmailNotificationGateway constructs an EmailNotificationGateway.
func NewEmailNotificationGateway() *EmailNotificationGateway {
	return &EmailNotificationGateway{}
}

func (g *EmailNotificationGateway) Send(ctx context.Context, recipient string, kind TemplateKind, data TemplateData) error {
	if !utils.ValidateEmail(recipient) {
		return fmt.Errorf("invalid recipient address %q", recipient)
	}

	subjectTmpl, ok := subjectTemplates[kind]
	if !ok {
		return fmt.Errorf("unknown notification template '%s'", kind)
	}
	bodyTmpl := bodyTemplates[kind]

	var subject bytes.Buffer
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		return fmt.Errorf("render subject for '%s': %w", kind, err)
	}

	var body bytes.Buffer
	if err := bodyTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render body for '%s': %w", kind, err)
	}

	if err := config.SendMail([]string{recipient}, subject.String(), body.String()); err != nil {
		return fmt.Errorf("send '%s' notification to %s: %w", kind, recipient, err)
	}
	return nil
}
