package notify

//go:generate mockgen -destination=../mocks/mock_email.go -package=mocks github.com/cyphera/cyphera-permissions/internal/notify EmailSender

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"maps"
	"slices"
	"strings"

	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// EmailSender is the part of the Resend client the mailer uses
type EmailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

var approvalEmail = template.Must(template.New("approval").Parse(`<p>{{.Origin}} is asking for permissions.</p>
<ul>{{range .Permissions}}<li>{{.}}</li>{{end}}</ul>
<p>Request id: <code>{{.ID}}</code></p>
{{if .ReviewURL}}<p><a href="{{.ReviewURL}}">Review the request</a></p>{{end}}`))

type approvalEmailData struct {
	ID          string
	Origin      string
	Permissions []string
	ReviewURL   string
}

// OperatorMailer emails operators when a permission request is waiting for
// a decision. It is an approvals.Listener.
type OperatorMailer struct {
	sender    EmailSender
	from      string
	to        []string
	reviewURL string
	logger    *zap.Logger
}

// NewResendClient creates the Resend email client
func NewResendClient(apiKey string) EmailSender {
	return resend.NewClient(apiKey).Emails
}

// NewOperatorMailer creates a mailer. reviewURL, when set, is linked from the
// email with the request id appended.
func NewOperatorMailer(sender EmailSender, from string, to []string, reviewURL string) *OperatorMailer {
	return &OperatorMailer{
		sender:    sender,
		from:      from,
		to:        to,
		reviewURL: reviewURL,
		logger:    logger.ForComponent(logger.ComponentNotifications),
	}
}

// ApprovalRequested sends the alert. Failures are logged and never block the
// request.
func (m *OperatorMailer) ApprovalRequested(_ context.Context, req business.ApprovalRequest) {
	if err := m.send(req); err != nil {
		m.logger.Error("Failed to send approval alert",
			zap.String("request_id", req.ID),
			zap.String("origin", req.Origin),
			zap.Error(err))
	}
}

func (m *OperatorMailer) send(req business.ApprovalRequest) error {
	data := approvalEmailData{
		ID:          req.ID,
		Origin:      req.Origin,
		Permissions: slices.Sorted(maps.Keys(req.RequestData.Permissions)),
	}
	if m.reviewURL != "" {
		data.ReviewURL = strings.TrimSuffix(m.reviewURL, "/") + "/" + req.ID
	}

	var html bytes.Buffer
	if err := approvalEmail.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render approval email: %w", err)
	}

	sent, err := m.sender.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      m.to,
		Subject: fmt.Sprintf("Permission request from %s", req.Origin),
		Html:    html.String(),
		Text:    fmt.Sprintf("%s is asking for %s. Request id: %s", req.Origin, strings.Join(data.Permissions, ", "), req.ID),
		Headers: map[string]string{"X-Entity-Ref-ID": req.ID},
		Tags: []resend.Tag{
			{Name: "category", Value: "approval_request"},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Approval alert sent",
		zap.String("email_id", sent.Id),
		zap.String("request_id", req.ID))
	return nil
}
