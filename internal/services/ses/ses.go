// Package ses sends proposal notification emails via AWS SES
package ses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	appConfig "matrimony-match-engine/internal/config"
	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/services/proposal"
	"matrimony-match-engine/internal/utils"
)

// ErrNoRecipient is returned when the notified party has no email address.
var ErrNoRecipient = errors.New("recipient has no email address")

// Service handles SES email operations
type Service struct {
	client       *ses.Client
	fromEmail    string
	dashboardURL string
	logger       *zap.Logger
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// ProposalEmail contains the data rendered into a proposal notification.
type ProposalEmail struct {
	RecipientName string
	OtherName     string
	Message       string
	DashboardURL  string
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service
func NewService(ctx context.Context, appCfg *appConfig.Config) (*Service, error) {
	if appCfg.SESSenderEmail == "" {
		return nil, fmt.Errorf("SES_SENDER_EMAIL is not set")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(appCfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:       ses.NewFromConfig(cfg),
		fromEmail:    appCfg.SESSenderEmail,
		dashboardURL: appCfg.DashboardURL,
		logger:       utils.GetLogger().Named("ses"),
	}, nil
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", aws.ToString(result.MessageId)),
	)

	return &SendEmailResult{
		MessageID: aws.ToString(result.MessageId),
		SentAt:    time.Now(),
	}, nil
}

// NotifyProposal emails the receiver about a new proposal, or the sender
// about an accepted one.
func (s *Service) NotifyProposal(ctx context.Context, event proposal.Event, p *models.Proposal, sender, receiver *models.Profile) error {
	recipient, other := receiver, sender
	if event == proposal.EventAccepted {
		recipient, other = sender, receiver
	}
	if recipient.Email == "" {
		return ErrNoRecipient
	}

	params := ProposalEmail{
		RecipientName: displayName(recipient),
		OtherName:     displayName(other),
		DashboardURL:  s.dashboardURL,
	}
	if event == proposal.EventReceived {
		params.Message = p.Message
	}

	subject, htmlBody, textBody, err := RenderProposalEmail(event, params)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	_, err = s.SendEmail(ctx, EmailParams{
		To:       recipient.Email,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	return err
}

const proposalTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #8e2c48; color: white; padding: 24px; border-radius: 10px 10px 0 0; text-align: center; }
        .content { background: #f9f9f9; padding: 24px; border-radius: 0 0 10px 10px; }
        .note { background: white; border-left: 4px solid #8e2c48; padding: 12px 16px; margin: 16px 0; font-style: italic; }
        .cta-button { display: inline-block; background: #8e2c48; color: white; padding: 12px 24px; text-decoration: none; border-radius: 8px; font-weight: bold; }
    </style>
</head>
<body>
    <div class="header"><h1>{{.Title}}</h1></div>
    <div class="content">
        <p>Hi {{.RecipientName}},</p>
        <p>{{.Lead}}</p>
        {{if .Message}}<div class="note">{{.Message}}</div>{{end}}
        {{if .DashboardURL}}<p style="text-align: center;"><a href="{{.DashboardURL}}" class="cta-button">Open your dashboard</a></p>{{end}}
    </div>
</body>
</html>`

var proposalHTML = template.Must(template.New("proposal").Parse(proposalTemplate))

// RenderProposalEmail builds the subject and both bodies for an event.
func RenderProposalEmail(event proposal.Event, params ProposalEmail) (subject, htmlBody, textBody string, err error) {
	var title, lead string
	switch event {
	case proposal.EventReceived:
		subject = fmt.Sprintf("%s is interested in your profile", params.OtherName)
		title = "You have a new proposal"
		lead = fmt.Sprintf("%s has sent you a proposal.", params.OtherName)
	case proposal.EventAccepted:
		subject = fmt.Sprintf("%s accepted your proposal", params.OtherName)
		title = "Your proposal was accepted"
		lead = fmt.Sprintf("Good news! %s has accepted your proposal.", params.OtherName)
	default:
		return "", "", "", fmt.Errorf("unknown proposal event %q", event)
	}

	var buf bytes.Buffer
	err = proposalHTML.Execute(&buf, struct {
		ProposalEmail
		Title string
		Lead  string
	}{params, title, lead})
	if err != nil {
		return "", "", "", err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n%s\n\n", params.RecipientName, lead)
	if params.Message != "" {
		fmt.Fprintf(&text, "Message: %s\n\n", params.Message)
	}
	if params.DashboardURL != "" {
		fmt.Fprintf(&text, "Open your dashboard: %s\n\n", params.DashboardURL)
	}
	text.WriteString("Best regards,\nThe Matrimony Team\n")

	return subject, buf.String(), text.String(), nil
}

func displayName(p *models.Profile) string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return "A member"
	}
	return name
}
