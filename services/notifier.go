package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/config"
	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/resend/resend-go/v2"
	"github.com/slack-go/slack"
)

// Notifier is told about every successfully created record.
type Notifier interface {
	NotifySubmission(ctx context.Context, draft types.FeedbackSubmission, result *types.SubmissionResult) error
}

// NotificationMetrics counts notification attempts per channel.
type NotificationMetrics struct {
	sent *prometheus.CounterVec
}

// NewNotificationMetrics registers the notification counters with reg.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	m := &NotificationMetrics{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_notifications_total",
			Help: "Submission notifications by channel and outcome",
		}, []string{"channel", "outcome"}),
	}
	reg.MustRegister(m.sent)
	return m
}

func (m *NotificationMetrics) record(channel string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.sent.WithLabelValues(channel, outcome).Inc()
}

// EmailSender is the part of the Resend client used for confirmations.
type EmailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailNotifier sends the submitter a confirmation through Resend.
type EmailNotifier struct {
	sender   EmailSender
	from     string
	metrics  *NotificationMetrics
	template *template.Template
}

// NewEmailNotifier creates a Resend-backed confirmation notifier.
func NewEmailNotifier(cfg *config.EmailConfig, metrics *NotificationMetrics) *EmailNotifier {
	logger.GetLogger().Infow("Initializing confirmation email notifier",
		"from", cfg.FromAddress, "apikey", logger.MaskToken(cfg.ResendAPIKey))
	client := resend.NewClient(cfg.ResendAPIKey)
	return NewEmailNotifierWithSender(client.Emails, fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress), metrics)
}

// NewEmailNotifierWithSender creates a confirmation notifier on top of sender.
func NewEmailNotifierWithSender(sender EmailSender, from string, metrics *NotificationMetrics) *EmailNotifier {
	return &EmailNotifier{
		sender:   sender,
		from:     from,
		metrics:  metrics,
		template: template.Must(template.New("confirmation").Parse(confirmationEmailTemplate)),
	}
}

func (n *EmailNotifier) NotifySubmission(ctx context.Context, draft types.FeedbackSubmission, result *types.SubmissionResult) error {
	to := strings.TrimSpace(draft.Email)
	if to == "" {
		return nil
	}

	var body bytes.Buffer
	if err := n.template.Execute(&body, draft); err != nil {
		n.metrics.record("email", err)
		return fmt.Errorf("failed to render confirmation email: %w", err)
	}

	_, err := n.sender.Send(&resend.SendEmailRequest{
		From:    n.from,
		To:      []string{to},
		Subject: "Thank you for your feedback",
		Html:    body.String(),
	})
	n.metrics.record("email", err)
	if err != nil {
		return fmt.Errorf("confirmation email send failed: %w", err)
	}

	logger.GetLogger().Infow("Confirmation email sent", "to", logger.MaskEmail(to))
	return nil
}

// WebhookPoster posts a message to a Slack incoming webhook.
type WebhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// SlackNotifier posts new feedback to the team channel.
type SlackNotifier struct {
	webhookURL string
	channel    string
	post       WebhookPoster
	metrics    *NotificationMetrics
}

// NewSlackNotifier creates a notifier for the given incoming webhook.
func NewSlackNotifier(cfg *config.SlackConfig, metrics *NotificationMetrics) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		post:       slack.PostWebhookContext,
		metrics:    metrics,
	}
}

func (n *SlackNotifier) NotifySubmission(ctx context.Context, draft types.FeedbackSubmission, result *types.SubmissionResult) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	color := "good"
	if draft.Rating <= 2 {
		color = "danger"
	} else if draft.Rating == 3 {
		color = "warning"
	}

	fields := []slack.AttachmentField{
		{Title: "Service", Value: draft.ServiceCategory, Short: true},
		{Title: "Rating", Value: fmt.Sprintf("%d/5", draft.Rating), Short: true},
		{Title: "From", Value: draft.Name, Short: true},
		{Title: "List", Value: result.ListName, Short: true},
	}
	if draft.Comments != "" {
		fields = append(fields, slack.AttachmentField{Title: "Comments", Value: draft.Comments})
	}

	msg := &slack.WebhookMessage{
		Channel: n.channel,
		Text:    fmt.Sprintf("New feedback for %s", draft.ServiceCategory),
		Attachments: []slack.Attachment{{
			Color:  color,
			Fields: fields,
		}},
	}

	err := n.post(ctx, n.webhookURL, msg)
	n.metrics.record("slack", err)
	if err != nil {
		return fmt.Errorf("slack webhook failed: %w", err)
	}
	return nil
}

// MultiNotifier fans a notification out to every notifier, collecting errors.
type MultiNotifier []Notifier

func (m MultiNotifier) NotifySubmission(ctx context.Context, draft types.FeedbackSubmission, result *types.SubmissionResult) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifySubmission(ctx, draft, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const confirmationEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Thank you for your feedback</title>
    <style>
        body { font-family: sans-serif; background-color: #f7f7f7; color: #333333; padding: 20px; }
        .container { max-width: 600px; margin: 20px auto; background-color: #ffffff; padding: 30px; border-radius: 12px; }
        h1 { color: #0078d4; font-size: 24px; }
        .summary { margin-top: 20px; border-top: 1px solid #eeeeee; padding-top: 10px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Thank you for your feedback{{if .Name}}, {{.Name}}{{end}}!</h1>
        <p>We received your feedback and our team will review it shortly.</p>
        <div class="summary">
            <p><strong>Service:</strong> {{.ServiceCategory}}</p>
            <p><strong>Rating:</strong> {{.Rating}} / 5</p>
            {{if .Comments}}<p><strong>Comments:</strong> {{.Comments}}</p>{{end}}
        </div>
    </div>
</body>
</html>`
