package Slack

import (
	"context"
	"fmt"
	"log"
	"time"

	"Chronos/Reports"

	"github.com/slack-go/slack"
)

// Notifier posts messages to an incoming webhook. A Notifier without a
// webhook URL is disabled and drops everything.
type Notifier struct {
	WebhookURL string
	Channel    string
	Username   string
}

func NewNotifier(webhookURL, channel string) *Notifier {
	return &Notifier{
		WebhookURL: webhookURL,
		Channel:    channel,
		Username:   "Chronos",
	}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.WebhookURL != ""
}

func (n *Notifier) Post(ctx context.Context, message *slack.WebhookMessage) error {
	if !n.Enabled() {
		return nil
	}
	if message.Channel == "" {
		message.Channel = n.Channel
	}
	if message.Username == "" {
		message.Username = n.Username
	}
	if err := slack.PostWebhookContext(ctx, n.WebhookURL, message); err != nil {
		return fmt.Errorf("error posting to slack: %w", err)
	}
	return nil
}

// PostDigest sends the tracked totals for day as one attachment field per
// employee.
func (n *Notifier) PostDigest(ctx context.Context, day time.Time, totals []Reports.EmployeeTotal) error {
	if !n.Enabled() {
		log.Println("Slack webhook not configured, skipping digest")
		return nil
	}
	return n.Post(ctx, DigestMessage(day, totals))
}

func DigestMessage(day time.Time, totals []Reports.EmployeeTotal) *slack.WebhookMessage {
	var total int64
	fields := make([]slack.AttachmentField, 0, len(totals))
	for _, t := range totals {
		total += t.TotalDuration
		fields = append(fields, slack.AttachmentField{
			Title: t.Name,
			Value: fmt.Sprintf("%s (%d sessions)", Reports.FormatDuration(t.TotalDuration), t.Sessions),
			Short: true,
		})
	}

	text := fmt.Sprintf("*Tracked time for %s*: %s across %d employees",
		day.Format("2006-01-02"), Reports.FormatDuration(total), len(totals))
	if len(totals) == 0 {
		text = fmt.Sprintf("*Tracked time for %s*: no closed sessions", day.Format("2006-01-02"))
	}

	return &slack.WebhookMessage{
		Text: text,
		Attachments: []slack.Attachment{{
			Color:  "#36a64f",
			Fields: fields,
		}},
	}
}
