package notify

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
)

// ErrDeliveryFailed is the base error for summary emails that could not be
// delivered. One recipient's failure never blocks the others.
var ErrDeliveryFailed = errors.New("delivery failed")

// DeliveryError records a single recipient's failed delivery.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return ErrDeliveryFailed }

// Sender delivers one email to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// GmailSender sends email through the Gmail API on behalf of the
// authenticated account ("me").
type GmailSender struct {
	service *gmail.Service
	from    string
}

// NewGmailSender creates a sender backed by the Gmail API. from is the
// address shown in the From header; opts carry the credentials.
func NewGmailSender(ctx context.Context, from string, opts ...option.ClientOption) (*GmailSender, error) {
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &GmailSender{service: service, from: from}, nil
}

// Send builds an HTML MIME message and submits it via the Gmail API.
func (s *GmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	raw := base64.URLEncoding.EncodeToString([]byte(msg.String()))
	_, err := s.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send failed: %w", err)
	}
	return nil
}

// LogSender writes summaries to the log instead of sending them. Used in
// development and when no mail credentials are configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.logger.Info("email summary (not sent)",
		"to", to,
		"subject", subject,
		"body_bytes", len(htmlBody),
	)
	return nil
}

// DispatchAll sends a summary email to each member involved in the batch,
// in member order. Members who neither paid for nor were assigned any
// expense in the batch get no email. Deliveries are sequential; a failed
// recipient is recorded and skipped so the rest of the batch still goes
// out. The returned slice holds one entry per failure and is empty on full
// success.
func DispatchAll(ctx context.Context, sender Sender, logger *slog.Logger, groupName string, members []string, expenses []*models.Expense, resolve NameResolver) []*DeliveryError {
	var failures []*DeliveryError
	for _, member := range members {
		if !anyInvolves(expenses, member) {
			continue
		}
		summary := BuildSummary(groupName, member, expenses, resolve)
		body, err := summary.RenderHTML()
		if err == nil {
			err = sender.Send(ctx, member, summary.Subject(), body)
		}
		if err != nil {
			logger.Error("failed to deliver summary", "group", groupName, "recipient", member, "error", err)
			failures = append(failures, &DeliveryError{Recipient: member, Err: err})
			continue
		}
		logger.Info("summary delivered", "group", groupName, "recipient", member)
	}
	return failures
}

func anyInvolves(expenses []*models.Expense, member string) bool {
	for _, e := range expenses {
		if e.Involves(member) {
			return true
		}
	}
	return false
}
