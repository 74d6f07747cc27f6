// Package notify tells taxpayers that a payment document is ready.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// Notice is the content of a "document ready" message.
type Notice struct {
	PeriodLabel string
	DueDate     time.Time
	TaxDue      string
	Locator     string
}

// Notifier delivers a Notice to a user.
type Notifier interface {
	Notify(ctx context.Context, user model.User, notice Notice) error
}

// Subject returns the message subject for n.
func Subject(n Notice) string {
	return "Capital gains tax document for " + n.PeriodLabel
}

// Body returns the plain-text message body for n.
func Body(user model.User, n Notice) string {
	return fmt.Sprintf(`Hi %s,

Your capital gains tax payment document for %s is ready.

Amount due: %s
Due date: %s

Download it here:
%s
`, user.Name, n.PeriodLabel, n.TaxDue, n.DueDate.Format("02/01/2006"), n.Locator)
}

// MailgunNotifier sends notices through Mailgun.
type MailgunNotifier struct {
	mg      mailgun.Mailgun
	from    string
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewMailgunNotifier creates a notifier for the given Mailgun domain. apiURL
// selects the region endpoint, e.g. mailgun.APIBaseEU; empty keeps the default.
func NewMailgunNotifier(domain, apiKey, apiURL, senderName, senderEmail string, log logrus.FieldLogger) *MailgunNotifier {
	mg := mailgun.NewMailgun(domain, apiKey)
	if apiURL != "" {
		mg.SetAPIBase(apiURL)
	}
	return &MailgunNotifier{
		mg:      mg,
		from:    fmt.Sprintf("%s <%s>", senderName, senderEmail),
		timeout: 20 * time.Second,
		log:     log,
	}
}

// Notify implements Notifier.
func (n *MailgunNotifier) Notify(ctx context.Context, user model.User, notice Notice) error {
	msg := n.mg.NewMessage(n.from, Subject(notice), Body(user, notice), user.Email)

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	resp, id, err := n.mg.Send(ctx, msg)
	if err != nil {
		n.log.WithError(err).WithFields(logrus.Fields{
			"user_id":  user.ID,
			"response": resp,
		}).Error("mailgun send failed")
		return fmt.Errorf("mailgun send failed: %w", err)
	}

	n.log.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"message_id": id,
		"period":     notice.PeriodLabel,
	}).Info("tax document notification sent")
	return nil
}

// LogNotifier only logs notices. Used when no mail provider is configured.
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, user model.User, notice Notice) error {
	n.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
		"period":  notice.PeriodLabel,
		"locator": notice.Locator,
	}).Info("tax document ready (mail provider not configured)")
	return nil
}
