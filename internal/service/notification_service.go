package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zetsuserv/support-portal/internal/config"
	"github.com/zetsuserv/support-portal/internal/events"
	"github.com/zetsuserv/support-portal/internal/integrations"
	"github.com/zetsuserv/support-portal/internal/notify"
	"github.com/zetsuserv/support-portal/internal/repository"
)

// NotificationService performs the email and webhook side effects for
// domain events. Each handler failure is independent; the dispatcher
// joins them so the originating request can surface warnings without
// failing.
type NotificationService struct {
	dispatcher  events.Dispatcher
	mailer      notify.Mailer
	webhook     *integrations.WebhookClient
	subscribers repository.NewsletterRepository
	logger      *zap.Logger
	broadcast   config.BroadcastConfig
	adminEmail  string
	otpTTLMin   int
	sleep       func(time.Duration)
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher       events.Dispatcher
	Mailer           notify.Mailer
	Webhook          *integrations.WebhookClient
	SubscriptionRepo repository.NewsletterRepository
	Logger           *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(cfg *config.Config, deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher:  deps.Dispatcher,
		mailer:      deps.Mailer,
		webhook:     deps.Webhook,
		subscribers: deps.SubscriptionRepo,
		logger:      deps.Logger,
		broadcast:   cfg.Broadcast,
		adminEmail:  cfg.Session.AdminEmail,
		otpTTLMin:   cfg.Session.OTPTTLMinutes,
		sleep:       time.Sleep,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketSubmitted, n.handleTicketSubmitted)
	n.dispatcher.Subscribe(events.EventTicketReplied, n.handleTicketReplied)
	n.dispatcher.Subscribe(events.EventOTPIssued, n.handleOTPIssued)
	n.dispatcher.Subscribe(events.EventNewsPublished, n.handleNewsPublished)
}

// handleTicketSubmitted sends the admin alert, the user confirmation and
// the webhook export. Each runs even when an earlier one failed.
func (n *NotificationService) handleTicketSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketSubmittedPayload)
	if !ok {
		return nil
	}
	ticket := payload.Ticket
	n.logger.Info("ticket submitted", zap.String("ticket_id", ticket.TicketID), zap.String("priority", string(ticket.Priority)))

	var errs []error
	if n.adminEmail != "" {
		subject, body := notify.AdminTicketAlert(&ticket)
		if err := n.mailer.Send(ctx, notify.EmailMessage{To: []string{n.adminEmail}, Subject: subject, Body: body, HTML: true}); err != nil {
			errs = append(errs, errors.New("admin notification email failed"))
		}
	}

	subject, body := notify.UserTicketConfirmation(&ticket)
	if err := n.mailer.Send(ctx, notify.EmailMessage{To: []string{ticket.Email}, Subject: subject, Body: body, HTML: true}); err != nil {
		errs = append(errs, errors.New("confirmation email could not be sent"))
	}

	if err := n.webhook.NotifyTicket(ctx, &ticket); err != nil {
		errs = append(errs, errors.New("automation webhook failed"))
	}
	return errors.Join(errs...)
}

func (n *NotificationService) handleTicketReplied(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRepliedPayload)
	if !ok {
		return nil
	}
	ticket := payload.Ticket
	subject, body := notify.AdminReply(&ticket, payload.Reply)
	if err := n.mailer.Send(ctx, notify.EmailMessage{To: []string{ticket.Email}, Subject: subject, Body: body, HTML: true}); err != nil {
		return errors.New("reply email could not be sent")
	}
	return nil
}

func (n *NotificationService) handleOTPIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OTPIssuedPayload)
	if !ok {
		return nil
	}
	subject, body := notify.OTPCode(payload.Code, n.otpTTLMin)
	if err := n.mailer.Send(ctx, notify.EmailMessage{To: []string{payload.Email}, Subject: subject, Body: body, HTML: true}); err != nil {
		return errors.New("verification email could not be sent")
	}
	return nil
}

// handleNewsPublished emails every subscriber in fixed-size batches with
// a fixed sleep between batches. Individual failures are counted, not
// retried, and never stop the run.
func (n *NotificationService) handleNewsPublished(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NewsPublishedPayload)
	if !ok {
		return nil
	}

	emails, err := n.subscribers.ListEmails(ctx)
	if err != nil {
		return errors.New("could not load newsletter subscribers")
	}
	if len(emails) == 0 {
		return nil
	}

	subject, body := notify.NewsBroadcast(&payload.News)
	failed := 0
	for i, batch := range chunkEmails(emails, n.broadcast.BatchSize) {
		if i > 0 {
			n.sleep(n.broadcast.BatchDelay())
		}
		for _, email := range batch {
			msg := notify.EmailMessage{To: []string{email}, Subject: subject, Body: body, HTML: true}
			if err := n.mailer.Send(ctx, msg); err != nil {
				failed++
			}
		}
	}

	n.logger.Info("news broadcast complete",
		zap.String("news_id", payload.News.ID),
		zap.Int("recipients", len(emails)),
		zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("broadcast: %d of %d sends failed", failed, len(emails))
	}
	return nil
}

func chunkEmails(emails []string, size int) [][]string {
	if size <= 0 {
		size = 25
	}
	var batches [][]string
	for start := 0; start < len(emails); start += size {
		end := start + size
		if end > len(emails) {
			end = len(emails)
		}
		batches = append(batches, emails[start:end])
	}
	return batches
}
