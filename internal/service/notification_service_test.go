package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zetsuserv/support-portal/internal/config"
	"github.com/zetsuserv/support-portal/internal/domain"
	"github.com/zetsuserv/support-portal/internal/events"
	"github.com/zetsuserv/support-portal/internal/notify"
)

type fakeMailer struct {
	sent    []notify.EmailMessage
	failFor map[string]bool
}

func (f *fakeMailer) Send(_ context.Context, msg notify.EmailMessage) error {
	if len(msg.To) > 0 && f.failFor[msg.To[0]] {
		return errors.New("relay refused")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) Enabled() bool { return true }

type fakeSubscriberRepo struct {
	emails []string
}

func (f *fakeSubscriberRepo) Subscribe(_ context.Context, sub *domain.NewsletterSubscription) error {
	f.emails = append(f.emails, sub.Email)
	return nil
}

func (f *fakeSubscriberRepo) ListEmails(_ context.Context) ([]string, error) {
	return f.emails, nil
}

func newNotificationFixture(mailer *fakeMailer, subs *fakeSubscriberRepo, batchSize int) (*NotificationService, *[]time.Duration) {
	cfg := &config.Config{
		Session:   config.SessionConfig{AdminEmail: "admin@example.com", OTPTTLMinutes: 10},
		Broadcast: config.BroadcastConfig{BatchSize: batchSize, BatchDelayMilli: 2000},
	}
	svc := NewNotificationService(cfg, NotificationDependencies{
		Mailer:           mailer,
		SubscriptionRepo: subs,
		Logger:           zap.NewNop(),
	})
	var sleeps []time.Duration
	svc.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return svc, &sleeps
}

func TestHandleTicketSubmitted_SendsBothEmails(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _ := newNotificationFixture(mailer, &fakeSubscriberRepo{}, 25)

	err := svc.handleTicketSubmitted(context.Background(), events.Event{
		Type: events.EventTicketSubmitted,
		Payload: events.TicketSubmittedPayload{Ticket: domain.Ticket{
			TicketID: "ZS-20260829-ABC123",
			Email:    "requester@example.com",
			Priority: domain.TicketPriorityHigh,
		}},
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, []string{"admin@example.com"}, mailer.sent[0].To)
	assert.Equal(t, []string{"requester@example.com"}, mailer.sent[1].To)
}

func TestHandleTicketSubmitted_IndependentFailures(t *testing.T) {
	mailer := &fakeMailer{failFor: map[string]bool{"admin@example.com": true}}
	svc, _ := newNotificationFixture(mailer, &fakeSubscriberRepo{}, 25)

	err := svc.handleTicketSubmitted(context.Background(), events.Event{
		Type: events.EventTicketSubmitted,
		Payload: events.TicketSubmittedPayload{Ticket: domain.Ticket{
			TicketID: "ZS-20260829-ABC123",
			Email:    "requester@example.com",
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin notification email failed")
	// The confirmation email still went out.
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"requester@example.com"}, mailer.sent[0].To)
}

func TestHandleNewsPublished_Batching(t *testing.T) {
	mailer := &fakeMailer{}
	subs := &fakeSubscriberRepo{emails: []string{
		"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com",
	}}
	svc, sleeps := newNotificationFixture(mailer, subs, 2)

	err := svc.handleNewsPublished(context.Background(), events.Event{
		Type:    events.EventNewsPublished,
		Payload: events.NewsPublishedPayload{News: domain.News{ID: "n1", Title: "Maintenance window", Content: "Saturday 02:00 UTC"}},
	})
	require.NoError(t, err)
	assert.Len(t, mailer.sent, 5)
	// Five recipients at batch size two means three batches, so two sleeps.
	require.Len(t, *sleeps, 2)
	assert.Equal(t, 2*time.Second, (*sleeps)[0])
}

func TestHandleNewsPublished_CountsFailures(t *testing.T) {
	mailer := &fakeMailer{failFor: map[string]bool{"b@example.com": true}}
	subs := &fakeSubscriberRepo{emails: []string{"a@example.com", "b@example.com", "c@example.com"}}
	svc, _ := newNotificationFixture(mailer, subs, 25)

	err := svc.handleNewsPublished(context.Background(), events.Event{
		Type:    events.EventNewsPublished,
		Payload: events.NewsPublishedPayload{News: domain.News{ID: "n1", Title: "t", Content: "c"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 sends failed")
	assert.Len(t, mailer.sent, 2)
}

func TestHandleNewsPublished_NoSubscribers(t *testing.T) {
	mailer := &fakeMailer{}
	svc, sleeps := newNotificationFixture(mailer, &fakeSubscriberRepo{}, 25)

	err := svc.handleNewsPublished(context.Background(), events.Event{
		Type:    events.EventNewsPublished,
		Payload: events.NewsPublishedPayload{News: domain.News{ID: "n1"}},
	})
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
	assert.Empty(t, *sleeps)
}

func TestHandleOTPIssued(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _ := newNotificationFixture(mailer, &fakeSubscriberRepo{}, 25)

	err := svc.handleOTPIssued(context.Background(), events.Event{
		Type:    events.EventOTPIssued,
		Payload: events.OTPIssuedPayload{Email: "new@example.com", Code: "123456"},
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Body, "123456")
}

func TestChunkEmails(t *testing.T) {
	emails := []string{"a", "b", "c", "d", "e"}

	batches := chunkEmails(emails, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a", "b"}, batches[0])
	assert.Equal(t, []string{"e"}, batches[2])

	assert.Len(t, chunkEmails(emails, 10), 1)
	assert.Nil(t, chunkEmails(nil, 2))

	// A non-positive size falls back to the default rather than looping.
	batches = chunkEmails(emails, 0)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 5)
}
