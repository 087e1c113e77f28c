package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zetsuserv/support-portal/internal/config"
	"github.com/zetsuserv/support-portal/internal/domain"
)

func TestValidateWebhookURL(t *testing.T) {
	valid := []string{
		"https://hooks.example.com/ticket",
		"http://automation.example.org:8443/in",
	}
	for _, raw := range valid {
		assert.NoError(t, ValidateWebhookURL(raw), raw)
	}

	invalid := []string{
		"ftp://example.com/hook",
		"file:///etc/passwd",
		"https://localhost/hook",
		"https://sub.localhost/hook",
		"https://service.local/hook",
		"https://db.internal/hook",
		"https://127.0.0.1/hook",
		"https://10.0.0.8/hook",
		"https://192.168.1.20/hook",
		"https://169.254.1.1/hook",
		"https://0.0.0.0/hook",
		"https://[::1]/hook",
		"https:///missing-host",
	}
	for _, raw := range invalid {
		assert.Error(t, ValidateWebhookURL(raw), raw)
	}
}

func TestNewWebhookClient(t *testing.T) {
	logger := zap.NewNop()

	assert.Nil(t, NewWebhookClient(config.WebhookConfig{}, logger), "unconfigured")
	assert.Nil(t, NewWebhookClient(config.WebhookConfig{URL: "https://127.0.0.1/hook"}, logger), "unsafe url")
	assert.NotNil(t, NewWebhookClient(config.WebhookConfig{URL: "https://hooks.example.com/in"}, logger))
}

func TestNotifyTicket_NilClient(t *testing.T) {
	var client *WebhookClient
	assert.NoError(t, client.NotifyTicket(context.Background(), &domain.Ticket{}))
}

func TestNotifyTicket_PostsSnapshot(t *testing.T) {
	var received TicketWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &WebhookClient{url: srv.URL, client: resty.New(), logger: zap.NewNop()}
	ticket := &domain.Ticket{
		TicketID:  "ZS-20260829-XY12AB",
		Name:      "Sam",
		Email:     "sam@example.com",
		IssueType: domain.IssueBillingInquiry,
		Priority:  domain.TicketPriorityHigh,
		Message:   "charged twice",
		Status:    domain.TicketStatusPendingReview,
		CreatedAt: time.Now(),
	}

	require.NoError(t, client.NotifyTicket(context.Background(), ticket))
	assert.Equal(t, "ZS-20260829-XY12AB", received.TicketID)
	assert.Equal(t, "Billing Inquiry", received.IssueType)
	assert.Equal(t, "High", received.Priority)
	assert.Equal(t, "pending_review", received.Status)
}

func TestNotifyTicket_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := &WebhookClient{url: srv.URL, client: resty.New(), logger: zap.NewNop()}
	err := client.NotifyTicket(context.Background(), &domain.Ticket{TicketID: "ZS-20260829-XY12AB"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
