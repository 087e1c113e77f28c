package integrations

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/zetsuserv/support-portal/internal/config"
	"github.com/zetsuserv/support-portal/internal/domain"
)

// TicketWebhookPayload is the JSON document posted to the automation hook.
type TicketWebhookPayload struct {
	TicketID  string `json:"ticket_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IssueType string `json:"issue_type"`
	Priority  string `json:"priority"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// WebhookClient POSTs ticket snapshots to an external automation URL.
// A nil client (unconfigured or rejected URL) skips silently.
type WebhookClient struct {
	url    string
	client *resty.Client
	logger *zap.Logger
}

// NewWebhookClient validates the configured URL up front and returns nil
// when the webhook is unconfigured or the URL fails the safety checks.
func NewWebhookClient(cfg config.WebhookConfig, logger *zap.Logger) *WebhookClient {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil
	}
	if err := ValidateWebhookURL(cfg.URL); err != nil {
		logger.Warn("webhook url rejected; webhook export disabled",
			zap.String("url", cfg.URL), zap.Error(err))
		return nil
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().SetTimeout(timeout)
	return &WebhookClient{url: cfg.URL, client: client, logger: logger}
}

// NotifyTicket posts the ticket snapshot. All failures are logged and
// returned so the caller can surface a warning; none are fatal.
func (w *WebhookClient) NotifyTicket(ctx context.Context, ticket *domain.Ticket) error {
	if w == nil {
		return nil
	}
	payload := TicketWebhookPayload{
		TicketID:  ticket.TicketID,
		Name:      ticket.Name,
		Email:     ticket.Email,
		IssueType: string(ticket.IssueType),
		Priority:  string(ticket.Priority),
		Message:   ticket.Message,
		Status:    string(ticket.Status),
		CreatedAt: ticket.CreatedAt.Format(time.RFC3339),
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(w.url)
	if err != nil {
		w.logger.Error("webhook post failed", zap.String("ticket_id", ticket.TicketID), zap.Error(err))
		return err
	}
	if resp.StatusCode() >= 400 {
		err := fmt.Errorf("webhook responded %d", resp.StatusCode())
		w.logger.Error("webhook post rejected", zap.String("ticket_id", ticket.TicketID), zap.Error(err))
		return err
	}
	return nil
}

// ValidateWebhookURL rejects non-HTTP schemes and loopback/private-looking
// hosts. Hostname checks are lexical plus literal-IP classification; this
// is a mitigation, not a full SSRF defense.
func ValidateWebhookURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("missing host")
	}
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") || strings.HasSuffix(lower, ".local") || strings.HasSuffix(lower, ".internal") {
		return fmt.Errorf("loopback or internal host %q", host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("non-public address %q", host)
		}
	}
	return nil
}
