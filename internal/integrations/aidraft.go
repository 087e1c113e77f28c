package integrations

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/zetsuserv/support-portal/internal/config"
	"github.com/zetsuserv/support-portal/internal/domain"
)

// DraftClient calls a generative-language API to suggest a reply for
// admin review. A nil client (missing API key) skips drafting entirely.
type DraftClient struct {
	cfg       config.AIConfig
	uploadDir string
	maxImage  int64
	client    *resty.Client
	logger    *zap.Logger
}

// NewDraftClient returns nil when no API key is configured.
func NewDraftClient(cfg config.AIConfig, portal config.PortalConfig, logger *zap.Logger) *DraftClient {
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn("ai api key not configured; reply drafting disabled")
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &DraftClient{
		cfg:       cfg,
		uploadDir: portal.UploadDir,
		maxImage:  portal.MaxAttachmentSize,
		client:    resty.New().SetTimeout(timeout),
		logger:    logger,
	}
}

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *inlineDataPart `json:"inline_data,omitempty"`
}

type inlineDataPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []struct {
		Parts []generatePart `json:"parts"`
	} `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SuggestReply builds a prompt from the ticket plus FAQ context and
// returns the generated draft. An attached image is inlined when it
// passes validation; any image anomaly falls back to text-only.
func (d *DraftClient) SuggestReply(ctx context.Context, ticket *domain.Ticket, faqs []domain.FAQ) (string, error) {
	if d == nil {
		return "", nil
	}

	parts := []generatePart{{Text: d.buildPrompt(ticket, faqs)}}
	if ticket.AttachmentFilename != nil {
		if img, ok := d.loadAttachmentImage(*ticket.AttachmentFilename); ok {
			parts = append(parts, generatePart{InlineData: img})
		}
	}

	var req generateRequest
	req.Contents = make([]struct {
		Parts []generatePart `json:"parts"`
	}, 1)
	req.Contents[0].Parts = parts

	endpoint := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(d.cfg.Endpoint, "/"), d.cfg.Model)

	var out generateResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", d.cfg.APIKey).
		SetBody(req).
		SetResult(&out).
		Post(endpoint)
	if err != nil {
		d.logger.Error("ai draft request failed",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("error_kind", classifyDraftError(err, 0)),
			zap.Error(err))
		return "", err
	}
	if resp.StatusCode() >= 400 {
		kind := classifyDraftError(nil, resp.StatusCode())
		msg := ""
		if out.Error != nil {
			msg = out.Error.Message
		}
		err := fmt.Errorf("ai api responded %d (%s): %s", resp.StatusCode(), kind, msg)
		d.logger.Error("ai draft rejected",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("error_kind", kind))
		return "", err
	}

	for _, candidate := range out.Candidates {
		for _, part := range candidate.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", errors.New("ai api returned no candidates")
}

func (d *DraftClient) buildPrompt(ticket *domain.Ticket, faqs []domain.FAQ) string {
	var b strings.Builder
	b.WriteString("You are a support agent drafting a reply for admin review.\n")
	b.WriteString("Write a concise, friendly response to the customer below.\n\n")
	fmt.Fprintf(&b, "Issue type: %s\nPriority: %s\nCustomer name: %s\nMessage:\n%s\n",
		ticket.IssueType, ticket.Priority, ticket.Name, ticket.Message)
	if len(faqs) > 0 {
		b.WriteString("\nKnown FAQ context:\n")
		for _, faq := range faqs {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", faq.Question, faq.Answer)
		}
	}
	return b.String()
}

var imageMimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// loadAttachmentImage re-validates the stored filename and decodes the
// image header before inlining. Any anomaly returns ok=false so the
// caller proceeds text-only.
func (d *DraftClient) loadAttachmentImage(filename string) (*inlineDataPart, bool) {
	if filename == "" || filename != filepath.Base(filename) {
		d.logger.Warn("attachment filename rejected for ai prompt", zap.String("filename", filename))
		return nil, false
	}
	mime, ok := imageMimeByExt[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return nil, false
	}

	path := filepath.Join(d.uploadDir, filename)
	info, err := os.Stat(path)
	if err != nil || info.Size() > d.maxImage {
		return nil, false
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	if _, _, err := image.DecodeConfig(f); err != nil {
		f.Close()
		d.logger.Warn("attachment is not a decodable image", zap.String("filename", filename))
		return nil, false
	}
	f.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return &inlineDataPart{
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}, true
}

func classifyDraftError(err error, status int) string {
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case err != nil:
		return "transport"
	case status == 401 || status == 403:
		return "auth"
	case status == 429:
		return "quota"
	case status >= 500:
		return "upstream"
	default:
		return "other"
	}
}
