package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

const defaultBaseURL = "https://api.sendgrid.com"

// Client sends transactional mail through the SendGrid v3 API.
type Client interface {
	Send(ctx context.Context, req SendEmailRequest) error
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
}

type SendEmailRequest struct {
	ToEmail  string
	Subject  string
	TextBody string
	HTMLBody string
}

type client struct {
	log     *logger.Logger
	httpc   *http.Client
	baseURL string
	cfg     Config
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	if strings.TrimSpace(cfg.DefaultFromEmail) == "" {
		return nil, fmt.Errorf("sendgrid from address required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		log:     log.With("client", "SendgridClient"),
		httpc:   &http.Client{Timeout: timeout},
		baseURL: baseURL,
		cfg:     cfg,
	}, nil
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) error {
	if strings.TrimSpace(req.ToEmail) == "" {
		return fmt.Errorf("recipient required")
	}

	content := make([]map[string]string, 0, 2)
	if req.TextBody != "" {
		content = append(content, map[string]string{"type": "text/plain", "value": req.TextBody})
	}
	if req.HTMLBody != "" {
		content = append(content, map[string]string{"type": "text/html", "value": req.HTMLBody})
	}
	if len(content) == 0 {
		return fmt.Errorf("empty message body")
	}

	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": req.ToEmail}}},
		},
		"from": map[string]string{
			"email": c.cfg.DefaultFromEmail,
			"name":  c.cfg.DefaultFromName,
		},
		"subject": req.Subject,
		"content": content,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode mail payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
