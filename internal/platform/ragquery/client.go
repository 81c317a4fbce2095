package ragquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// Client talks to the external retrieval-augmented query service. The
// /query request and response JSON shapes are a fixed wire contract.
type Client interface {
	Ask(ctx context.Context, projectID, question string) (*Result, error)
	Health(ctx context.Context) error
}

type Result struct {
	Answer  string               `json:"answer"`
	Sources []domain.CitedSource `json:"sources"`
}

type queryRequest struct {
	ProjectID string `json:"project_id"`
	Question  string `json:"question"`
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, baseURL string) (Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("query service base URL required")
	}
	return &client{
		log:        log.With("client", "QueryClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *client) Ask(ctx context.Context, projectID, question string) (*Result, error) {
	body, err := json.Marshal(queryRequest{ProjectID: projectID, Question: question})
	if err != nil {
		return nil, fmt.Errorf("encode query request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read query response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Non-2xx bodies (plain text or JSON) are the error detail shown to
		// the user, verbatim.
		detail := strings.TrimSpace(string(raw))
		if detail == "" {
			detail = resp.Status
		}
		return nil, fmt.Errorf("%s", detail)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return &result, nil
}

func (c *client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("query service unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query service unhealthy: %s", resp.Status)
	}
	return nil
}
