package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

const serviceName = "genai"

// Config configures the model gateway client.
type Config struct {
	Endpoint   string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the generative model gateway over JSON/HTTP. Every failure
// is returned as a *domain.UpstreamError; nothing is retried.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint:   strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      strings.TrimSpace(cfg.Model),
		timeout:    timeout,
		httpClient: httpClient,
	}
}

type descriptionRequest struct {
	Model   string   `json:"model,omitempty"`
	Bullets []string `json:"bullets"`
}

type descriptionResponse struct {
	Description string `json:"description"`
}

type summaryRequest struct {
	Model string `json:"model,omitempty"`
	Text  string `json:"text"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type assessmentRequest struct {
	Model     string   `json:"model,omitempty"`
	Documents []string `json:"documents"`
}

type assessmentResponse struct {
	IsSuspicious bool   `json:"isSuspicious"`
	Reason       string `json:"reason"`
}

// DraftDescription turns seller bullet points into listing copy.
func (c *Client) DraftDescription(ctx context.Context, bullets []string) (string, error) {
	var res descriptionResponse
	if err := c.post(ctx, "/descriptions", descriptionRequest{Model: c.model, Bullets: bullets}, &res); err != nil {
		return "", err
	}
	text := strings.TrimSpace(res.Description)
	if text == "" {
		return "", upstream(errors.New("empty description"))
	}
	return text, nil
}

// SummarizeDocument summarises the extracted text of one evidence document.
func (c *Client) SummarizeDocument(ctx context.Context, text string) (string, error) {
	var res summaryResponse
	if err := c.post(ctx, "/summaries", summaryRequest{Model: c.model, Text: text}, &res); err != nil {
		return "", err
	}
	summary := strings.TrimSpace(res.Summary)
	if summary == "" {
		return "", upstream(errors.New("empty summary"))
	}
	return summary, nil
}

// AssessDocuments asks the model whether a set of documents looks forged
// or inconsistent.
func (c *Client) AssessDocuments(ctx context.Context, descriptions []string) (domain.ImageAnalysis, error) {
	var res assessmentResponse
	if err := c.post(ctx, "/assessments", assessmentRequest{Model: c.model, Documents: descriptions}, &res); err != nil {
		return domain.ImageAnalysis{}, err
	}
	return domain.ImageAnalysis{IsSuspicious: res.IsSuspicious, Reason: strings.TrimSpace(res.Reason)}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	if c.endpoint == "" {
		return upstream(errors.New("endpoint not configured"))
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return upstream(err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return upstream(fmt.Errorf("status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message))))
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(out); err != nil {
		return upstream(fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}

func upstream(err error) error {
	return &domain.UpstreamError{Service: serviceName, Err: err}
}
