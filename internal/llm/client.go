// Package llm is the HTTP client for the journaling proxy service that
// fronts the language model: chat completion, structured daily-summary
// generation and cross-day natural-language queries. The client never
// touches the store; callers persist generated content as message,
// summary or note entities themselves.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/logging"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

const (
	defaultTimeout = 60 * time.Second

	// Rate-limited requests are retried with exponential backoff a few
	// times before the error is surfaced to the caller.
	retryBase  = 500 * time.Millisecond
	maxRetries = 3
)

// Client talks to the LLM proxy. The API key is supplied per call: it
// lives in the encrypted settings document, not in the client.
type Client struct {
	endpoint  string
	http      *http.Client
	log       logging.Logger
	retryBase time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetryBase overrides the backoff base between rate-limit retries.
func WithRetryBase(d time.Duration) Option {
	return func(c *Client) { c.retryBase = d }
}

// NewClient creates a proxy client for the given base endpoint.
func NewClient(endpoint string, log logging.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		log:       log,
		retryBase: retryBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChatMessage is one turn of conversation context sent to the proxy.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest asks for the assistant's next turn.
type ChatRequest struct {
	Model        string        `json:"model,omitempty"`
	SystemPrompt string        `json:"systemPrompt,omitempty"`
	Messages     []ChatMessage `json:"messages"`
}

type chatResponse struct {
	Content string `json:"content"`
}

// Chat returns the assistant's reply to the conversation so far.
func (c *Client) Chat(ctx context.Context, apiKey string, req *ChatRequest) (string, error) {
	var resp chatResponse
	if err := c.post(ctx, apiKey, "/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// SummaryRequest asks for a structured digest of one day's entries.
type SummaryRequest struct {
	Model   string   `json:"model,omitempty"`
	Date    string   `json:"date"`
	Entries []string `json:"entries"`
}

// SummaryResult carries the four fixed sections plus the rendered
// markdown concatenation, matching the Summary entity's body.
type SummaryResult struct {
	Sections   models.SummarySections `json:"sections"`
	RawContent string                 `json:"rawContent"`
}

// DailySummary generates the structured daily digest.
func (c *Client) DailySummary(ctx context.Context, apiKey string, req *SummaryRequest) (*SummaryResult, error) {
	var resp SummaryResult
	if err := c.post(ctx, apiKey, "/summary", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryRequest asks a natural-language question over journal excerpts
// the caller selected (typically by embedding similarity).
type QueryRequest struct {
	Model    string   `json:"model,omitempty"`
	Question string   `json:"question"`
	Context  []string `json:"context,omitempty"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

// Query answers a question over the supplied journal context.
func (c *Client) Query(ctx context.Context, apiKey string, req *QueryRequest) (string, error) {
	var resp queryResponse
	if err := c.post(ctx, apiKey, "/query", req, &resp); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// errorBody is the proxy's normalized error shape.
type errorBody struct {
	Error string `json:"error"`
}

// post sends one JSON request, retrying only on rate limiting. 401 maps
// to common.ErrUnauthorized, 429 to common.ErrRateLimited; both keep the
// proxy's error text.
func (c *Client) post(ctx context.Context, apiKey, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("calling llm proxy: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil
		}

		var eb errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &eb)
		if eb.Error == "" {
			eb.Error = resp.Status
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", common.ErrUnauthorized, eb.Error)
		case http.StatusTooManyRequests:
			c.log.Warn(ctx, "llm proxy rate limited, backing off", "path", path)
			return retry.RetryableError(fmt.Errorf("%w: %s", common.ErrRateLimited, eb.Error))
		default:
			return fmt.Errorf("llm proxy %s: %s", resp.Status, eb.Error)
		}
	})
}
